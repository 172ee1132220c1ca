package wallet

import (
	"github.com/servizo/walletd/internal/wallet/repository"
	"github.com/servizo/walletd/internal/wallet/service"
	"go.uber.org/fx"
)

var Module = fx.Module("wallet",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
