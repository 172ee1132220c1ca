package payment

import (
	"time"

	"github.com/servizo/walletd/internal/config"
	"github.com/servizo/walletd/internal/metrics"
	"github.com/servizo/walletd/internal/payment/domain"
	"github.com/servizo/walletd/internal/payment/razorpay"
	"github.com/servizo/walletd/internal/payment/resolver"
	"github.com/servizo/walletd/internal/payment/service"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("payment",
	fx.Provide(
		newAdapter,
		newOrderFetcher,
		newResolver,
		newService,
	),
)

func newAdapter(cfg config.Config, log *zap.Logger) domain.Adapter {
	if cfg.Razorpay.WebhookSecret == "" {
		log.Warn("razorpay webhook secret not configured; all deliveries will be rejected")
	} else {
		log.Info("razorpay webhook verification enabled",
			zap.String("secret_preview", config.SecretPreview(cfg.Razorpay.WebhookSecret)),
		)
	}
	return razorpay.NewAdapter(cfg.Razorpay.WebhookSecret)
}

func newOrderFetcher(cfg config.Config) domain.OrderFetcher {
	return razorpay.NewClient(
		cfg.Razorpay.APIBaseURL,
		cfg.Razorpay.KeyID,
		cfg.Razorpay.KeySecret,
		time.Duration(cfg.Razorpay.FetchTimeoutSec)*time.Second,
	)
}

func newResolver(log *zap.Logger, fetcher domain.OrderFetcher) *resolver.Resolver {
	return resolver.NewDefault(log, fetcher)
}

type serviceParams struct {
	fx.In

	Adapter  domain.Adapter
	Resolver *resolver.Resolver
	Wallet   walletdomain.Service
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

func newService(p serviceParams) domain.Service {
	return service.New(p.Adapter, p.Resolver, p.Wallet, p.Metrics, p.Logger)
}
