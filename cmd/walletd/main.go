package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/servizo/walletd/internal/config"
	"github.com/servizo/walletd/internal/locker"
	"github.com/servizo/walletd/internal/logger"
	"github.com/servizo/walletd/internal/metrics"
	"github.com/servizo/walletd/internal/migration"
	"github.com/servizo/walletd/internal/partner"
	"github.com/servizo/walletd/internal/server"
	"github.com/servizo/walletd/internal/wallet"
	"github.com/servizo/walletd/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		metrics.Module,
		locker.Module,
		partner.Module,
		wallet.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
