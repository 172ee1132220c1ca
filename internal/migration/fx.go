package migration

import (
	"github.com/servizo/walletd/internal/config"
	partnerdomain "github.com/servizo/walletd/internal/partner/domain"
	walletdomain "github.com/servizo/walletd/internal/wallet/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// sqlite is only used for local runs; gorm's migrator is enough
			// there and golang-migrate's postgres driver would not apply.
			return conn.AutoMigrate(&partnerdomain.Partner{}, &walletdomain.Transaction{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
