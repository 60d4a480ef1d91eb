package migration

import (
	"github.com/dunamis-edu/dunamis/internal/config"
	donationdomain "github.com/dunamis-edu/dunamis/internal/donation/domain"
	paymentdomain "github.com/dunamis-edu/dunamis/internal/payment/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// The migrate driver is postgres-specific; other dialects
			// (sqlite for local development) fall back to AutoMigrate.
			return conn.AutoMigrate(
				&donationdomain.Donation{},
				&paymentdomain.EventRecord{},
			)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
