package migration

import (
	"github.com/smallbiznis/vendo/internal/config"
	purchasedomain "github.com/smallbiznis/vendo/internal/purchase/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Run),
)

// Run brings the schema up to date on startup. SQL migrations target
// postgres; other dialects take the gorm schema path so a sqlite dev
// deployment starts with the same tables.
func Run(conn *gorm.DB, cfg config.Config) error {
	if cfg.DBType != "postgres" {
		return conn.AutoMigrate(&purchasedomain.PurchaseRecord{})
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return RunMigrations(sqlDB)
}
