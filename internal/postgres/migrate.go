package postgres

import (
	"github.com/flexprice/grants/internal/config"
	"github.com/flexprice/grants/migrations"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// NewMigrator returns a migrate instance over the embedded schema
func NewMigrator(cfg *config.Configuration) (*migrate.Migrate, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return nil, err
	}
	return migrate.NewWithSourceInstance("iofs", src, cfg.Postgres.GetURL())
}
