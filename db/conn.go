// Package db opens the SQL database used by the gorm stores
package db

import (
	"errors"
	"fmt"
	"hungrypanda/hub-api/config"
	"hungrypanda/hub-api/internal/model"
	"hungrypanda/hub-api/pkg/util"
	"os"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// New opens the database selected by c.Driver. It returns nil for the
// memory driver.
func New(c config.DatabaseConfig) (*gorm.DB, error) {
	switch c.Driver {
	case "memory":
		return nil, nil
	case "sqlite":
		// If running in a docker container don't allow the sqlite file to be created.
		// The host should instead mount it using volumes
		if util.IsRunningInDocker() {
			if _, err := os.Stat(c.Path); errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("SQLite database file not mounted, please use docker volumes to mount it to /app/%s", c.Path)
			}
		}

		return OpenSQLite(c.Path)
	case "postgres":
		return OpenPostgres(c.URL)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// OpenSQLite opens and migrates a SQLite database. Writes are funneled
// through a single connection.
func OpenSQLite(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite database, %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	return db, migrate(db)
}

func OpenPostgres(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), gormConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize PostgreSQL database, %w", err)
	}

	return db, migrate(db)
}

func gormConfig() *gorm.Config {
	return &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	}
}

func migrate(db *gorm.DB) error {
	err := db.AutoMigrate(model.User{}, model.MagicLink{}, model.Startup{}, model.Resource{})
	if err != nil {
		return fmt.Errorf("failed to automigrate tables, %w", err)
	}

	return nil
}
