package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/s/elearner/internal/config"
	"github.com/s/elearner/internal/logger"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func dialector(cfg *config.Config) (gorm.Dialector, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		return postgres.Open(cfg.DatabaseURL), nil
	case config.DriverSQLite:
		return sqlite.Open(sqliteDSN(cfg.DatabaseURL)), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}

// sqliteDSN turns on foreign key enforcement, which SQLite leaves off per
// connection unless the DSN asks for it.
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys=") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_foreign_keys=1"
}

// Connect opens the database, retrying while the server is still starting.
func Connect(cfg *config.Config, log *logger.Logger) (*gorm.DB, error) {
	dial, err := dialector(cfg)
	if err != nil {
		return nil, err
	}

	var db *gorm.DB
	for i := 0; i < cfg.ConnectAttempts; i++ {
		db, err = gorm.Open(dial, &gorm.Config{})
		if err == nil {
			log.Info("connected to database", "driver", cfg.DatabaseDriver)
			return db, nil
		}

		log.Warn("database connection attempt failed", "attempt", i+1, "error", err)
		time.Sleep(cfg.ConnectBackoff)
	}

	return nil, fmt.Errorf("connect to database after %d attempts: %w", cfg.ConnectAttempts, err)
}
