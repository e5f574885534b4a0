// Package db provides the gorm-backed session store connection. Analysis
// results live only for the lifetime of the process; the default DSN is an
// in-memory SQLite database.
package db

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/fleetops/fuelrate/internal/config"
)

var Module = fx.Module("db",
	fx.Provide(Open),
)

// Open connects to the session store.
func Open(cfg config.Config, log *zap.Logger) (*gorm.DB, error) {
	dsn := cfg.DBPath
	if dsn == "" {
		dsn = "file::memory:?cache=shared"
	}

	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open session store: %w", err)
	}

	log.Info("session store ready", zap.String("dsn", dsn))
	return gdb, nil
}
