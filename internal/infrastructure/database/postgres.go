package database

import (
	"fmt"
	"strings"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"github.com/gautamkumarcode/propmize-admin/internal/infrastructure/repositories"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// Open creates a new database connection. DSNs starting with "sqlite:" open
// a SQLite file (or ":memory:") for local runs; anything else is PostgreSQL.
func Open(dsn string, debug bool) (*gorm.DB, error) {
	level := logger.Warn
	if debug {
		level = logger.Info
	}
	config := &gorm.Config{
		Logger: logger.Default.LogMode(level),
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
	}

	if path, ok := strings.CutPrefix(dsn, "sqlite:"); ok {
		return gorm.Open(sqlite.Open(path), config)
	}
	return gorm.Open(postgres.Open(dsn), config)
}

// AutoMigrate creates the notification cache table and the Casbin policy table
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&repositories.DBNotification{}); err != nil {
		return fmt.Errorf("failed to migrate notification cache table: %w", err)
	}

	// The adapter creates casbin_rule on construction.
	if _, err := gormadapter.NewAdapterByDB(db); err != nil {
		return fmt.Errorf("failed to initialize Casbin GORM adapter: %w", err)
	}

	return nil
}
