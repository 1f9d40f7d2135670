// Package database opens the shared sqlx connection for the configured
// driver. Placeholder style differences between drivers are handled with
// sqlx's Rebind, so repository SQL is written once with `?`.
package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// Supported drivers.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/sladesk-io/sladesk/internal/config"
)

// Open connects using the configured driver and applies pool settings.
func Open(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	switch cfg.Driver {
	case "sqlite3", "postgres", "mysql":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	db, err := sqlx.Connect(cfg.Driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	} else {
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	return db, nil
}

// ConflictIgnore returns the driver-specific suffix that turns an INSERT
// into insert-if-absent against the table's unique constraints.
func ConflictIgnore(driver string) string {
	switch driver {
	case "postgres", "sqlite3":
		return "ON CONFLICT DO NOTHING"
	case "mysql":
		// MySQL has no DO NOTHING; a self-assignment keeps the row untouched.
		return "ON DUPLICATE KEY UPDATE item_id = item_id"
	default:
		return ""
	}
}
