package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Shared DDL, written in the subset all three supported drivers accept.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS sla_trackers (
		id VARCHAR(36) PRIMARY KEY,
		item_kind VARCHAR(16) NOT NULL,
		item_id BIGINT NOT NULL,
		target_id BIGINT NOT NULL,
		first_response_due TIMESTAMP NOT NULL,
		first_response_completed TIMESTAMP NULL,
		resolution_due TIMESTAMP NOT NULL,
		resolution_completed TIMESTAMP NULL,
		is_paused BOOLEAN NOT NULL DEFAULT FALSE,
		paused_at TIMESTAMP NULL,
		total_paused_seconds BIGINT NOT NULL DEFAULT 0,
		pause_reason TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		CONSTRAINT uq_sla_trackers_item UNIQUE (item_kind, item_id)
	)`,
}

// violationTable enforces "at most one unresolved record per key". Postgres
// and sqlite express that directly with a partial unique index; MySQL has no
// partial indexes, so the flag joins the unique key there (which also limits
// each key to one resolved row, acceptable since re-breach after resolution
// only happens on reopen).
func violationTable(driver string) []string {
	table := `CREATE TABLE IF NOT EXISTS sla_violations (
		id VARCHAR(36) PRIMARY KEY,
		item_kind VARCHAR(16) NOT NULL,
		item_id BIGINT NOT NULL,
		target_id BIGINT NOT NULL,
		dimension VARCHAR(20) NOT NULL,
		target_time TIMESTAMP NOT NULL,
		actual_time TIMESTAMP NULL,
		breach_time TIMESTAMP NOT NULL,
		is_resolved BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMP NOT NULL%s
	)`

	if driver == "mysql" {
		constraint := ",\n\t\tCONSTRAINT uq_sla_violations_dedup UNIQUE (item_kind, item_id, target_id, dimension, is_resolved)"
		return []string{fmt.Sprintf(table, constraint)}
	}
	return []string{
		fmt.Sprintf(table, ""),
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_sla_violations_open
			ON sla_violations (item_kind, item_id, target_id, dimension)
			WHERE is_resolved = FALSE`,
	}
}

// EnsureSchema creates the tracker and violation tables if absent.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	stmts := append([]string{}, schemaStatements...)
	stmts = append(stmts, violationTable(db.DriverName())...)
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
