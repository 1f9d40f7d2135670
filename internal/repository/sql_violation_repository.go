package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sladesk-io/sladesk/internal/database"
	"github.com/sladesk-io/sladesk/internal/models"
)

// SQLViolationRepository persists violation records with sqlx. The unique
// partial key (item_kind, item_id, target_id, dimension, is_resolved=false)
// plus a conflict-ignored insert makes Record atomic under concurrent
// sweeps: the losing writer's insert affects zero rows.
type SQLViolationRepository struct {
	db *sqlx.DB
}

// NewSQLViolationRepository creates a sqlx-backed violation repository.
func NewSQLViolationRepository(db *sqlx.DB) *SQLViolationRepository {
	return &SQLViolationRepository{db: db}
}

type violationRow struct {
	ID         string       `db:"id"`
	ItemKind   string       `db:"item_kind"`
	ItemID     uint         `db:"item_id"`
	TargetID   uint         `db:"target_id"`
	Dimension  string       `db:"dimension"`
	TargetTime time.Time    `db:"target_time"`
	ActualTime sql.NullTime `db:"actual_time"`
	BreachTime time.Time    `db:"breach_time"`
	IsResolved bool         `db:"is_resolved"`
	CreatedAt  time.Time    `db:"created_at"`
}

func (row *violationRow) toModel() (models.ViolationRecord, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return models.ViolationRecord{}, fmt.Errorf("invalid violation id %q: %w", row.ID, err)
	}
	rec := models.ViolationRecord{
		ID:         id,
		ItemKind:   models.ItemKind(row.ItemKind),
		ItemID:     row.ItemID,
		TargetID:   row.TargetID,
		Dimension:  models.Dimension(row.Dimension),
		TargetTime: row.TargetTime,
		BreachTime: row.BreachTime,
		IsResolved: row.IsResolved,
		CreatedAt:  row.CreatedAt,
	}
	if row.ActualTime.Valid {
		at := row.ActualTime.Time
		rec.ActualTime = &at
	}
	return rec, nil
}

// Exists reports whether an unresolved record occupies the key.
func (r *SQLViolationRepository) Exists(ctx context.Context, key models.ViolationKey) (bool, error) {
	query := r.db.Rebind(`
		SELECT 1 FROM sla_violations
		WHERE item_kind = ? AND item_id = ? AND target_id = ? AND dimension = ? AND is_resolved = FALSE
		LIMIT 1
	`)
	var one int
	err := r.db.QueryRowxContext(ctx, query, key.ItemKind, key.ItemID, key.TargetID, key.Dimension).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check violation: %w", err)
	}
	return true, nil
}

// Record inserts the violation unless its key is already occupied.
func (r *SQLViolationRepository) Record(ctx context.Context, v *models.ViolationRecord) (bool, error) {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	v.CreatedAt = time.Now()

	suffix := database.ConflictIgnore(r.db.DriverName())
	query := r.db.Rebind(fmt.Sprintf(`
		INSERT INTO sla_violations
			(id, item_kind, item_id, target_id, dimension, target_time, breach_time, is_resolved, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, FALSE, ?)
		%s
	`, suffix))

	res, err := r.db.ExecContext(ctx, query,
		v.ID.String(), v.ItemKind, v.ItemID, v.TargetID, v.Dimension,
		v.TargetTime, v.BreachTime, v.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record violation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}
	return affected > 0, nil
}

// Resolve marks the unresolved record at key as resolved.
func (r *SQLViolationRepository) Resolve(ctx context.Context, key models.ViolationKey, actual time.Time) error {
	query := r.db.Rebind(`
		UPDATE sla_violations
		SET is_resolved = TRUE, actual_time = ?
		WHERE item_kind = ? AND item_id = ? AND target_id = ? AND dimension = ? AND is_resolved = FALSE
	`)
	res, err := r.db.ExecContext(ctx, query, actual, key.ItemKind, key.ItemID, key.TargetID, key.Dimension)
	if err != nil {
		return fmt.Errorf("failed to resolve violation: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// ListByItem returns all records for an item, resolved included.
func (r *SQLViolationRepository) ListByItem(ctx context.Context, kind models.ItemKind, itemID uint) ([]models.ViolationRecord, error) {
	query := r.db.Rebind(`
		SELECT id, item_kind, item_id, target_id, dimension,
		       target_time, actual_time, breach_time, is_resolved, created_at
		FROM sla_violations
		WHERE item_kind = ? AND item_id = ?
		ORDER BY created_at ASC
	`)
	var rows []violationRow
	if err := r.db.SelectContext(ctx, &rows, query, kind, itemID); err != nil {
		return nil, fmt.Errorf("failed to list violations: %w", err)
	}
	out := make([]models.ViolationRecord, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}
