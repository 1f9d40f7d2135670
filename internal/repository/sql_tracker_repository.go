package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sladesk-io/sladesk/internal/models"
)

// SQLTrackerRepository persists SLA trackers with sqlx. Updates are guarded
// by the version column: an UPDATE that matches zero rows lost the race.
type SQLTrackerRepository struct {
	db *sqlx.DB
}

// NewSQLTrackerRepository creates a sqlx-backed tracker repository.
func NewSQLTrackerRepository(db *sqlx.DB) *SQLTrackerRepository {
	return &SQLTrackerRepository{db: db}
}

type trackerRow struct {
	ID                     string       `db:"id"`
	ItemKind               string       `db:"item_kind"`
	ItemID                 uint         `db:"item_id"`
	TargetID               uint         `db:"target_id"`
	FirstResponseDue       time.Time    `db:"first_response_due"`
	FirstResponseCompleted sql.NullTime `db:"first_response_completed"`
	ResolutionDue          time.Time    `db:"resolution_due"`
	ResolutionCompleted    sql.NullTime `db:"resolution_completed"`
	IsPaused               bool         `db:"is_paused"`
	PausedAt               sql.NullTime `db:"paused_at"`
	TotalPausedSeconds     int64        `db:"total_paused_seconds"`
	PauseReason            string       `db:"pause_reason"`
	Version                int          `db:"version"`
	CreatedAt              time.Time    `db:"created_at"`
	UpdatedAt              time.Time    `db:"updated_at"`
}

func (row *trackerRow) toModel() (*models.SLATracker, error) {
	id, err := uuid.Parse(row.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid tracker id %q: %w", row.ID, err)
	}
	t := &models.SLATracker{
		ID:               id,
		ItemKind:         models.ItemKind(row.ItemKind),
		ItemID:           row.ItemID,
		TargetID:         row.TargetID,
		FirstResponseDue: row.FirstResponseDue,
		ResolutionDue:    row.ResolutionDue,
		IsPaused:         row.IsPaused,
		TotalPausedTime:  time.Duration(row.TotalPausedSeconds) * time.Second,
		PauseReason:      row.PauseReason,
		Version:          row.Version,
		CreatedAt:        row.CreatedAt,
		UpdatedAt:        row.UpdatedAt,
	}
	if row.FirstResponseCompleted.Valid {
		at := row.FirstResponseCompleted.Time
		t.FirstResponseCompleted = &at
	}
	if row.ResolutionCompleted.Valid {
		at := row.ResolutionCompleted.Time
		t.ResolutionCompleted = &at
	}
	if row.PausedAt.Valid {
		at := row.PausedAt.Time
		t.PausedAt = &at
	}
	return t, nil
}

// Create stores a tracker; the unique (item_kind, item_id) index enforces
// one tracker per item.
func (r *SQLTrackerRepository) Create(ctx context.Context, tracker *models.SLATracker) error {
	if tracker.ID == uuid.Nil {
		tracker.ID = uuid.New()
	}
	tracker.Version = 1
	tracker.CreatedAt = time.Now()
	tracker.UpdatedAt = tracker.CreatedAt

	query := r.db.Rebind(`
		INSERT INTO sla_trackers
			(id, item_kind, item_id, target_id,
			 first_response_due, first_response_completed,
			 resolution_due, resolution_completed,
			 is_paused, paused_at, total_paused_seconds, pause_reason,
			 version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		tracker.ID.String(), tracker.ItemKind, tracker.ItemID, tracker.TargetID,
		tracker.FirstResponseDue, nullTime(tracker.FirstResponseCompleted),
		tracker.ResolutionDue, nullTime(tracker.ResolutionCompleted),
		tracker.IsPaused, nullTime(tracker.PausedAt),
		int64(tracker.TotalPausedTime/time.Second), tracker.PauseReason,
		tracker.Version, tracker.CreatedAt, tracker.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create tracker: %w", err)
	}
	return nil
}

// GetByItem retrieves the tracker for an item.
func (r *SQLTrackerRepository) GetByItem(ctx context.Context, kind models.ItemKind, itemID uint) (*models.SLATracker, error) {
	query := r.db.Rebind(`
		SELECT id, item_kind, item_id, target_id,
		       first_response_due, first_response_completed,
		       resolution_due, resolution_completed,
		       is_paused, paused_at, total_paused_seconds, pause_reason,
		       version, created_at, updated_at
		FROM sla_trackers
		WHERE item_kind = ? AND item_id = ?
	`)
	var row trackerRow
	err := r.db.GetContext(ctx, &row, query, kind, itemID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load tracker: %w", err)
	}
	return row.toModel()
}

// Update applies a compare-and-swap write keyed on the tracker version.
func (r *SQLTrackerRepository) Update(ctx context.Context, tracker *models.SLATracker) error {
	now := time.Now()
	query := r.db.Rebind(`
		UPDATE sla_trackers SET
			first_response_completed = ?,
			resolution_completed = ?,
			is_paused = ?,
			paused_at = ?,
			total_paused_seconds = ?,
			pause_reason = ?,
			version = version + 1,
			updated_at = ?
		WHERE item_kind = ? AND item_id = ? AND version = ?
	`)
	res, err := r.db.ExecContext(ctx, query,
		nullTime(tracker.FirstResponseCompleted),
		nullTime(tracker.ResolutionCompleted),
		tracker.IsPaused, nullTime(tracker.PausedAt),
		int64(tracker.TotalPausedTime/time.Second), tracker.PauseReason,
		now,
		tracker.ItemKind, tracker.ItemID, tracker.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update tracker: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return ErrVersionConflict
	}
	tracker.Version++
	tracker.UpdatedAt = now
	return nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
