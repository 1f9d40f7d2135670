// Package repository defines the storage interfaces the SLA engine consumes
// and provides in-memory and sqlx-backed implementations.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/sladesk-io/sladesk/internal/models"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when a create collides with an existing row.
	ErrAlreadyExists = errors.New("record already exists")
	// ErrVersionConflict is returned when a compare-and-swap update loses.
	ErrVersionConflict = errors.New("version conflict")
)

// SLARepository stores SLA definitions, targets, and the business calendar.
type SLARepository interface {
	CreateSLA(ctx context.Context, sla *models.SLADefinition) error
	GetSLA(ctx context.Context, id uint) (*models.SLADefinition, error)
	GetActiveSLAs(ctx context.Context, scope models.Scope) ([]models.SLADefinition, error)
	UpdateSLA(ctx context.Context, sla *models.SLADefinition) error

	// FindTarget resolves the target row for a priority on an SLA.
	// Returns ErrNotFound when neither the priority nor any fallback matches.
	FindTarget(ctx context.Context, slaID uint, priority string) (*models.SLATarget, error)
	GetTarget(ctx context.Context, id uint) (*models.SLATarget, error)

	ReplaceWorkingHours(ctx context.Context, scope models.Scope, rows []models.WorkingHours) error
	GetWorkingHours(ctx context.Context, scope models.Scope) ([]models.WorkingHours, error)
	AddHoliday(ctx context.Context, holiday *models.Holiday) error
	GetHolidays(ctx context.Context, scope models.Scope) ([]models.Holiday, error)
}

// ItemRepository is the engine's read/write view of tickets and tasks. The
// full ticket domain owns these records; the engine only reads monitoring
// fields and writes back completion timestamps and the pause flag.
type ItemRepository interface {
	// ActiveItems returns in-flight items of the kind that have an SLA
	// assigned (active status set per kind, see models).
	ActiveItems(ctx context.Context, scope models.Scope, kind models.ItemKind) ([]models.Item, error)
	GetItem(ctx context.Context, kind models.ItemKind, id uint) (*models.Item, error)
	RecordFirstResponse(ctx context.Context, kind models.ItemKind, id uint, at time.Time) error
	RecordResolved(ctx context.Context, kind models.ItemKind, id uint, at time.Time) error
	SetSLAPaused(ctx context.Context, kind models.ItemKind, id uint, paused bool) error
}

// TrackerRepository stores per-item SLA trackers. Update is compare-and-swap
// on the tracker version so a pause and a sweep-driven mutation cannot lose
// each other's writes.
type TrackerRepository interface {
	Create(ctx context.Context, tracker *models.SLATracker) error
	GetByItem(ctx context.Context, kind models.ItemKind, itemID uint) (*models.SLATracker, error)
	Update(ctx context.Context, tracker *models.SLATracker) error
}

// ViolationRepository is the dedup ledger behind breach notifications.
// Record must be atomic insert-if-absent: two concurrent sweeps that both
// observe "no record" still produce exactly one stored row.
type ViolationRepository interface {
	// Exists reports whether an unresolved record occupies the key.
	Exists(ctx context.Context, key models.ViolationKey) (bool, error)
	// Record inserts the violation unless its key is already occupied by an
	// unresolved record. Returns true when this call created the row.
	Record(ctx context.Context, v *models.ViolationRecord) (bool, error)
	// Resolve marks the unresolved record at key as resolved.
	Resolve(ctx context.Context, key models.ViolationKey, actual time.Time) error
	ListByItem(ctx context.Context, kind models.ItemKind, itemID uint) ([]models.ViolationRecord, error)
}
