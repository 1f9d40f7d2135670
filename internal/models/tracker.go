package models

import (
	"time"

	"github.com/google/uuid"
)

// SLAStatus classifies a tracked dimension at read time.
type SLAStatus string

const (
	StatusWithinSLA         SLAStatus = "within_sla"
	StatusApproachingBreach SLAStatus = "approaching_breach"
	StatusBreached          SLAStatus = "breached"
	StatusResolved          SLAStatus = "resolved"
)

// SLATracker is the per-item mutable SLA state, created once when an item is
// first assigned an SLA and mutated by pause/resume and completion events.
//
// The raw due instants are fixed at assignment time. All pause adjustment
// lives in TotalPausedTime; resume must never extend the raw due instants,
// otherwise every pause would be counted twice through EffectiveDue.
type SLATracker struct {
	ID       uuid.UUID `json:"id" db:"id"`
	ItemKind ItemKind  `json:"item_kind" db:"item_kind"`
	ItemID   uint      `json:"item_id" db:"item_id"`
	TargetID uint      `json:"target_id" db:"target_id"`

	FirstResponseDue       time.Time  `json:"first_response_due" db:"first_response_due"`
	FirstResponseCompleted *time.Time `json:"first_response_completed,omitempty" db:"first_response_completed"`

	ResolutionDue       time.Time  `json:"resolution_due" db:"resolution_due"`
	ResolutionCompleted *time.Time `json:"resolution_completed,omitempty" db:"resolution_completed"`

	IsPaused        bool          `json:"is_paused" db:"is_paused"`
	PausedAt        *time.Time    `json:"paused_at,omitempty" db:"paused_at"`
	TotalPausedTime time.Duration `json:"total_paused_time" db:"total_paused_time"`
	PauseReason     string        `json:"pause_reason,omitempty" db:"pause_reason"`

	// Version guards concurrent mutation; repository updates are
	// compare-and-swap on this field.
	Version   int       `json:"version" db:"version"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RawDue returns the unadjusted due instant for a dimension.
func (t *SLATracker) RawDue(d Dimension) time.Time {
	if d == DimensionFirstResponse {
		return t.FirstResponseDue
	}
	return t.ResolutionDue
}

// CompletedAt returns the completion instant for a dimension, if recorded.
func (t *SLATracker) CompletedAt(d Dimension) *time.Time {
	if d == DimensionFirstResponse {
		return t.FirstResponseCompleted
	}
	return t.ResolutionCompleted
}

// EffectiveDue is the due instant adjusted for accumulated pause time plus
// the in-flight pause, if any. Breach comparisons always use this value.
func (t *SLATracker) EffectiveDue(d Dimension, now time.Time) time.Time {
	due := t.RawDue(d).Add(t.TotalPausedTime)
	if t.IsPaused && t.PausedAt != nil {
		due = due.Add(now.Sub(*t.PausedAt))
	}
	return due
}

// Classify returns the read-time status of a dimension. warnWindow is the
// approaching-breach lead before the effective due instant.
func (t *SLATracker) Classify(d Dimension, now time.Time, warnWindow time.Duration) SLAStatus {
	if done := t.CompletedAt(d); done != nil {
		return StatusResolved
	}
	due := t.EffectiveDue(d, now)
	if !now.Before(due) {
		return StatusBreached
	}
	if warnWindow > 0 && !now.Before(due.Add(-warnWindow)) {
		return StatusApproachingBreach
	}
	return StatusWithinSLA
}
