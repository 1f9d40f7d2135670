package models

import (
	"time"

	"github.com/google/uuid"
)

// ViolationRecord is the durable dedup marker for a breach. At most one
// unresolved record may exist per (item kind, item, target, dimension);
// the sweep relies on this to fire each breach notification at most once.
type ViolationRecord struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ItemKind  ItemKind  `json:"item_kind" db:"item_kind"`
	ItemID    uint      `json:"item_id" db:"item_id"`
	TargetID  uint      `json:"target_id" db:"target_id"`
	Dimension Dimension `json:"dimension" db:"dimension"`

	TargetTime time.Time  `json:"target_time" db:"target_time"`
	ActualTime *time.Time `json:"actual_time,omitempty" db:"actual_time"`
	BreachTime time.Time  `json:"breach_time" db:"breach_time"`

	IsResolved bool      `json:"is_resolved" db:"is_resolved"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
}

// ViolationKey identifies the dedup slot for a violation.
type ViolationKey struct {
	ItemKind  ItemKind
	ItemID    uint
	TargetID  uint
	Dimension Dimension
}

// Key returns the record's dedup slot.
func (v *ViolationRecord) Key() ViolationKey {
	return ViolationKey{ItemKind: v.ItemKind, ItemID: v.ItemID, TargetID: v.TargetID, Dimension: v.Dimension}
}
