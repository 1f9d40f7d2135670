package models

import (
	"time"
)

// ItemKind distinguishes the two monitored work item types.
type ItemKind string

const (
	KindTicket ItemKind = "ticket"
	KindTask   ItemKind = "task"
)

// Ticket statuses considered in-flight for SLA purposes.
var ActiveTicketStatuses = []string{"unassigned", "assigned", "in_progress", "hold"}

// Task statuses considered in-flight for SLA purposes.
var ActiveTaskStatuses = []string{"open", "in_progress", "hold"}

// Item is the sweep's view of a ticket or task: identity, priority, SLA
// assignment, lifecycle timestamps, and the recipient data notifications
// need. The full ticket domain lives outside this engine.
type Item struct {
	Kind    ItemKind `json:"kind"`
	ID      uint     `json:"id"`
	TrackID string   `json:"track_id"` // human-facing number, e.g. "TKT-1042"
	Title   string   `json:"title"`

	Scope    Scope  `json:"scope,omitempty"`
	Priority string `json:"priority"`
	Status   string `json:"status"`
	SLAID    *uint  `json:"sla_id,omitempty"`

	CreatedAt       time.Time  `json:"created_at"`
	FirstResponseAt *time.Time `json:"first_response_at,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`

	IsSLAPaused bool `json:"is_sla_paused"`

	AssigneeEmail      string   `json:"assignee_email,omitempty"`
	DepartmentAgents   []string `json:"department_agents,omitempty"`
	BusinessOwnerEmail string   `json:"business_owner_email,omitempty"`
}

// HasSLA reports whether an SLA definition is assigned.
func (i *Item) HasSLA() bool {
	return i.SLAID != nil && *i.SLAID > 0
}

// IsResolvedStatus reports whether the item has reached a terminal state.
func (i *Item) IsResolvedStatus() bool {
	switch i.Status {
	case "resolved", "closed", "completed", "cancelled":
		return true
	}
	return false
}

// OnHold reports whether the item sits in its hold state.
func (i *Item) OnHold() bool {
	return i.Status == "hold"
}
