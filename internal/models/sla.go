package models

import (
	"time"
)

// Scope identifies the configuration owner for calendar and SLA lookups.
// The empty scope means single-tenant operation; a non-empty value is an
// opaque tenant identifier.
type Scope string

// DefaultScope is used when no tenant dimension exists.
const DefaultScope Scope = ""

// OperationalHours selects how due-date math advances through time.
type OperationalHours string

const (
	// HoursCalendar counts every wall-clock minute (24x7).
	HoursCalendar OperationalHours = "calendar"
	// HoursBusiness only counts configured working windows.
	HoursBusiness OperationalHours = "business"
	// HoursCustom behaves like business hours against a custom calendar.
	HoursCustom OperationalHours = "custom"
)

// Dimension names one of the tracked SLA deadlines.
type Dimension string

const (
	DimensionFirstResponse Dimension = "first_response"
	DimensionNextResponse  Dimension = "next_response"
	DimensionResolution    Dimension = "resolution"
)

// TimeUnit is the unit attached to a configured SLA duration.
type TimeUnit string

const (
	UnitMinutes TimeUnit = "minutes"
	UnitHours   TimeUnit = "hours"
	UnitDays    TimeUnit = "days"
	UnitWeeks   TimeUnit = "weeks"
)

// MaxSLAMinutes caps converted durations at roughly five years so a
// misconfigured target cannot overflow time arithmetic.
const MaxSLAMinutes = 5 * 365 * 24 * 60

// Minutes converts a duration in the given unit to whole minutes, capped at
// MaxSLAMinutes. Unknown units are treated as hours.
func Minutes(duration int, unit TimeUnit) int {
	var total int
	switch unit {
	case UnitMinutes:
		total = duration
	case UnitHours:
		total = duration * 60
	case UnitDays:
		total = duration * 24 * 60
	case UnitWeeks:
		total = duration * 7 * 24 * 60
	default:
		total = duration * 60
	}
	if total > MaxSLAMinutes {
		return MaxSLAMinutes
	}
	return total
}

// SLADefinition is a named service level agreement with per-priority targets.
type SLADefinition struct {
	ID               uint             `json:"id"`
	Scope            Scope            `json:"scope,omitempty"`
	Name             string           `json:"name"`
	Description      string           `json:"description,omitempty"`
	OperationalHours OperationalHours `json:"operational_hours"`
	IsActive         bool             `json:"is_active"`
	Targets          []SLATarget      `json:"targets,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// SLATarget holds the deadlines for one priority class of a definition.
// FirstResponseTime and NextResponseTime are optional (zero = not tracked);
// ResolutionTime is required.
type SLATarget struct {
	ID                uint                 `json:"id"`
	SLAID             uint                 `json:"sla_id"`
	Priority          string               `json:"priority"`
	FirstResponseTime int                  `json:"first_response_time,omitempty"`
	FirstResponseUnit TimeUnit             `json:"first_response_unit,omitempty"`
	NextResponseTime  int                  `json:"next_response_time,omitempty"`
	NextResponseUnit  TimeUnit             `json:"next_response_unit,omitempty"`
	ResolutionTime    int                  `json:"resolution_time"`
	ResolutionUnit    TimeUnit             `json:"resolution_unit"`
	OperationalHours  OperationalHours     `json:"operational_hours"`
	Reminders         []SLAReminder        `json:"reminders,omitempty"`
	EscalationLevels  []SLAEscalationLevel `json:"escalation_levels,omitempty"`
}

// BusinessHoursOnly reports whether this target walks working time.
func (t *SLATarget) BusinessHoursOnly() bool {
	return t.OperationalHours == HoursBusiness || t.OperationalHours == HoursCustom
}

// HasDimension reports whether the target tracks the given dimension.
func (t *SLATarget) HasDimension(d Dimension) bool {
	switch d {
	case DimensionFirstResponse:
		return t.FirstResponseTime > 0
	case DimensionNextResponse:
		return t.NextResponseTime > 0
	case DimensionResolution:
		return t.ResolutionTime > 0
	}
	return false
}

// DimensionMinutes returns the configured duration for a dimension in
// minutes, or 0 when the dimension is not tracked.
func (t *SLATarget) DimensionMinutes(d Dimension) int {
	switch d {
	case DimensionFirstResponse:
		if t.FirstResponseTime > 0 {
			return Minutes(t.FirstResponseTime, t.FirstResponseUnit)
		}
	case DimensionNextResponse:
		if t.NextResponseTime > 0 {
			return Minutes(t.NextResponseTime, t.NextResponseUnit)
		}
	case DimensionResolution:
		if t.ResolutionTime > 0 {
			return Minutes(t.ResolutionTime, t.ResolutionUnit)
		}
	}
	return 0
}

// SLAReminder fires inside a lead window before a dimension's due instant.
// Reminders are window-gated, not deduplicated: at sweep granularity a
// reminder may re-fire on each run while now is inside [due-lead, due).
type SLAReminder struct {
	ID           uint      `json:"id"`
	TargetID     uint      `json:"target_id"`
	Dimension    Dimension `json:"dimension"`
	LeadTime     int       `json:"lead_time"`
	LeadUnit     TimeUnit  `json:"lead_unit"`
	NotifyGroups []string  `json:"notify_groups,omitempty"`
	NotifyAgents []string  `json:"notify_agents,omitempty"`
	IsActive     bool      `json:"is_active"`
}

// Lead returns the reminder window as a duration.
func (r *SLAReminder) Lead() time.Duration {
	return time.Duration(Minutes(r.LeadTime, r.LeadUnit)) * time.Minute
}

// SLAEscalationLevel is one rung of the ordered escalation ladder for a
// target dimension. Levels are evaluated in ascending order but each level
// is independently eligible; level 2 does not require level 1 to have fired.
type SLAEscalationLevel struct {
	ID               uint      `json:"id"`
	TargetID         uint      `json:"target_id"`
	Dimension        Dimension `json:"dimension"`
	Level            int       `json:"level"`
	TriggerTime      int       `json:"trigger_time,omitempty"`
	TriggerUnit      TimeUnit  `json:"trigger_unit,omitempty"`
	EscalateToGroups []string  `json:"escalate_to_groups,omitempty"`
	EscalateToAgents []string  `json:"escalate_to_agents,omitempty"`
	EmailSubject     string    `json:"email_subject,omitempty"`
	IsActive         bool      `json:"is_active"`
}
