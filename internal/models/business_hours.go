package models

import (
	"fmt"
	"time"
)

// WorkingHours defines the working window for one weekday. Multiple rows
// form a weekly calendar; a weekday with no row is not a working day.
// Weekday numbering follows the stored convention: 0=Monday .. 6=Sunday.
type WorkingHours struct {
	ID           uint   `json:"id"`
	Scope        Scope  `json:"scope,omitempty"`
	Name         string `json:"name,omitempty"`
	DayOfWeek    int    `json:"day_of_week"`
	StartTime    string `json:"start_time"` // "HH:MM"
	EndTime      string `json:"end_time"`   // "HH:MM"
	IsWorkingDay bool   `json:"is_working_day"`
}

// Weekday maps the stored Monday-based day number to time.Weekday.
func (w *WorkingHours) Weekday() time.Weekday {
	return time.Weekday((w.DayOfWeek + 1) % 7)
}

// MondayIndex converts a time.Weekday to the stored Monday-based numbering.
func MondayIndex(d time.Weekday) int {
	return (int(d) + 6) % 7
}

// ParseClock parses an "HH:MM" clock value into hour and minute.
func ParseClock(s string) (hour, minute int, err error) {
	if _, err = fmt.Sscanf(s, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("invalid clock value %q: %w", s, err)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("clock value %q out of range", s)
	}
	return hour, minute, nil
}

// Holiday is a non-working date. Recurring holidays match by month and day
// every year; non-recurring holidays match the exact date.
type Holiday struct {
	ID          uint      `json:"id"`
	Scope       Scope     `json:"scope,omitempty"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	IsRecurring bool      `json:"is_recurring"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// Matches reports whether the holiday excludes the given date.
func (h *Holiday) Matches(date time.Time) bool {
	if !h.IsActive {
		return false
	}
	if h.IsRecurring {
		return h.Date.Month() == date.Month() && h.Date.Day() == date.Day()
	}
	hy, hm, hd := h.Date.Date()
	dy, dm, dd := date.Date()
	return hy == dy && hm == dm && hd == dd
}
