// Package sla implements due-date calculation, per-item tracking, and the
// periodic compliance sweep.
package sla

import (
	"fmt"
	"log"
	"time"

	"github.com/rickar/cal/v2"

	"github.com/sladesk-io/sladesk/internal/models"
)

// maxDayScan bounds the search for the next working day. A calendar with no
// working day inside two weeks is treated as misconfigured.
const maxDayScan = 14

type dayWindow struct {
	startHour, startMin int
	endHour, endMin     int
}

// Calendar answers working-time questions for one scope: per-weekday windows
// from the configured rows plus holiday exclusion through rickar/cal.
type Calendar struct {
	days            map[int]dayWindow // keyed by Monday-based weekday
	holidays        *cal.Calendar
	includeHolidays bool
	logger          *log.Logger
}

// NewCalendar builds a calendar from working-hour rows and holidays. Rows
// with unparseable clock values are skipped with a warning. A nil logger
// falls back to the standard logger.
func NewCalendar(rows []models.WorkingHours, holidays []models.Holiday, includeHolidays bool, logger *log.Logger) *Calendar {
	if logger == nil {
		logger = log.Default()
	}
	c := &Calendar{
		days:            make(map[int]dayWindow),
		holidays:        &cal.Calendar{Name: "sla", Cacheable: true},
		includeHolidays: includeHolidays,
		logger:          logger,
	}

	for _, row := range rows {
		if !row.IsWorkingDay {
			continue
		}
		sh, sm, err := models.ParseClock(row.StartTime)
		if err != nil {
			logger.Printf("Skipping working hours row for day %d: %v", row.DayOfWeek, err)
			continue
		}
		eh, em, err := models.ParseClock(row.EndTime)
		if err != nil {
			logger.Printf("Skipping working hours row for day %d: %v", row.DayOfWeek, err)
			continue
		}
		if eh*60+em <= sh*60+sm {
			logger.Printf("Skipping working hours row for day %d: window %s-%s is empty", row.DayOfWeek, row.StartTime, row.EndTime)
			continue
		}
		c.days[row.DayOfWeek] = dayWindow{startHour: sh, startMin: sm, endHour: eh, endMin: em}
	}

	for i := range holidays {
		h := holidays[i]
		if !h.IsActive {
			continue
		}
		entry := &cal.Holiday{
			Name:  h.Name,
			Type:  cal.ObservancePublic,
			Month: h.Date.Month(),
			Day:   h.Date.Day(),
			Func:  cal.CalcDayOfMonth,
		}
		if !h.IsRecurring {
			entry.StartYear = h.Date.Year()
			entry.EndYear = h.Date.Year()
		}
		c.holidays.AddHoliday(entry)
	}

	return c
}

// Empty reports whether no working windows are configured. Callers fall back
// to plain calendar-time arithmetic in that case.
func (c *Calendar) Empty() bool {
	return len(c.days) == 0
}

// IsHoliday reports whether the date falls on a configured holiday.
func (c *Calendar) IsHoliday(date time.Time) bool {
	if !c.includeHolidays {
		return false
	}
	actual, observed, _ := c.holidays.IsHoliday(date)
	return actual || observed
}

// IsWorkingDay reports whether the date is a configured working day and not
// a holiday.
func (c *Calendar) IsWorkingDay(date time.Time) bool {
	if _, ok := c.days[models.MondayIndex(date.Weekday())]; !ok {
		return false
	}
	return !c.IsHoliday(date)
}

// Window returns the working window [start, end) for the instant's date.
// ok is false on non-working days.
func (c *Calendar) Window(t time.Time) (start, end time.Time, ok bool) {
	w, found := c.days[models.MondayIndex(t.Weekday())]
	if !found || c.IsHoliday(t) {
		return time.Time{}, time.Time{}, false
	}
	y, m, d := t.Date()
	start = time.Date(y, m, d, w.startHour, w.startMin, 0, 0, t.Location())
	end = time.Date(y, m, d, w.endHour, w.endMin, 0, 0, t.Location())
	return start, end, true
}

// IsWorkingInstant reports whether t falls inside a working window. An empty
// calendar is treated as always-working.
func (c *Calendar) IsWorkingInstant(t time.Time) bool {
	if c.Empty() {
		return true
	}
	start, end, ok := c.Window(t)
	if !ok {
		return false
	}
	return !t.Before(start) && t.Before(end)
}

// NextWindowStart returns the start of the first working window at or after
// t. Searching is bounded to maxDayScan days.
func (c *Calendar) NextWindowStart(t time.Time) (time.Time, error) {
	// Same day, before or inside the window.
	if start, end, ok := c.Window(t); ok && t.Before(end) {
		if t.Before(start) {
			return start, nil
		}
		return t, nil
	}

	day := t
	for i := 0; i < maxDayScan; i++ {
		day = day.AddDate(0, 0, 1)
		if start, _, ok := c.Window(day); ok {
			return start, nil
		}
	}
	return time.Time{}, fmt.Errorf("no working day within %d days of %s", maxDayScan, t.Format(time.RFC3339))
}
