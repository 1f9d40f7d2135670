package sla

import (
	"log"
	"time"
)

// maxWalkIterations bounds the window walk in DueDate and
// ElapsedWorkingMinutes. Each iteration consumes at least one working
// window, so any sane calendar finishes far below this.
const maxWalkIterations = 100

// Calculator turns configured SLA durations into concrete due instants.
type Calculator struct {
	calendar *Calendar
	logger   *log.Logger
}

// NewCalculator creates a calculator over the given calendar. A nil logger
// falls back to the standard logger.
func NewCalculator(calendar *Calendar, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.Default()
	}
	return &Calculator{calendar: calendar, logger: logger}
}

// DueDate returns start plus the given number of minutes. With businessOnly
// false, or with no working windows configured, this is plain calendar-time
// addition. Otherwise the walk advances through working windows only,
// skipping nights, non-working days, and holidays.
//
// If the walk cannot finish (empty calendar stretch or iteration cap) the
// calculator logs a warning and falls back to plain addition so a
// misconfigured calendar degrades to 24x7 instead of losing deadlines.
func (c *Calculator) DueDate(start time.Time, minutes int, businessOnly bool) time.Time {
	plain := start.Add(time.Duration(minutes) * time.Minute)
	if !businessOnly || c.calendar == nil || c.calendar.Empty() || minutes <= 0 {
		return plain
	}

	remaining := time.Duration(minutes) * time.Minute
	current := start

	for i := 0; i < maxWalkIterations; i++ {
		next, err := c.calendar.NextWindowStart(current)
		if err != nil {
			c.logger.Printf("Warning: business-hours walk failed (%v); falling back to calendar time", err)
			return plain
		}
		current = next

		_, windowEnd, ok := c.calendar.Window(current)
		if !ok {
			// NextWindowStart only lands on working days.
			break
		}

		available := windowEnd.Sub(current)
		if remaining <= available {
			return current.Add(remaining)
		}
		remaining -= available
		current = windowEnd
	}

	c.logger.Printf("Warning: business-hours walk exceeded %d iterations for start=%s minutes=%d; falling back to calendar time",
		maxWalkIterations, start.Format(time.RFC3339), minutes)
	return plain
}

// ElapsedWorkingMinutes returns the number of working minutes between start
// and end. With no working windows configured it counts every minute.
func (c *Calculator) ElapsedWorkingMinutes(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	if c.calendar == nil || c.calendar.Empty() {
		return int(end.Sub(start) / time.Minute)
	}

	var elapsed time.Duration
	current := start

	for i := 0; i < maxWalkIterations; i++ {
		next, err := c.calendar.NextWindowStart(current)
		if err != nil || !next.Before(end) {
			return int(elapsed / time.Minute)
		}
		current = next

		_, windowEnd, ok := c.calendar.Window(current)
		if !ok {
			break
		}
		if windowEnd.After(end) {
			windowEnd = end
		}
		elapsed += windowEnd.Sub(current)
		current = windowEnd
		if !current.Before(end) {
			return int(elapsed / time.Minute)
		}
	}
	return int(elapsed / time.Minute)
}
