package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sladesk-io/sladesk/internal/models"
)

// Mon-Fri 09:00-17:00.
func weekdayRows() []models.WorkingHours {
	rows := make([]models.WorkingHours, 0, 5)
	for day := 0; day < 5; day++ {
		rows = append(rows, models.WorkingHours{
			DayOfWeek:    day,
			StartTime:    "09:00",
			EndTime:      "17:00",
			IsWorkingDay: true,
		})
	}
	return rows
}

func testCalendar(t *testing.T, holidays ...models.Holiday) *Calendar {
	t.Helper()
	return NewCalendar(weekdayRows(), holidays, true, nil)
}

func TestDueDateCalendarTime(t *testing.T) {
	calc := NewCalculator(testCalendar(t), nil)
	start := time.Date(2025, 3, 7, 16, 30, 0, 0, time.UTC) // Friday

	t.Run("calendar-hours target is plain addition", func(t *testing.T) {
		due := calc.DueDate(start, 120, false)
		assert.Equal(t, start.Add(2*time.Hour), due)
	})

	t.Run("empty calendar falls back to plain addition", func(t *testing.T) {
		empty := NewCalculator(NewCalendar(nil, nil, true, nil), nil)
		due := empty.DueDate(start, 120, true)
		assert.Equal(t, start.Add(2*time.Hour), due)
	})
}

func TestDueDateBusinessHours(t *testing.T) {
	calc := NewCalculator(testCalendar(t), nil)

	t.Run("fits inside the current window", func(t *testing.T) {
		start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC) // Monday
		due := calc.DueDate(start, 60, true)
		assert.Equal(t, time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC), due)
	})

	t.Run("spills over a weekend", func(t *testing.T) {
		start := time.Date(2025, 3, 7, 16, 30, 0, 0, time.UTC) // Friday
		due := calc.DueDate(start, 120, true)
		// 30 minutes Friday, remaining 90 from Monday 09:00
		assert.Equal(t, time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC), due)
	})

	t.Run("start before the window snaps to window open", func(t *testing.T) {
		start := time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC) // Monday
		due := calc.DueDate(start, 30, true)
		assert.Equal(t, time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), due)
	})

	t.Run("start on a weekend snaps to Monday", func(t *testing.T) {
		start := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC) // Saturday
		due := calc.DueDate(start, 60, true)
		assert.Equal(t, time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC), due)
	})

	t.Run("spans multiple working days", func(t *testing.T) {
		start := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) // Monday
		due := calc.DueDate(start, 240, true)
		// 2h Monday, remaining 2h from Tuesday 09:00
		assert.Equal(t, time.Date(2025, 3, 11, 11, 0, 0, 0, time.UTC), due)
	})

	t.Run("holiday Monday pushes work to Tuesday", func(t *testing.T) {
		holiday := models.Holiday{
			Name:     "Bank holiday",
			Date:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
			IsActive: true,
		}
		calcH := NewCalculator(testCalendar(t, holiday), nil)
		start := time.Date(2025, 3, 7, 16, 30, 0, 0, time.UTC) // Friday
		due := calcH.DueDate(start, 120, true)
		assert.Equal(t, time.Date(2025, 3, 11, 10, 30, 0, 0, time.UTC), due)
	})

	t.Run("zero minutes returns start", func(t *testing.T) {
		start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
		assert.Equal(t, start, calc.DueDate(start, 0, true))
	})
}

func TestDueDateFallsBackWhenCalendarIsUnsatisfiable(t *testing.T) {
	// A single recurring weekly "holiday"-free calendar can't be built to
	// fail, but holidays on every scanned day can: make the only working
	// day a permanent holiday.
	rows := []models.WorkingHours{
		{DayOfWeek: 0, StartTime: "09:00", EndTime: "17:00", IsWorkingDay: true},
	}
	var holidays []models.Holiday
	// Cover every Monday inside the 14-day scan horizon.
	for _, d := range []int{10, 17, 24} {
		holidays = append(holidays, models.Holiday{
			Name:     "closed",
			Date:     time.Date(2025, 3, d, 0, 0, 0, 0, time.UTC),
			IsActive: true,
		})
	}
	calc := NewCalculator(NewCalendar(rows, holidays, true, nil), nil)

	start := time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC) // Saturday
	due := calc.DueDate(start, 60, true)
	assert.Equal(t, start.Add(time.Hour), due, "unsatisfiable calendar degrades to plain addition")
}

func TestElapsedWorkingMinutes(t *testing.T) {
	calc := NewCalculator(testCalendar(t), nil)

	t.Run("weekend gap excluded", func(t *testing.T) {
		start := time.Date(2025, 3, 7, 16, 30, 0, 0, time.UTC) // Friday
		end := time.Date(2025, 3, 10, 10, 30, 0, 0, time.UTC)  // Monday
		assert.Equal(t, 120, calc.ElapsedWorkingMinutes(start, end))
	})

	t.Run("within one window", func(t *testing.T) {
		start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		end := time.Date(2025, 3, 10, 12, 15, 0, 0, time.UTC)
		assert.Equal(t, 195, calc.ElapsedWorkingMinutes(start, end))
	})

	t.Run("end before start", func(t *testing.T) {
		now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
		assert.Equal(t, 0, calc.ElapsedWorkingMinutes(now, now.Add(-time.Hour)))
	})

	t.Run("empty calendar counts wall-clock minutes", func(t *testing.T) {
		empty := NewCalculator(NewCalendar(nil, nil, true, nil), nil)
		start := time.Date(2025, 3, 8, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, 90, empty.ElapsedWorkingMinutes(start, start.Add(90*time.Minute)))
	})
}

func TestCalendarWorkingInstant(t *testing.T) {
	calendar := testCalendar(t)

	assert.True(t, calendar.IsWorkingInstant(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)))
	assert.False(t, calendar.IsWorkingInstant(time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)), "window end is exclusive")
	assert.False(t, calendar.IsWorkingInstant(time.Date(2025, 3, 8, 12, 0, 0, 0, time.UTC)), "Saturday")

	t.Run("empty calendar is always working", func(t *testing.T) {
		empty := NewCalendar(nil, nil, true, nil)
		assert.True(t, empty.IsWorkingInstant(time.Date(2025, 3, 8, 3, 0, 0, 0, time.UTC)))
	})
}
