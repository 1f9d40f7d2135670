package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeekdayMapping(t *testing.T) {
	monday := WorkingHours{DayOfWeek: 0}
	sunday := WorkingHours{DayOfWeek: 6}

	assert.Equal(t, time.Monday, monday.Weekday())
	assert.Equal(t, time.Sunday, sunday.Weekday())

	assert.Equal(t, 0, MondayIndex(time.Monday))
	assert.Equal(t, 4, MondayIndex(time.Friday))
	assert.Equal(t, 6, MondayIndex(time.Sunday))

	// Round trip both directions.
	for day := 0; day < 7; day++ {
		w := WorkingHours{DayOfWeek: day}
		assert.Equal(t, day, MondayIndex(w.Weekday()))
	}
}

func TestParseClock(t *testing.T) {
	h, m, err := ParseClock("08:30")
	require.NoError(t, err)
	assert.Equal(t, 8, h)
	assert.Equal(t, 30, m)

	_, _, err = ParseClock("24:00")
	assert.Error(t, err)

	_, _, err = ParseClock("not a clock")
	assert.Error(t, err)
}

func TestHolidayMatches(t *testing.T) {
	christmas := Holiday{
		Name:        "Christmas",
		Date:        time.Date(2020, 12, 25, 0, 0, 0, 0, time.UTC),
		IsRecurring: true,
		IsActive:    true,
	}
	oneOff := Holiday{
		Name:     "Office move",
		Date:     time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		IsActive: true,
	}

	assert.True(t, christmas.Matches(time.Date(2025, 12, 25, 10, 0, 0, 0, time.UTC)))
	assert.False(t, christmas.Matches(time.Date(2025, 12, 24, 10, 0, 0, 0, time.UTC)))

	assert.True(t, oneOff.Matches(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)))
	assert.False(t, oneOff.Matches(time.Date(2026, 6, 2, 9, 0, 0, 0, time.UTC)))

	t.Run("inactive never matches", func(t *testing.T) {
		inactive := christmas
		inactive.IsActive = false
		assert.False(t, inactive.Matches(time.Date(2025, 12, 25, 0, 0, 0, 0, time.UTC)))
	})
}
