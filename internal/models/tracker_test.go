package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEffectiveDue(t *testing.T) {
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	t.Run("no pause leaves raw due untouched", func(t *testing.T) {
		tracker := &SLATracker{ResolutionDue: base}
		assert.Equal(t, base, tracker.EffectiveDue(DimensionResolution, base.Add(time.Hour)))
	})

	t.Run("accumulated pause shifts due once", func(t *testing.T) {
		tracker := &SLATracker{
			ResolutionDue:   base,
			TotalPausedTime: 2 * time.Hour,
		}
		assert.Equal(t, base.Add(2*time.Hour), tracker.EffectiveDue(DimensionResolution, base))
	})

	t.Run("in-flight pause extends due by the elapsed pause", func(t *testing.T) {
		pausedAt := base.Add(-30 * time.Minute)
		tracker := &SLATracker{
			ResolutionDue:   base,
			TotalPausedTime: time.Hour,
			IsPaused:        true,
			PausedAt:        &pausedAt,
		}
		now := base.Add(15 * time.Minute)
		// one hour accumulated plus 45 minutes in flight
		assert.Equal(t, base.Add(time.Hour+45*time.Minute), tracker.EffectiveDue(DimensionResolution, now))
	})

	t.Run("pause and resume shifts due by P not 2P", func(t *testing.T) {
		tracker := &SLATracker{ResolutionDue: base}
		pauseStart := base.Add(-2 * time.Hour)
		pause := 40 * time.Minute

		tracker.IsPaused = true
		tracker.PausedAt = &pauseStart

		// resume: fold elapsed pause into the total only
		tracker.TotalPausedTime += pauseStart.Add(pause).Sub(pauseStart)
		tracker.IsPaused = false
		tracker.PausedAt = nil

		assert.Equal(t, base.Add(pause), tracker.EffectiveDue(DimensionResolution, base))
	})
}

func TestClassify(t *testing.T) {
	due := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	warn := 30 * time.Minute
	tracker := &SLATracker{FirstResponseDue: due, ResolutionDue: due}

	t.Run("within before the warn window", func(t *testing.T) {
		now := due.Add(-31 * time.Minute)
		assert.Equal(t, StatusWithinSLA, tracker.Classify(DimensionResolution, now, warn))
	})

	t.Run("approaching inside the warn window", func(t *testing.T) {
		now := due.Add(-30 * time.Minute)
		assert.Equal(t, StatusApproachingBreach, tracker.Classify(DimensionResolution, now, warn))
	})

	t.Run("breached at the due instant", func(t *testing.T) {
		assert.Equal(t, StatusBreached, tracker.Classify(DimensionResolution, due, warn))
	})

	t.Run("completion wins over the clock", func(t *testing.T) {
		done := due.Add(-time.Hour)
		completed := &SLATracker{ResolutionDue: due, ResolutionCompleted: &done}
		assert.Equal(t, StatusResolved, completed.Classify(DimensionResolution, due.Add(time.Hour), warn))
	})

	t.Run("paused tracker does not breach while paused", func(t *testing.T) {
		pausedAt := due.Add(-time.Hour)
		paused := &SLATracker{ResolutionDue: due, IsPaused: true, PausedAt: &pausedAt}
		now := due.Add(time.Hour)
		assert.Equal(t, StatusWithinSLA, paused.Classify(DimensionResolution, now, warn))
	})
}
