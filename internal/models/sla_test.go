package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinutes(t *testing.T) {
	assert.Equal(t, 45, Minutes(45, UnitMinutes))
	assert.Equal(t, 120, Minutes(2, UnitHours))
	assert.Equal(t, 2880, Minutes(2, UnitDays))
	assert.Equal(t, 10080, Minutes(1, UnitWeeks))

	t.Run("unknown unit treated as hours", func(t *testing.T) {
		assert.Equal(t, 180, Minutes(3, TimeUnit("fortnights")))
	})

	t.Run("cap prevents overflow", func(t *testing.T) {
		assert.Equal(t, MaxSLAMinutes, Minutes(1000, UnitWeeks))
	})
}

func TestSLATargetDimensions(t *testing.T) {
	target := &SLATarget{
		Priority:          "high",
		FirstResponseTime: 30,
		FirstResponseUnit: UnitMinutes,
		ResolutionTime:    8,
		ResolutionUnit:    UnitHours,
		OperationalHours:  HoursBusiness,
	}

	assert.True(t, target.HasDimension(DimensionFirstResponse))
	assert.False(t, target.HasDimension(DimensionNextResponse))
	assert.True(t, target.HasDimension(DimensionResolution))

	assert.Equal(t, 30, target.DimensionMinutes(DimensionFirstResponse))
	assert.Equal(t, 480, target.DimensionMinutes(DimensionResolution))
	assert.Equal(t, 0, target.DimensionMinutes(DimensionNextResponse))

	assert.True(t, target.BusinessHoursOnly())
	target.OperationalHours = HoursCalendar
	assert.False(t, target.BusinessHoursOnly())
}
