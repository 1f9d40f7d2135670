package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sladesk-io/sladesk/internal/models"
)

// calendarSeed is the on-disk shape of a working-hours seed file:
//
//	working_hours:
//	  Mon: {start: "08:00", end: "17:00"}
//	  Sat: off
//	holidays:
//	  - name: New Year
//	    date: 2025-01-01
//	    recurring: true
type calendarSeed struct {
	WorkingHours map[string]seedWindow `yaml:"working_hours"`
	Holidays     []seedHoliday         `yaml:"holidays"`
}

type seedWindow struct {
	Start string `yaml:"start"`
	End   string `yaml:"end"`
}

// UnmarshalYAML accepts either a window mapping or the literal "off".
func (w *seedWindow) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		if node.Value == "off" || node.Value == "" {
			*w = seedWindow{}
			return nil
		}
		return fmt.Errorf("unexpected working-hours value %q", node.Value)
	}
	type plain seedWindow
	return node.Decode((*plain)(w))
}

type seedHoliday struct {
	Name      string `yaml:"name"`
	Date      string `yaml:"date"` // YYYY-MM-DD
	Recurring bool   `yaml:"recurring"`
}

var seedDayNames = map[string]int{
	"Mon": 0, "Tue": 1, "Wed": 2, "Thu": 3, "Fri": 4, "Sat": 5, "Sun": 6,
}

// LoadCalendarSeed reads a YAML working-hours/holiday seed file and returns
// the calendar rows for the given scope. Days absent from the file become
// non-working days by omission, matching the calendar's lookup semantics.
func LoadCalendarSeed(path string, scope models.Scope) ([]models.WorkingHours, []models.Holiday, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read calendar seed: %w", err)
	}
	return ParseCalendarSeed(raw, scope)
}

// ParseCalendarSeed parses seed YAML already held in memory.
func ParseCalendarSeed(raw []byte, scope models.Scope) ([]models.WorkingHours, []models.Holiday, error) {
	var seed calendarSeed
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return nil, nil, fmt.Errorf("failed to parse calendar seed: %w", err)
	}

	var hours []models.WorkingHours
	for dayName, window := range seed.WorkingHours {
		day, ok := seedDayNames[dayName]
		if !ok {
			return nil, nil, fmt.Errorf("unknown weekday %q in calendar seed", dayName)
		}
		if window.Start == "" || window.End == "" {
			hours = append(hours, models.WorkingHours{
				Scope:        scope,
				DayOfWeek:    day,
				IsWorkingDay: false,
			})
			continue
		}
		if _, _, err := models.ParseClock(window.Start); err != nil {
			return nil, nil, err
		}
		if _, _, err := models.ParseClock(window.End); err != nil {
			return nil, nil, err
		}
		hours = append(hours, models.WorkingHours{
			Scope:        scope,
			DayOfWeek:    day,
			StartTime:    window.Start,
			EndTime:      window.End,
			IsWorkingDay: true,
		})
	}

	var holidays []models.Holiday
	for _, h := range seed.Holidays {
		date, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid holiday date %q: %w", h.Date, err)
		}
		holidays = append(holidays, models.Holiday{
			Scope:       scope,
			Name:        h.Name,
			Date:        date,
			IsRecurring: h.Recurring,
			IsActive:    true,
		})
	}

	return hours, holidays, nil
}
