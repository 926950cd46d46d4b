package metrics

import (
	"time"

	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
)

// FilterBounds resolves a date filter into an inclusive day range. Explicit
// start and end dates override every preset except "all"; an unreadable
// explicit date falls back to today.
func FilterBounds(f models.DateFilter, now time.Time) (time.Time, time.Time) {
	loc := now.Location()
	today := fields.Day(now)

	if f.Preset == models.PresetAll {
		return time.Date(2000, time.January, 1, 0, 0, 0, 0, loc),
			time.Date(2100, time.December, 31, 0, 0, 0, 0, loc)
	}
	if f.StartDate != "" && f.EndDate != "" {
		return explicitDay(f.StartDate, today), explicitDay(f.EndDate, today)
	}

	switch f.Preset {
	case models.PresetToday:
		return today, today
	case models.PresetWeek:
		return today.AddDate(0, 0, -7), today
	case models.PresetLastMonth:
		y, m, _ := today.Date()
		return time.Date(y, m-1, 1, 0, 0, 0, 0, loc), time.Date(y, m, 0, 0, 0, 0, 0, loc)
	default:
		y, m, _ := today.Date()
		return time.Date(y, m, 1, 0, 0, 0, 0, loc), today
	}
}

func explicitDay(s string, today time.Time) time.Time {
	t := fields.ParseDate(s, today.Location())
	if t.IsZero() {
		return today
	}
	return fields.Day(t)
}
