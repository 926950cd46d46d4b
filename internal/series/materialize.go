// Package series turns sparse per-day aggregates into dense chart series.
package series

import (
	"time"

	"github.com/AngelCh415/crm-dashboard/internal/fields"
	"github.com/AngelCh415/crm-dashboard/internal/models"
)

// MaxDays bounds how far a single series can expand.
const MaxDays = 3650

const (
	floorYear = 2020
	ceilYear  = 2030
	saneYear  = 2000
)

// Materialize returns one point per calendar day in [start, end], with zero
// values for days missing from points.
func Materialize(points map[string]models.DailyPoint, start, end time.Time) []models.DailyPoint {
	cur := fields.Day(start)
	last := fields.Day(end)
	if cur.Year() < floorYear {
		cur = fallbackOrigin(cur.Location())
	}
	if last.Year() > ceilYear {
		last = time.Date(ceilYear, last.Month(), last.Day(), 0, 0, 0, 0, last.Location())
	}

	out := make([]models.DailyPoint, 0, daysBetween(cur, last))
	for n := 0; !cur.After(last) && n < MaxDays; n++ {
		key := fields.DayKey(cur)
		p := models.DailyPoint{Date: key, Breakdown: []models.BreakdownItem{}}
		if got, ok := points[key]; ok {
			p.Value = got.Value
			if got.Breakdown != nil {
				p.Breakdown = got.Breakdown
			}
		}
		out = append(out, p)
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}

// Bounds picks the span a chart should cover. For the "all" preset it
// narrows to the observed data, or the last year when nothing was observed.
// The end never goes past today unless data does, and never precedes start.
func Bounds(preset models.Preset, filterStart, filterEnd, obsMin, obsMax time.Time, hasData bool, now time.Time) (time.Time, time.Time) {
	today := fields.Day(now)
	start, end := fields.Day(filterStart), fields.Day(filterEnd)
	if preset == models.PresetAll {
		if hasData {
			start, end = fields.Day(obsMin), fields.Day(obsMax)
		} else {
			start, end = today.AddDate(-1, 0, 0), today
		}
	}
	if start.Year() < saneYear {
		start = fallbackOrigin(start.Location())
	}

	safeEnd := today
	if hasData && obsMax.After(today) {
		safeEnd = fields.Day(obsMax)
	}
	if end.After(safeEnd) {
		end = safeEnd
	}
	if end.Before(start) {
		end = start
	}
	return start, end
}

// Revenue maps a dense series onto chart points carrying the daily goal.
func Revenue(dense []models.DailyPoint, dailyGoal float64) []models.RevenuePoint {
	out := make([]models.RevenuePoint, 0, len(dense))
	for _, p := range dense {
		out = append(out, models.RevenuePoint{
			Day:       dayLabel(p.Date),
			FullDate:  p.Date,
			Goal:      dailyGoal,
			Value:     p.Value,
			Breakdown: p.Breakdown,
		})
	}
	return out
}

func Leads(dense []models.DailyPoint) []models.LeadPoint {
	out := make([]models.LeadPoint, 0, len(dense))
	for _, p := range dense {
		out = append(out, models.LeadPoint{Day: dayLabel(p.Date), FullDate: p.Date, Count: int(p.Value)})
	}
	return out
}

// dayLabel renders YYYY-MM-DD as DD/MM.
func dayLabel(iso string) string {
	if len(iso) != len(fields.DayLayout) {
		return iso
	}
	return iso[8:10] + "/" + iso[5:7]
}

func fallbackOrigin(loc *time.Location) time.Time {
	return time.Date(2023, time.January, 1, 0, 0, 0, 0, loc)
}

func daysBetween(a, b time.Time) int {
	if b.Before(a) {
		return 0
	}
	n := int(b.Sub(a).Hours()/24) + 1
	if n > MaxDays {
		return MaxDays
	}
	return n
}
