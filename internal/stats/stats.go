// Package stats computes dashboard summary metrics from the full company set.
package stats

import (
	"math"
	"time"

	"github.com/cata32101/odysseus-app/internal/model"
)

// weeklyWindow is the trailing window for the "added this week" count.
const weeklyWindow = 7 * 24 * time.Hour

// Summary holds the dashboard headline numbers. It is always computed from
// the full (unpaginated) company set, never from the visible page.
type Summary struct {
	ByStatus     map[model.Status]int
	Total        int
	AddedThisWeek int
	// WeeklyGrowth is a rough heuristic: this week's additions relative to
	// the prior baseline, as a percentage. Never NaN or Inf.
	WeeklyGrowth float64
}

// Compute aggregates the summary at the given wall-clock instant. Companies
// with a missing creation timestamp are counted in the total but excluded
// from the weekly count.
func Compute(companies []model.Company, now time.Time) Summary {
	s := Summary{
		ByStatus: make(map[model.Status]int, 6),
		Total:    len(companies),
	}

	cutoff := now.Add(-weeklyWindow)
	for _, c := range companies {
		s.ByStatus[c.Status]++
		if !c.CreatedAt.IsZero() && c.CreatedAt.After(cutoff) {
			s.AddedThisWeek++
		}
	}

	s.WeeklyGrowth = growth(s.AddedThisWeek, s.Total)
	return s
}

// Count returns the number of companies in the given status.
func (s Summary) Count(status model.Status) int {
	return s.ByStatus[status]
}

func growth(thisWeek, total int) float64 {
	// No prior-period baseline: floor at 1 so an all-new set reads as
	// thisWeek*100% instead of dividing by zero.
	baseline := float64(total - thisWeek)
	if baseline < 1 {
		baseline = 1
	}
	g := float64(thisWeek) / baseline * 100
	if math.IsNaN(g) || math.IsInf(g, 0) {
		return 0
	}
	return g
}
