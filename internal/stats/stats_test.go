package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/cata32101/odysseus-app/internal/model"
)

func TestCompute_Counts(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	companies := []model.Company{
		{ID: 1, Status: model.StatusNew, CreatedAt: now.Add(-2 * 24 * time.Hour)},
		{ID: 2, Status: model.StatusNew, CreatedAt: now.Add(-30 * 24 * time.Hour)},
		{ID: 3, Status: model.StatusVetted, CreatedAt: now.Add(-6 * 24 * time.Hour)},
		{ID: 4, Status: model.StatusApproved, CreatedAt: now.Add(-100 * 24 * time.Hour)},
		{ID: 5, Status: model.StatusRejected}, // missing timestamp
	}

	s := Compute(companies, now)

	assert.Equal(t, 5, s.Total)
	assert.Equal(t, 2, s.Count(model.StatusNew))
	assert.Equal(t, 1, s.Count(model.StatusVetted))
	assert.Equal(t, 1, s.Count(model.StatusApproved))
	assert.Equal(t, 1, s.Count(model.StatusRejected))
	assert.Equal(t, 0, s.Count(model.StatusFailed))

	// Two created inside the trailing week; the timestampless company is in
	// the total but not the weekly count.
	assert.Equal(t, 2, s.AddedThisWeek)
}

func TestCompute_WeeklyGrowth(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name      string
		companies []model.Company
		want      float64
	}{
		{
			name:      "empty set yields zero",
			companies: nil,
			want:      0,
		},
		{
			name: "no recent additions yields zero",
			companies: []model.Company{
				{ID: 1, CreatedAt: now.Add(-60 * 24 * time.Hour)},
				{ID: 2, CreatedAt: now.Add(-30 * 24 * time.Hour)},
			},
			want: 0,
		},
		{
			name: "one of five is twenty five percent over baseline",
			companies: []model.Company{
				{ID: 1, CreatedAt: now.Add(-time.Hour)},
				{ID: 2, CreatedAt: now.Add(-30 * 24 * time.Hour)},
				{ID: 3, CreatedAt: now.Add(-30 * 24 * time.Hour)},
				{ID: 4, CreatedAt: now.Add(-30 * 24 * time.Hour)},
				{ID: 5, CreatedAt: now.Add(-30 * 24 * time.Hour)},
			},
			want: 25,
		},
		{
			name: "all new has no baseline but stays finite",
			companies: []model.Company{
				{ID: 1, CreatedAt: now.Add(-time.Hour)},
				{ID: 2, CreatedAt: now.Add(-2 * time.Hour)},
			},
			want: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Compute(tt.companies, now)
			assert.InDelta(t, tt.want, s.WeeklyGrowth, 0.001)
			assert.False(t, math.IsNaN(s.WeeklyGrowth))
			assert.False(t, math.IsInf(s.WeeklyGrowth, 0))
		})
	}
}

func TestCompute_UsesCallTimeClock(t *testing.T) {
	created := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	companies := []model.Company{{ID: 1, CreatedAt: created}}

	// Within the window relative to one instant, outside relative to another.
	assert.Equal(t, 1, Compute(companies, created.Add(3*24*time.Hour)).AddedThisWeek)
	assert.Equal(t, 0, Compute(companies, created.Add(10*24*time.Hour)).AddedThisWeek)
}
