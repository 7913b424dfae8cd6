package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cata32101/odysseus-app/internal/common"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/model"
)

func TestParseIDs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []int
		wantErr bool
	}{
		{name: "single", args: []string{"7"}, want: []int{7}},
		{name: "comma separated", args: []string{"1,2,3"}, want: []int{1, 2, 3}},
		{name: "multiple args", args: []string{"1", "2,3"}, want: []int{1, 2, 3}},
		{name: "spaces tolerated", args: []string{"1, 2"}, want: []int{1, 2}},
		{name: "garbage", args: []string{"1,x"}, wantErr: true},
		{name: "empty", args: nil, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids, err := parseIDs(tt.args)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestParseIDs_EmptyIsSelectionError(t *testing.T) {
	_, err := parseIDs(nil)
	assert.ErrorIs(t, err, common.ErrEmptySelection)
}

func TestFilterFlags_Spec(t *testing.T) {
	f := filterFlags{
		search:          "acme",
		statuses:        []string{"Vetted", "Approved"},
		groups:          []string{"No Group"},
		minScore:        filter.ScoreMin,
		maxScore:        filter.ScoreMax,
		includeUnscored: true,
	}

	spec := f.spec()
	assert.Equal(t, "acme", spec.Search)
	assert.Equal(t, []model.Status{model.StatusVetted, model.StatusApproved}, spec.Statuses)
	assert.False(t, spec.ScoreActive(), "full range is not a score filter")

	f.minScore = 7
	spec = f.spec()
	assert.True(t, spec.ScoreActive())
	assert.Equal(t, 7.0, spec.Range(model.DimensionUnified).Min)
}
