package store

import (
	"testing"
	"time"

	"fjacquet/expense-import/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectRule(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	rule := func(id int64, pattern string, priority, hits int, updated time.Time) models.Rule {
		return models.Rule{ID: id, Pattern: pattern, Category: pattern, Priority: priority,
			Hits: hits, UpdatedAt: updated, Enabled: true}
	}

	tests := []struct {
		name       string
		candidates []models.Rule
		key        string
		wantID     int64
	}{
		{
			name:       "exact beats longer prefix context",
			candidates: []models.Rule{rule(1, "amazon", 100, 0, t0), rule(2, "amazon mktp", 100, 0, t0)},
			key:        "amazon",
			wantID:     1,
		},
		{
			name:       "longest prefix wins",
			candidates: []models.Rule{rule(1, "amazon", 1, 50, t0), rule(2, "amazon mktp", 100, 0, t0)},
			key:        "amazon mktp ca",
			wantID:     2,
		},
		{
			name:       "lower priority breaks ties",
			candidates: []models.Rule{rule(1, "metro", 100, 9, t0), rule(2, "metro", 50, 0, t0)},
			key:        "metro",
			wantID:     2,
		},
		{
			name:       "hits break priority ties",
			candidates: []models.Rule{rule(1, "metro", 100, 1, t0), rule(2, "metro", 100, 7, t0)},
			key:        "metro",
			wantID:     2,
		},
		{
			name:       "recency breaks hit ties",
			candidates: []models.Rule{rule(1, "metro", 100, 1, t0), rule(2, "metro", 100, 1, t0.Add(time.Hour))},
			key:        "metro",
			wantID:     2,
		},
		{
			name:       "lowest id is the last resort",
			candidates: []models.Rule{rule(5, "metro", 100, 1, t0), rule(3, "metro", 100, 1, t0)},
			key:        "metro",
			wantID:     3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SelectRule(tt.candidates, tt.key)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestSelectRule_NoMatch(t *testing.T) {
	disabled := models.Rule{ID: 1, Pattern: "metro", Enabled: false}
	other := models.Rule{ID: 2, Pattern: "metropolis", Enabled: true}

	assert.Nil(t, SelectRule([]models.Rule{disabled, other}, "metro"))
	assert.Nil(t, SelectRule([]models.Rule{other}, ""))
	assert.Nil(t, SelectRule(nil, "metro"))
}
