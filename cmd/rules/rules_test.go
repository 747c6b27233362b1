package rules_test

import (
	"testing"
	"time"

	"fjacquet/expense-import/cmd/rules"
	"fjacquet/expense-import/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesCommand_SubCommands(t *testing.T) {
	assert.Equal(t, "rules", rules.Cmd.Use)

	names := map[string]bool{}
	for _, c := range rules.Cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"list", "enable", "disable", "delete", "set"} {
		assert.True(t, names[want], want)
	}
}

func TestParseRuleID(t *testing.T) {
	id, err := rules.ParseRuleID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, bad := range []string{"", "abc", "0", "-3"} {
		_, err := rules.ParseRuleID(bad)
		assert.Error(t, err, bad)
	}
}

func TestRenderRules(t *testing.T) {
	used := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	out := rules.RenderRules([]models.Rule{
		{
			ID: 1, KeyType: models.KeyTypeVendor, Pattern: "starbucks", Category: "Restaurants",
			Priority: 99, Hits: 3, LastUsedAt: &used, Source: models.RuleSourceImportOverride, Enabled: true,
		},
		{
			ID: 2, KeyType: models.KeyTypeDescription, Pattern: "marche jean talon", Category: models.CategoryGroceries,
			Priority: 100, Source: models.RuleSourceManualEdit,
		},
	})

	assert.Contains(t, out, "starbucks")
	assert.Contains(t, out, "2024-03-05")
	assert.Contains(t, out, "import_override")
	assert.Contains(t, out, "marche jean talon")
	assert.Contains(t, out, "no")
}
