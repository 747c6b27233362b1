package store

import (
	"sort"

	"fjacquet/expense-import/internal/models"
	"fjacquet/expense-import/internal/textutils"
)

// SelectRule picks the rule that applies to a lookup key among candidates.
//
// Only enabled rules whose pattern equals the key, or is a whole-word prefix
// of it, are eligible. An exact match beats any prefix match and a longer
// prefix beats a shorter one. Remaining ties go to the lower Priority value,
// then the higher hit count, then the most recently updated rule.
func SelectRule(candidates []models.Rule, key string) *models.Rule {
	if key == "" {
		return nil
	}

	var eligible []models.Rule
	for _, r := range candidates {
		if !r.Enabled {
			continue
		}
		if r.Pattern == key || textutils.HasPhrasePrefix(key, r.Pattern) {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		a, b := eligible[i], eligible[j]
		if ea, eb := a.Pattern == key, b.Pattern == key; ea != eb {
			return ea
		}
		if len(a.Pattern) != len(b.Pattern) {
			return len(a.Pattern) > len(b.Pattern)
		}
		if a.Priority != b.Priority {
			return a.Priority < b.Priority
		}
		if a.Hits != b.Hits {
			return a.Hits > b.Hits
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	best := eligible[0]
	return &best
}

// sortRulesForListing orders rules most used first, then most recently
// updated.
func sortRulesForListing(rules []models.Rule) {
	sort.SliceStable(rules, func(i, j int) bool {
		if rules[i].Hits != rules[j].Hits {
			return rules[i].Hits > rules[j].Hits
		}
		if !rules[i].UpdatedAt.Equal(rules[j].UpdatedAt) {
			return rules[i].UpdatedAt.After(rules[j].UpdatedAt)
		}
		return rules[i].ID < rules[j].ID
	})
}
