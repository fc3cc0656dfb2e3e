package planner_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/planner"
)

func hint(v string, conf float64) model.Hint {
	return model.WithValue(v, conf, model.HintSourceSERPTitle)
}

func TestPlan_HighConfidenceNameEmitsExactAndUnquoted(t *testing.T) {
	h := model.EnrichedHints{Name: hint("Jane Doe", 0.90)}
	qs := planner.Plan(h, 10)
	var variants []string
	for _, q := range qs {
		variants = append(variants, q.VariantID)
	}
	assert.Contains(t, variants, "name:exact")
	assert.Contains(t, variants, "name:unquoted")
}

func TestPlan_BudgetTruncates(t *testing.T) {
	h := model.EnrichedHints{
		Name:     hint("Jane Doe", 0.95),
		Company:  hint("Acme", 0.95),
		Location: hint("Austin, TX", 0.95),
	}
	qs := planner.Plan(h, 2)
	assert.Len(t, qs, 2)
}

func TestPlan_DedupesByCaseFoldedText(t *testing.T) {
	h := model.EnrichedHints{Name: hint("jane doe", 0.95)}
	qs := planner.Plan(h, 10)
	seen := map[string]bool{}
	for _, q := range qs {
		key := q.Text
		assert.False(t, seen[key], "duplicate query text %q", key)
		seen[key] = true
	}
}

func TestPlan_FallsBackToSlugWhenNoName(t *testing.T) {
	h := model.EnrichedHints{LinkedInID: "jane-doe-abc123"}
	qs := planner.Plan(h, 10)
	assert.NotEmpty(t, qs)
	for _, q := range qs {
		assert.Equal(t, model.QuerySlugBased, q.Type)
	}
}

func TestPlanReverseLink_EmitsURLVariants(t *testing.T) {
	h := model.EnrichedHints{LinkedInURL: "https://linkedin.com/in/jane-doe", RoleType: model.RoleEngineer}
	qs := planner.PlanReverseLink(h, 10)
	var variants []string
	for _, q := range qs {
		variants = append(variants, q.VariantID)
	}
	assert.Contains(t, variants, "url_exact")
	assert.Contains(t, variants, "url_exact:github")
	assert.Contains(t, variants, "url_exact:speaker")
}

func TestPlatformHandlePlan_TagsPlatform(t *testing.T) {
	h := model.EnrichedHints{Name: hint("Jane Doe", 0.9)}
	qs := planner.PlatformHandlePlan("npm", "npmjs.com", h, 10)
	for _, q := range qs {
		assert.Equal(t, "npm", q.Platform)
	}
}
