package scorer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/scorer"
)

func hints(name, company, location string) model.EnrichedHints {
	h := model.EnrichedHints{}
	if name != "" {
		h.Name = model.WithValue(name, 0.85, model.HintSourceSERPTitle)
	}
	if company != "" {
		h.Company = model.WithValue(company, 0.85, model.HintSourceSERPTitle)
	}
	if location != "" {
		h.Location = model.WithValue(location, 0.85, model.HintSourceSERPTitle)
	}
	return h
}

func TestScore_Deterministic(t *testing.T) {
	h := hints("Jane Doe", "Acme Corp", "Austin, TX")
	p := scorer.ProfileFacts{
		Platform: "github", Name: "Jane Doe", Company: "Acme Corp", Location: "Austin, TX",
		LinkedInURLFoundIn: "bio",
	}
	r1 := scorer.Score(h, p)
	r2 := scorer.Score(h, p)
	assert.Equal(t, r1, r2)
}

func TestScore_Tier1BioLinkAutoMergeEligible(t *testing.T) {
	h := hints("Jane Doe", "Acme Corp", "Austin, TX")
	p := scorer.ProfileFacts{
		Platform: "github", Name: "Jane Doe", Company: "Acme Corp", Location: "Austin, TX",
		LinkedInURLFoundIn: "bio",
	}
	r := scorer.Score(h, p)
	require.Equal(t, 1, r.Bridge.Tier)
	assert.True(t, r.Bridge.AutoMergeEligible)
	assert.GreaterOrEqual(t, r.Breakdown.Total, 0.85)
	assert.Equal(t, model.BucketAutoMerge, r.Bucket)
}

func TestScore_TierMonotonicity(t *testing.T) {
	h := hints("Jane Doe", "", "")
	tier1 := scorer.Score(h, scorer.ProfileFacts{Name: "Jane Doe", LinkedInURLFoundIn: "bio"})
	tier2 := scorer.Score(h, scorer.ProfileFacts{Name: "Jane Doe", ConferenceSpeaker: true})
	tier3 := scorer.Score(h, scorer.ProfileFacts{Name: "Jane Doe"})

	assert.Equal(t, 1, tier1.Bridge.Tier)
	assert.Equal(t, 2, tier2.Bridge.Tier)
	assert.Equal(t, 3, tier3.Bridge.Tier)
	assert.Greater(t, tier1.Breakdown.Total, tier2.Breakdown.Total)
	assert.GreaterOrEqual(t, tier2.Breakdown.Total, tier3.Breakdown.Total)
}

// S3: a LinkedIn URL mentioned on a third-party conference/speaker page
// downgrades to Tier 2 even though linkedin_url_in_page alone is a Tier-1
// signal (spec.md §8) — the page isn't the candidate's own bio or blog.
func TestScore_ConferenceSpeakerPageDowngradesToTier2(t *testing.T) {
	h := hints("Jane Doe", "", "")
	r := scorer.Score(h, scorer.ProfileFacts{
		Name: "Jane Doe", LinkedInURLFoundIn: "page", ConferenceSpeaker: true,
	})
	require.Equal(t, 2, r.Bridge.Tier)
	assert.True(t, r.Bridge.HasSignal(model.SignalLinkedInURLInPage))
	assert.True(t, r.Bridge.HasSignal(model.SignalConferenceSpeaker))
	assert.False(t, r.Bridge.AutoMergeEligible)
}

// A bio/blog bridge still wins Tier 1 even alongside a conference mention.
func TestScore_ConferenceSpeakerDoesNotDowngradeStrongerBridge(t *testing.T) {
	h := hints("Jane Doe", "", "")
	r := scorer.Score(h, scorer.ProfileFacts{
		Name: "Jane Doe", LinkedInURLFoundIn: "bio", ConferenceSpeaker: true,
	})
	assert.Equal(t, 1, r.Bridge.Tier)
}

func TestScore_NameOnlyFalsePositiveContradiction(t *testing.T) {
	h := hints("Jane Doe", "", "")
	p := scorer.ProfileFacts{Name: "Someone Else Entirely", MutualReference: true}
	r := scorer.Score(h, p)
	assert.True(t, r.HasContradiction)
	assert.NotEmpty(t, r.ContradictionNote)
}

func TestShouldPersist_Tier1AlwaysPersists(t *testing.T) {
	h := hints("Jane Doe", "", "")
	r := scorer.Score(h, scorer.ProfileFacts{Name: "Jane Doe", LinkedInURLFoundIn: "blog"})
	persist, reason := scorer.ShouldPersist(r, "linkedin_mirror", 99, scorer.DefaultConfig())
	assert.True(t, persist)
	assert.Equal(t, "tier1_always_persists", reason)
}

func TestShouldPersist_Tier2RespectsGlobalCap(t *testing.T) {
	h := hints("Jane Doe", "", "")
	r := scorer.Score(h, scorer.ProfileFacts{Name: "Jane Doe", ConferenceSpeaker: true})
	cfg := scorer.DefaultConfig()

	persist, reason := scorer.ShouldPersist(r, "npm", 2, cfg)
	assert.True(t, persist)
	assert.Equal(t, "tier2_within_cap", reason)

	persist, reason = scorer.ShouldPersist(r, "npm", 3, cfg)
	assert.False(t, persist)
	assert.Equal(t, "tier2_cap_exhausted", reason)
}

func TestShouldPersist_GitHubNameOnlyFalsePositiveDropped(t *testing.T) {
	h := hints("Jane Doe", "", "")
	r := scorer.Score(h, scorer.ProfileFacts{Name: "Jane Doe", MutualReference: true})
	require.Equal(t, 1, r.Bridge.Tier)
	persist, reason := scorer.ShouldPersist(r, "github", 0, scorer.DefaultConfig())
	assert.False(t, persist)
	assert.Equal(t, "github_name_only_false_positive", reason)
}

func TestShouldPersist_Tier3WithCompanyMatchPersists(t *testing.T) {
	h := hints("Jane Doe", "Acme Corp", "")
	r := scorer.Score(h, scorer.ProfileFacts{Name: "Jane Doe", Company: "Acme Corp"})
	persist, _ := scorer.ShouldPersist(r, "github", 0, scorer.DefaultConfig())
	assert.True(t, persist)
}

func TestScore_ShadowScorerIsObservabilityOnly(t *testing.T) {
	h := model.EnrichedHints{Name: model.WithValue("Jane Doe", 0.20, model.HintSourceSERPTitle)}
	p := scorer.ProfileFacts{Name: "Jane Doe"}
	r := scorer.Score(h, p)
	assert.NotEqual(t, r.Breakdown.Total, r.ShadowTotal)

	var summary scorer.ShadowSummary
	summary.Compare(r, scorer.DefaultConfig())
	assert.Equal(t, 1, summary.Compared)
}
