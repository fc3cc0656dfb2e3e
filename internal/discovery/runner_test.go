package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// fakeStore is a minimal in-memory CandidateStore for exercising the runner
// without a real database.
type fakeStore struct {
	candidate model.Candidate
	statuses  []model.EnrichmentStatus
	upserted  []model.IdentityCandidate
}

func (s *fakeStore) GetCandidate(_ context.Context, _, _ string) (model.Candidate, error) {
	return s.candidate, nil
}

func (s *fakeStore) SetEnrichmentStatus(_ context.Context, _, _ string, status model.EnrichmentStatus) error {
	s.statuses = append(s.statuses, status)
	return nil
}

func (s *fakeStore) UpsertIdentityCandidates(_ context.Context, identities []model.IdentityCandidate) error {
	s.upserted = append(s.upserted, identities...)
	return nil
}

// fakeExecutor returns a canned result set keyed by (provider, variant id),
// regardless of the exact query text the planner produced.
type fakeExecutor struct {
	byVariant map[string][]search.Result
}

func variantKey(provider, variantID string) string { return provider + "::" + variantID }

func (f *fakeExecutor) Execute(_ context.Context, provider string, query model.Query, _ int) ([]search.Result, error) {
	return f.byVariant[variantKey(provider, query.VariantID)], nil
}

// fakeGitHub resolves logins from an in-memory map.
type fakeGitHub struct {
	profiles map[string]scorer.ProfileFacts
}

func (f *fakeGitHub) FetchProfile(_ context.Context, login string) (scorer.ProfileFacts, bool, error) {
	p, ok := f.profiles[login]
	return p, ok, nil
}

func baseCandidate() model.Candidate {
	return model.Candidate{
		TenantID:     "t1",
		CandidateID:  "c1",
		LinkedInSlug: "jane-doe",
		LinkedInURL:  "https://www.linkedin.com/in/janedoe",
		SERPTitle:    "Jane Doe - Software Engineer at Acme | LinkedIn",
	}
}

// S1: a GitHub login is discovered via a reverse-link hit and the fetched
// profile carries a LinkedIn-in-bio signal, which is Tier 1 and therefore
// always persists with an auto-merge-eligible reason and a tier1 early stop.
func TestRunner_ReverseLinkToGitHubTier1_AutoMerges(t *testing.T) {
	st := &fakeStore{candidate: baseCandidate()}
	exec := &fakeExecutor{byVariant: map[string][]search.Result{
		variantKey("serper", "url_exact"): {{
			URL:      "https://github.com/janedoe",
			Title:    "Jane Doe (janedoe) . GitHub",
			Snippet:  "linkedin.com/in/janedoe personal projects and talks",
			Position: 1,
		}},
	}}
	gh := &fakeGitHub{profiles: map[string]scorer.ProfileFacts{
		"janedoe": {
			Platform:           "github",
			Name:               "Jane Doe",
			LinkedInURLFoundIn: "bio",
			FollowersCount:     50,
			PublicRepos:        12,
		},
	}}

	r := &Runner{
		Store:               st,
		Executor:            exec,
		GeneralWebProviders: []string{"serper"},
		GitHub:              gh,
		ScoringConfig:       scorer.DefaultConfig(),
	}

	session, err := r.Run(context.Background(), model.JobRequest{
		SessionID: "sess-1", TenantID: "t1", CandidateID: "c1", JobType: model.JobEnrich,
	})
	require.NoError(t, err)

	assert.Equal(t, model.EarlyStopTier1Found, session.EarlyStopReason)
	require.Len(t, st.upserted, 1)
	persisted := st.upserted[0]
	assert.Equal(t, "github", persisted.Platform)
	assert.Equal(t, "janedoe", persisted.PlatformID)
	assert.Equal(t, 1, persisted.BridgeTier)
	assert.Equal(t, "Tier-1 bridge, auto-merge eligible", persisted.PersistReason)
	assert.Equal(t, "t1", persisted.TenantID)
	assert.Equal(t, "c1", persisted.CandidateID)
}

// S5: with the Tier-2 cap set to 1, the first Tier-2 identity persists and
// the second is dropped with a "Cap exceeded" reason recorded in the trace's
// rejected sample.
func TestRunner_Tier2CapExhausted_RejectsOverflow(t *testing.T) {
	st := &fakeStore{candidate: baseCandidate()}
	exec := &fakeExecutor{byVariant: map[string][]search.Result{
		variantKey("serper", "url_exact"): {
			{URL: "https://github.com/alice", Title: "Alice . GitHub", Snippet: "linkedin.com/in/janedoe", Position: 1},
			{URL: "https://github.com/bob", Title: "Bob . GitHub", Snippet: "linkedin.com/in/janedoe", Position: 2},
		},
	}}
	gh := &fakeGitHub{profiles: map[string]scorer.ProfileFacts{
		"alice": {Platform: "github", Name: "Jane Doe", CommitEmailDomainMatches: 1, FollowersCount: 50, PublicRepos: 5},
		"bob":   {Platform: "github", Name: "Someone Else", CommitEmailDomainMatches: 1, FollowersCount: 5, PublicRepos: 1},
	}}

	cfg := scorer.DefaultConfig()
	cfg.Tier2Cap = 1

	r := &Runner{
		Store:               st,
		Executor:            exec,
		GeneralWebProviders: []string{"serper"},
		GitHub:              gh,
		ScoringConfig:       cfg,
	}

	session, err := r.Run(context.Background(), model.JobRequest{
		SessionID: "sess-2", TenantID: "t1", CandidateID: "c1", JobType: model.JobEnrich,
	})
	require.NoError(t, err)

	require.Len(t, st.upserted, 1)
	assert.Equal(t, "alice", st.upserted[0].PlatformID)
	assert.Equal(t, "Tier-2 human review queued (1/1)", st.upserted[0].PersistReason)

	require.NotNil(t, session.RunTrace)
	require.Len(t, session.RunTrace.RejectedSample, 1)
	assert.Contains(t, session.RunTrace.RejectedSample[0], "bob")
	assert.Contains(t, session.RunTrace.RejectedSample[0], "Cap exceeded (1/1)")
}

// S3: a reverse-link hit lands on a conference speakers page that mentions
// both the LinkedIn URL and a GitHub login, so it is scored directly from the
// page evidence (tier 2, not tier 1, per the conference_speaker downgrade)
// rather than silently dropped by routeByHost or deferred to the GitHub
// direct-fetch phase. The page carries no company/location corroboration, so
// the existing GitHub name-only guard (spec.md §4.4, last paragraph) still
// drops it at the persistence gate — the same guard that already drops a
// bare mutual_reference match with no other evidence.
func TestRunner_ConferenceSpeakerPage_ScoredTier2ThenGuardedOut(t *testing.T) {
	candidate := baseCandidate()
	candidate.RoleType = model.RoleEngineer // PlanReverseLink only emits url_exact:speaker for engineer/researcher roles.
	st := &fakeStore{candidate: candidate}
	exec := &fakeExecutor{byVariant: map[string][]search.Result{
		variantKey("serper", "url_exact:speaker"): {{
			URL:      "https://devconf.example/speakers/alice",
			Title:    "Alice - Speaker - DevConf 2026",
			Snippet:  "linkedin.com/in/janedoe talks about distributed systems. github.com/alice",
			Position: 1,
		}},
	}}

	r := &Runner{
		Store:               st,
		Executor:            exec,
		GeneralWebProviders: []string{"serper"},
		ScoringConfig:       scorer.DefaultConfig(),
	}

	session, err := r.Run(context.Background(), model.JobRequest{
		SessionID: "sess-3speaker", TenantID: "t1", CandidateID: "c1", JobType: model.JobEnrich,
	})
	require.NoError(t, err)

	assert.Empty(t, st.upserted)
	require.NotNil(t, session.RunTrace)
	require.Len(t, session.RunTrace.RejectedSample, 1)
	assert.Contains(t, session.RunTrace.RejectedSample[0], "alice")
	assert.Contains(t, session.RunTrace.RejectedSample[0], "Dropped as GitHub name-only false positive")
	assert.NotEqual(t, model.EarlyStopTier1Found, session.EarlyStopReason)
}

// S2: a zero query/platform budget stops the run immediately with no
// identities discovered or persisted.
func TestRunner_BudgetExhausted_StopsImmediately(t *testing.T) {
	st := &fakeStore{candidate: baseCandidate()}
	exec := &fakeExecutor{byVariant: map[string][]search.Result{}}

	r := &Runner{
		Store:               st,
		Executor:            exec,
		GeneralWebProviders: []string{"serper"},
		ScoringConfig:       scorer.DefaultConfig(),
	}

	budget := model.EnrichmentBudget{
		MaxTotalQueries:           0,
		MaxPlatforms:              0,
		MaxIdentitiesPerPlatform:  5,
		OverallTimeout:            model.DefaultBudget().OverallTimeout,
		MaxParallelPlatforms:      1,
		MinConfidenceForEarlyStop: 0.90,
	}
	session, err := r.Run(context.Background(), model.JobRequest{
		SessionID: "sess-3", TenantID: "t1", CandidateID: "c1", JobType: model.JobEnrich, Budget: &budget,
	})
	require.NoError(t, err)

	assert.Equal(t, model.EarlyStopBudgetExhausted, session.EarlyStopReason)
	assert.Equal(t, 0, session.IdentitiesFound)
	assert.Equal(t, 0, session.IdentitiesConfirmed)
	assert.Empty(t, st.upserted)
}

// Aggregation determinism: identities are persisted tier-ascending then
// confidence-descending, independent of discovery order.
func TestRunner_AggregationOrdersByTierThenConfidence(t *testing.T) {
	st := &fakeStore{candidate: baseCandidate()}
	exec := &fakeExecutor{byVariant: map[string][]search.Result{
		variantKey("serper", "url_exact"): {
			{URL: "https://github.com/weakmatch", Title: "weakmatch . GitHub", Snippet: "linkedin.com/in/janedoe", Position: 1},
			{URL: "https://github.com/strongmatch", Title: "strongmatch . GitHub", Snippet: "linkedin.com/in/janedoe", Position: 2},
		},
	}}
	gh := &fakeGitHub{profiles: map[string]scorer.ProfileFacts{
		"weakmatch":   {Platform: "github", Name: "Jane Doe", LinkedInURLFoundIn: "bio", FollowersCount: 1},
		"strongmatch": {Platform: "github", Name: "Jane Doe", LinkedInURLFoundIn: "bio", FollowersCount: 500, PublicRepos: 40, Bio: "a very long bio with plenty of detail", Company: "Acme"},
	}}

	r := &Runner{
		Store:               st,
		Executor:            exec,
		GeneralWebProviders: []string{"serper"},
		GitHub:              gh,
		ScoringConfig:       scorer.DefaultConfig(),
	}

	_, err := r.Run(context.Background(), model.JobRequest{
		SessionID: "sess-4", TenantID: "t1", CandidateID: "c1", JobType: model.JobEnrich,
	})
	require.NoError(t, err)

	require.Len(t, st.upserted, 2)
	assert.Equal(t, "strongmatch", st.upserted[0].PlatformID)
	assert.Equal(t, "weakmatch", st.upserted[1].PlatformID)
	assert.GreaterOrEqual(t, st.upserted[0].Confidence, st.upserted[1].Confidence)
}
