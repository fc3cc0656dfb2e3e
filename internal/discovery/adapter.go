package discovery

import (
	"context"
	"time"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/scorer"
)

// Adapter is one platform's source: given the candidate's hints it finds
// and scores candidate profiles on that platform (spec.md §4.5, phase 4).
// GitHub discovery is handled entirely by the Runner's own reverse-link and
// direct-fan-out phases (2 and 3), so no Adapter is registered for it;
// Runner.runMultiPlatformFanOut skips any adapter whose Platform() is
// "github" as a defensive guard against double-scoring the same profile
// through two different code paths.
type Adapter interface {
	Platform() string
	Discover(ctx context.Context, hints model.EnrichedHints, budget model.EnrichmentBudget) AdapterResult
}

// AdapterResult is what one platform adapter found, plus enough diagnostics
// to populate the run trace (spec.md §4.7).
type AdapterResult struct {
	Identities      []ScoredIdentity
	QueriesExecuted int
	RawResultCount  int
	Duration        time.Duration
	Err             error
	RateLimited     bool
	Provider        string
}

// ScoredIdentity pairs a scored IdentityCandidate with the SERP position it
// was found at, used to break aggregation ties deterministically.
type ScoredIdentity struct {
	Candidate    model.IdentityCandidate
	SERPPosition int
	ShadowTotal  float64
}

func scoreToIdentity(tenantID, candidateID, platform, platformID, profileURL string, res scorer.Result, position int, discoveredBy string) ScoredIdentity {
	ic := model.IdentityCandidate{
		TenantID:         tenantID,
		CandidateID:      candidateID,
		Platform:         platform,
		PlatformID:       platformID,
		ProfileURL:       profileURL,
		Confidence:       res.Breakdown.Total,
		ConfidenceBucket: res.Bucket,
		ScoreBreakdown:   res.Breakdown,
		HasContradiction: res.HasContradiction,
		ContradictionNote: res.ContradictionNote,
		BridgeTier:       res.Bridge.Tier,
		BridgeSignals:    res.Bridge.Signals,
		DiscoveredBy:     discoveredBy,
		Status:           model.IdentityUnconfirmed,
	}
	return ScoredIdentity{Candidate: ic, SERPPosition: position, ShadowTotal: res.ShadowTotal}
}
