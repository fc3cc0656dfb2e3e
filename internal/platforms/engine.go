// Package platforms implements the non-GitHub-reverse-link sources of C5's
// multi-platform fan-out, one file per platform, each composing C2's
// PlatformHandlePlan, C3's Executor, and C4's Score behind the shared Engine
// — grounded on the teacher's internal/fetcher layout, where http.go,
// ftp.go, csv.go, and xlsx.go are each a self-contained fetch strategy
// behind a common interface.
package platforms

import (
	"context"
	"strings"
	"time"

	"github.com/sells-group/identity-resolver/internal/discovery"
	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/planner"
	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// SearchExecutor is the slice of *search.Executor an adapter needs.
type SearchExecutor interface {
	Execute(ctx context.Context, provider string, query model.Query, limit int) ([]search.Result, error)
}

// Extractor turns one raw search result into a platform id, a canonical
// profile URL, and scorable profile facts, or reports ok=false when the
// result isn't a profile page on that platform.
type Extractor func(res search.Result) (platformID, profileURL string, facts scorer.ProfileFacts, ok bool)

// maxQueriesPerPlatform keeps any one platform from spending the whole
// per-run query budget during multi-platform fan-out (spec.md §4.5 phase 4
// runs every adapter concurrently, so each gets a small, fixed slice).
const maxQueriesPerPlatform = 6

// Engine is the shared adapter implementation behind every platform file.
// It satisfies discovery.Adapter.
type Engine struct {
	PlatformName    string
	Domain          string
	Executor        SearchExecutor
	Extract         Extractor
	ResultsPerQuery int
}

// Platform implements discovery.Adapter.
func (e *Engine) Platform() string { return e.PlatformName }

// Discover implements discovery.Adapter: plan handle-based queries, execute
// them, extract+score every hit, and dedupe by platform id.
func (e *Engine) Discover(ctx context.Context, h model.EnrichedHints, budget model.EnrichmentBudget) discovery.AdapterResult {
	start := time.Now()
	limit := e.ResultsPerQuery
	if limit <= 0 {
		limit = 10
	}

	var result discovery.AdapterResult
	result.Provider = e.PlatformName
	seen := map[string]bool{}

	queries := planner.PlatformHandlePlan(e.PlatformName, e.Domain, h, maxQueriesPerPlatform)
	for _, q := range queries {
		results, err := e.Executor.Execute(ctx, e.PlatformName, q, limit)
		result.QueriesExecuted++
		if err != nil {
			if model.KindOf(err) == model.ErrRateLimited {
				result.RateLimited = true
			}
			result.Err = err
			continue
		}
		result.RawResultCount += len(results)

		for _, res := range results {
			platformID, profileURL, facts, ok := e.Extract(res)
			if !ok || platformID == "" || seen[platformID] {
				continue
			}
			seen[platformID] = true
			facts.Platform = e.PlatformName

			scored := scorer.Score(h, facts)
			ident := discovery.ScoredIdentity{
				Candidate: model.IdentityCandidate{
					Platform:           e.PlatformName,
					PlatformID:         platformID,
					ProfileURL:         profileURL,
					Confidence:         scored.Breakdown.Total,
					ConfidenceBucket:   scored.Bucket,
					ScoreBreakdown:     scored.Breakdown,
					HasContradiction:   scored.HasContradiction,
					ContradictionNote:  scored.ContradictionNote,
					BridgeTier:         scored.Bridge.Tier,
					BridgeSignals:      scored.Bridge.Signals,
					DiscoveredBy:       e.PlatformName + "_handle_search",
					Status:             model.IdentityUnconfirmed,
				},
				SERPPosition: res.Position,
				ShadowTotal:  scored.ShadowTotal,
			}
			result.Identities = append(result.Identities, ident)
		}
	}
	result.Duration = time.Since(start)
	return result
}

// titleName extracts the probable person-name prefix of a SERP title like
// "Jane Doe - Software Engineer | npm", a heuristic shared by every
// platform's extractor since none of them fetch the profile page itself.
func titleName(title string) string {
	for _, sep := range []string{" - ", " | ", " · ", " — ", " on npm", " (@"} {
		if i := strings.Index(title, sep); i > 0 {
			return strings.TrimSpace(title[:i])
		}
	}
	return strings.TrimSpace(title)
}
