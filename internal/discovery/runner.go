// Package discovery implements C5, the discovery pipeline: a per-candidate
// state machine that advances strictly forward through hint loading,
// reverse-link discovery, GitHub direct fan-out, multi-platform fan-out,
// aggregation, persistence, and run-trace assembly (spec.md §4.5).
package discovery

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/identity-resolver/internal/hints"
	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/planner"
	"github.com/sells-group/identity-resolver/internal/scorer"
	"github.com/sells-group/identity-resolver/internal/search"
)

// CandidateStore is the slice of the store the runner needs: loading the
// seed candidate, advancing its status, and upserting what it finds.
type CandidateStore interface {
	GetCandidate(ctx context.Context, tenantID, candidateID string) (model.Candidate, error)
	SetEnrichmentStatus(ctx context.Context, tenantID, candidateID string, status model.EnrichmentStatus) error
	UpsertIdentityCandidates(ctx context.Context, identities []model.IdentityCandidate) error
}

// SearchExecutor issues a planned query against a provider. Satisfied by
// *search.Executor.
type SearchExecutor interface {
	Execute(ctx context.Context, provider string, query model.Query, limit int) ([]search.Result, error)
}

// GitHubFetcher resolves one GitHub login into scorable profile facts. ok is
// false when the login does not exist.
type GitHubFetcher interface {
	FetchProfile(ctx context.Context, login string) (facts scorer.ProfileFacts, ok bool, err error)
}

// Runner wires the phases of C5 together.
type Runner struct {
	Store               CandidateStore
	Executor            SearchExecutor
	GeneralWebProviders []string
	GitHub              GitHubFetcher
	Adapters            []Adapter
	ScoringConfig       scorer.Config
	ResultsPerQuery     int

	// DefaultBudget is used whenever a JobRequest carries no per-request
	// budget override. Zero-value (the Runner's unset default) falls back to
	// model.DefaultBudget(), so callers that never set this field keep the
	// spec-mandated defaults.
	DefaultBudget model.EnrichmentBudget

	// Progress, when set, is called at each C5 phase boundary so callers
	// (the HTTP SSE handler, a Temporal activity heartbeat) can observe a
	// run in flight. Never required for correctness — a nil Progress is a
	// silent no-op.
	Progress func(model.ProgressEvent)
}

func (r *Runner) resultsPerQuery() int {
	if r.ResultsPerQuery > 0 {
		return r.ResultsPerQuery
	}
	return 10
}

func (r *Runner) emit(sessionID, node string, data map[string]any) {
	if r.Progress == nil {
		return
	}
	r.Progress(model.ProgressEvent{
		SessionID: sessionID,
		Type:      "progress",
		Node:      node,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Data:      data,
	})
}

// Run executes the full C5 state machine for one job request and returns the
// completed EnrichmentSession, including its RunTrace.
func (r *Runner) Run(ctx context.Context, req model.JobRequest) (*model.EnrichmentSession, error) {
	budget := r.DefaultBudget
	if budget == (model.EnrichmentBudget{}) {
		budget = model.DefaultBudget()
	}
	if req.Budget != nil {
		budget = *req.Budget
	}
	ctx, cancel := context.WithTimeout(ctx, budget.OverallTimeout)
	defer cancel()

	now := time.Now()
	session := &model.EnrichmentSession{
		ID: req.SessionID, TenantID: req.TenantID, CandidateID: req.CandidateID,
		JobType: req.JobType, Status: model.SessionRunning, CreatedAt: now, StartedAt: &now,
	}

	candidate, err := r.Store.GetCandidate(ctx, req.TenantID, req.CandidateID)
	if err != nil {
		session.Status = model.SessionFailed
		session.ErrorMessage = err.Error()
		return session, eris.Wrapf(err, "discovery: load candidate %s/%s", req.TenantID, req.CandidateID)
	}
	if err := r.Store.SetEnrichmentStatus(ctx, req.TenantID, req.CandidateID, model.EnrichmentInProgress); err != nil {
		zap.L().Warn("discovery: set in_progress status failed", zap.Error(err))
	}

	seedHints := hints.Extract(hints.Input{
		Slug: candidate.LinkedInSlug, SERPTitle: candidate.SERPTitle, SERPSnippet: candidate.SERPSnippet,
		KnowledgeGraphName: candidate.SERPMetadata.KnowledgeGraphName, AnswerBoxText: candidate.SERPMetadata.AnswerBoxText,
		LocaleCountryCode: candidate.SERPMetadata.LocaleCountryCode, RoleType: candidate.RoleType,
		LinkedInID: candidate.LinkedInSlug, LinkedInURL: candidate.LinkedInURL,
	})

	trace := &model.RunTrace{InputEcho: candidate, SeedHints: seedHints, VariantStats: model.NewVariantStats()}
	tracker := newBudgetTracker(budget)
	r.emit(req.SessionID, "started", nil)

	githubLogins, reverseCollected := r.runReverseLink(ctx, seedHints, tracker, trace)
	collected := reverseCollected
	r.emit(req.SessionID, "reverse_link", map[string]any{"identities_found": len(reverseCollected)})

	stopReason, githubIdentities := r.runGitHubFanOut(ctx, seedHints, githubLogins, tracker, trace)
	collected = append(collected, githubIdentities...)
	r.emit(req.SessionID, "github", map[string]any{"identities_found": len(githubIdentities)})

	if stopReason == "" {
		var platformIdentities []ScoredIdentity
		stopReason, platformIdentities = r.runMultiPlatformFanOut(ctx, seedHints, budget, tracker, trace)
		collected = append(collected, platformIdentities...)
		r.emit(req.SessionID, "platform_fanout", map[string]any{"identities_found": len(platformIdentities)})
	}

	if stopReason == "" && tracker.queriesExhausted() {
		stopReason = model.EarlyStopBudgetExhausted
	}
	if stopReason == "" && tracker.platformsExhausted() {
		stopReason = model.EarlyStopAllPlatformsDone
	}

	persisted := r.aggregateAndPersist(ctx, req.TenantID, req.CandidateID, collected, trace)
	r.emit(req.SessionID, "aggregate", map[string]any{"persisted": len(persisted)})

	completed := time.Now()
	session.Status = model.SessionCompleted
	session.CompletedAt = &completed
	session.Duration = completed.Sub(now)
	queriesExecuted, _ := tracker.snapshot()
	session.ExecutedQueries = queriesExecuted
	session.IdentitiesFound = trace.TotalIdentitiesFound
	session.IdentitiesConfirmed = len(persisted)
	session.FinalConfidence = trace.BestConfidence
	session.EarlyStopReason = stopReason
	session.RunTrace = trace

	if err := r.Store.SetEnrichmentStatus(ctx, req.TenantID, req.CandidateID, model.EnrichmentCompleted); err != nil {
		zap.L().Warn("discovery: set completed status failed", zap.Error(err))
	}
	r.emit(req.SessionID, "complete", map[string]any{
		"identities_confirmed": session.IdentitiesConfirmed,
		"early_stop_reason":    string(session.EarlyStopReason),
	})
	return session, nil
}

// runReverseLink is phase 2: plan URL-anchored queries, execute them against
// the merged general-web providers, and parse each result for a reverse
// LinkedIn-mention bridge.
func (r *Runner) runReverseLink(ctx context.Context, h model.EnrichedHints, tracker *budgetTracker, trace *model.RunTrace) (githubLogins []string, identities []ScoredIdentity) {
	queries := planner.PlanReverseLink(h, tracker.queriesRemaining())
	seenLogins := map[string]bool{}

	for _, provider := range r.GeneralWebProviders {
		diag := model.PlatformDiagnostics{Platform: "reverse_link", Provider: provider, ScoringVersion: model.ScoringVersion}
		start := time.Now()
		var aboveMin, guard, persistedCount int

		for _, q := range queries {
			if tracker.queriesExhausted() {
				break
			}
			results, err := r.Executor.Execute(ctx, provider, q, r.resultsPerQuery())
			tracker.recordQueries(1)
			diag.QueriesExecuted++
			if err != nil {
				if model.KindOf(err) == model.ErrRateLimited {
					diag.RateLimited = true
				}
				diag.Error = err.Error()
				continue
			}
			diag.RawResultCount += len(results)

			for _, res := range results {
				hit, ok := ParseReverseLinkHit(res)
				if !ok {
					continue
				}
				diag.MatchedResultCount++
				if hit.Platform == "github" && !hit.ConferenceSpeaker {
					if !seenLogins[hit.PlatformID] {
						seenLogins[hit.PlatformID] = true
						githubLogins = append(githubLogins, hit.PlatformID)
					}
					continue
				}
				// A conference/speaker-page hit (spec.md §8, S3) is scored
				// directly from the reverse-link evidence itself rather than
				// deferred to the GitHub direct-fetch phase: the signal here is
				// the third-party mention, not the login's own profile content.
				signals := []model.Signal{hit.Signal}
				if hit.ConferenceSpeaker {
					signals = append(signals, model.SignalConferenceSpeaker)
				}
				if hasCorroboratingHint(res, h) {
					signals = append(signals, model.SignalReverseLinkHintMatch)
				}
				scored := scoreFromSignals(h, hit.Platform, signals)
				ident := scoreToIdentity("", "", hit.Platform, hit.PlatformID, hit.ProfileURL, scored, hit.SERPPosition, "reverse_link")
				identities = append(identities, ident)
				if scored.Breakdown.Total >= r.ScoringConfig.MinConfidence {
					aboveMin++
				}
				if p, _ := scorer.ShouldPersist(scored, hit.Platform, 0, r.ScoringConfig); p {
					guard++
					persistedCount++
				}
			}
		}
		diag.Duration = time.Since(start)
		diag.IdentitiesFound = diag.MatchedResultCount
		trace.AddPlatform(diag, aboveMin, guard, persistedCount)
	}
	return githubLogins, identities
}

// scoreFromSignals builds a minimal ProfileFacts carrying only the
// discovered signal and scores it, used for reverse-link hits where we have
// no richer profile data yet.
func scoreFromSignals(h model.EnrichedHints, platform string, signals []model.Signal) scorer.Result {
	facts := scorer.ProfileFacts{Platform: platform, Name: h.Name.String()}
	for _, s := range signals {
		switch s {
		case model.SignalLinkedInURLInBio:
			facts.LinkedInURLFoundIn = "bio"
		case model.SignalLinkedInURLInBlog:
			facts.LinkedInURLFoundIn = "blog"
		case model.SignalLinkedInURLInPage:
			facts.LinkedInURLFoundIn = "page"
		case model.SignalLinkedInURLInTeamPage:
			facts.LinkedInURLFoundIn = "team_page"
		case model.SignalReverseLinkHintMatch:
			facts.ReverseLinkHintMatch = true
		case model.SignalConferenceSpeaker:
			facts.ConferenceSpeaker = true
		}
	}
	return scorer.Score(h, facts)
}

// runGitHubFanOut is phase 3: resolve every login discovered via reverse
// link plus a name-based GitHub user search, score each via C4, and return
// the early-stop reason if a Tier-1 match or a high-confidence identity
// appears.
func (r *Runner) runGitHubFanOut(ctx context.Context, h model.EnrichedHints, reverseLogins []string, tracker *budgetTracker, trace *model.RunTrace) (model.EarlyStopReason, []ScoredIdentity) {
	if r.GitHub == nil {
		return "", nil
	}
	nameQueries := planner.PlatformHandlePlan("github", "github.com", h, tracker.queriesRemaining())
	logins := append([]string{}, reverseLogins...)
	for _, q := range nameQueries {
		if tracker.queriesExhausted() {
			break
		}
		results, err := r.Executor.Execute(ctx, "github", q, r.resultsPerQuery())
		tracker.recordQueries(1)
		if err != nil {
			continue
		}
		for _, res := range results {
			if login, ok := githubLoginFromURL(res.URL); ok {
				logins = append(logins, login)
			}
		}
	}

	tracker.recordPlatformAttempt()
	diag := model.PlatformDiagnostics{Platform: "github", Provider: "github", ScoringVersion: model.ScoringVersion}
	start := time.Now()
	var identities []ScoredIdentity
	var aboveMin, guard, persistedCount int
	var reason model.EarlyStopReason

	for _, login := range dedupeStrings(logins) {
		facts, ok, err := r.GitHub.FetchProfile(ctx, login)
		if err != nil || !ok {
			continue
		}
		res := scorer.Score(h, facts)
		diag.RawResultCount++
		diag.MatchedResultCount++
		ident := scoreToIdentity("", "", "github", login, fmt.Sprintf("https://github.com/%s", login), res, 0, "github_direct")
		identities = append(identities, ident)
		if res.Breakdown.Total > diag.BestConfidence {
			diag.BestConfidence = res.Breakdown.Total
		}
		if res.Breakdown.Total >= r.ScoringConfig.MinConfidence {
			aboveMin++
		}
		persist, _ := scorer.ShouldPersist(res, "github", 0, r.ScoringConfig)
		if persist {
			guard++
			persistedCount++
			if res.Bridge.Tier == 1 {
				reason = model.EarlyStopTier1Found
			} else if res.Breakdown.Total >= r.ScoringConfig.AutoMergeThreshold {
				reason = model.EarlyStopHighConfidence
			}
		}
	}
	diag.Duration = time.Since(start)
	diag.IdentitiesFound = len(identities)
	trace.AddPlatform(diag, aboveMin, guard, persistedCount)
	return reason, identities
}

// runMultiPlatformFanOut is phase 4: call every configured non-GitHub
// adapter concurrently, bounded by budget.MaxParallelPlatforms.
func (r *Runner) runMultiPlatformFanOut(ctx context.Context, h model.EnrichedHints, budget model.EnrichmentBudget, tracker *budgetTracker, trace *model.RunTrace) (model.EarlyStopReason, []ScoredIdentity) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxInt(1, budget.MaxParallelPlatforms))

	results := make([]AdapterResult, len(r.Adapters))
	names := make([]string, len(r.Adapters))
	for i, a := range r.Adapters {
		if a.Platform() == "github" {
			continue
		}
		if tracker.platformsExhausted() {
			break
		}
		i, a := i, a
		tracker.recordPlatformAttempt()
		names[i] = a.Platform()
		g.Go(func() error {
			results[i] = a.Discover(gctx, h, budget)
			return nil
		})
	}
	_ = g.Wait()

	var reason model.EarlyStopReason
	var collected []ScoredIdentity
	for i, res := range results {
		if names[i] == "" {
			continue
		}
		tracker.recordQueries(res.QueriesExecuted)
		diag := model.PlatformDiagnostics{
			Platform: names[i], Provider: res.Provider, QueriesExecuted: res.QueriesExecuted,
			RawResultCount: res.RawResultCount, Duration: res.Duration, RateLimited: res.RateLimited,
			ScoringVersion: model.ScoringVersion,
		}
		if res.Err != nil {
			diag.Error = res.Err.Error()
		}
		var aboveMin, guard, persistedCount int
		capped := capIdentities(res.Identities, budget.MaxIdentitiesPerPlatform)
		for _, ident := range capped {
			diag.MatchedResultCount++
			if ident.Candidate.Confidence > diag.BestConfidence {
				diag.BestConfidence = ident.Candidate.Confidence
			}
			if ident.Candidate.Confidence >= r.ScoringConfig.MinConfidence {
				aboveMin++
			}
			sres := scorer.Result{Breakdown: ident.Candidate.ScoreBreakdown, Bridge: model.BridgeDetection{Tier: ident.Candidate.BridgeTier, Signals: ident.Candidate.BridgeSignals}}
			if persist, _ := scorer.ShouldPersist(sres, names[i], 0, r.ScoringConfig); persist {
				guard++
				persistedCount++
				if ident.Candidate.BridgeTier == 1 {
					reason = model.EarlyStopTier1Found
				} else if ident.Candidate.Confidence >= r.ScoringConfig.AutoMergeThreshold {
					reason = model.EarlyStopHighConfidence
				}
			}
		}
		diag.IdentitiesFound = len(capped)
		trace.AddPlatform(diag, aboveMin, guard, persistedCount)
		collected = append(collected, capped...)
	}
	return reason, collected
}

// aggregateAndPersist is phases 5-6: sort deterministically, apply the
// persistence gate with a run-global Tier-2 cap, and upsert survivors.
// tenantID/candidateID are backfilled onto every identity here rather than at
// each discovery site, since the reverse-link and GitHub phases score
// identities before the candidate's own ids are back in scope.
func (r *Runner) aggregateAndPersist(ctx context.Context, tenantID, candidateID string, collected []ScoredIdentity, trace *model.RunTrace) []model.IdentityCandidate {
	aggregateSort(collected)

	var toPersist []model.IdentityCandidate
	tier2Count := 0
	for _, ident := range collected {
		ident.Candidate.TenantID = tenantID
		ident.Candidate.CandidateID = candidateID

		sres := scorer.Result{
			Breakdown: ident.Candidate.ScoreBreakdown,
			Bridge:    model.BridgeDetection{Tier: ident.Candidate.BridgeTier, Signals: ident.Candidate.BridgeSignals},
		}
		persist, reasonCode := scorer.ShouldPersist(sres, ident.Candidate.Platform, tier2Count, r.ScoringConfig)
		if !persist {
			trace.AddRejected(ident.Candidate.Platform, ident.Candidate.PlatformID,
				humanPersistReason(reasonCode, tier2Count, r.ScoringConfig.Tier2Cap))
			continue
		}
		reasonCount := tier2Count
		if ident.Candidate.BridgeTier == 2 {
			tier2Count++
			reasonCount = tier2Count
		}
		ident.Candidate.PersistReason = humanPersistReason(reasonCode, reasonCount, r.ScoringConfig.Tier2Cap)
		toPersist = append(toPersist, ident.Candidate)
	}

	if len(toPersist) > 0 {
		if err := r.Store.UpsertIdentityCandidates(ctx, toPersist); err != nil {
			trace.PersistErrors = append(trace.PersistErrors, err.Error())
		}
	}
	return toPersist
}

func githubLoginFromURL(rawURL string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	platform, id, _, ok := routeByHost(strings.ToLower(strings.TrimPrefix(u.Host, "www.")), u.Path)
	if !ok || platform != "github" {
		return "", false
	}
	return id, true
}

func dedupeStrings(ss []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range ss {
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func capIdentities(identities []ScoredIdentity, max int) []ScoredIdentity {
	if max <= 0 || len(identities) <= max {
		return identities
	}
	return identities[:max]
}

// humanPersistReason translates scorer.ShouldPersist's machine-readable
// reason code into the operator/recruiter-facing text spec.md's scenarios
// quote verbatim (S1: "Tier-1 bridge, auto-merge eligible...", S5: "Cap
// exceeded (3/3)"). tier2Count is the Tier-2 counter's value at the moment
// of this decision (post-increment when persist succeeded, unchanged when
// the cap was already exhausted).
func humanPersistReason(code string, tier2Count, tier2Cap int) string {
	switch code {
	case "tier1_always_persists":
		return "Tier-1 bridge, auto-merge eligible"
	case "tier2_within_cap":
		return fmt.Sprintf("Tier-2 human review queued (%d/%d)", tier2Count, tier2Cap)
	case "tier2_cap_exhausted":
		return fmt.Sprintf("Cap exceeded (%d/%d)", tier2Count, tier2Cap)
	case "tier3_bridge_weight":
		return "Tier-3 speculative match: bridge evidence present"
	case "tier3_handle_match":
		return "Tier-3 speculative match: handle match above threshold"
	case "tier3_name_plus_secondary_signal":
		return "Tier-3 speculative match: name plus corroborating signal"
	case "tier3_below_min_confidence":
		return "Below minimum confidence for a speculative match"
	case "tier3_gate_not_satisfied":
		return "Tier-3 gate not satisfied: no bridge, handle, or corroborated name match"
	case "github_name_only_false_positive":
		return "Dropped as GitHub name-only false positive"
	default:
		return code
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
