package model

import "time"

// PlatformDiagnostics is C7's per-platform slice of the run trace (spec.md §4.7).
type PlatformDiagnostics struct {
	Platform          string        `json:"platform"`
	QueriesExecuted   int           `json:"queries_executed"`
	RawResultCount    int           `json:"raw_result_count"`
	MatchedResultCount int          `json:"matched_result_count"`
	IdentitiesFound   int           `json:"identities_found"`
	BestConfidence    float64       `json:"best_confidence"`
	Duration          time.Duration `json:"duration"`
	Error             string        `json:"error,omitempty"`
	RateLimited       bool          `json:"rate_limited"`
	Provider          string        `json:"provider,omitempty"`
	ScoringVersion    string        `json:"scoring_version"`
	UnmatchedSample   []string      `json:"unmatched_sample,omitempty"`
}

// Funnel is the four-stage identity count recorded per platform and in
// aggregate (spec.md §4.7, Glossary).
type Funnel struct {
	FoundTotal          int `json:"found_total"`
	AboveMinConfidence  int `json:"above_min_confidence"`
	PassingPersistGuard int `json:"passing_persist_guard"`
	Persisted           int `json:"persisted"`
}

// VariantStats records how many times each query variant id was executed vs
// rejected during planning truncation.
type VariantStats struct {
	Executed map[string]int `json:"executed"`
	Rejected map[string]int `json:"rejected"`
}

// NewVariantStats returns an empty, ready-to-use VariantStats.
func NewVariantStats() VariantStats {
	return VariantStats{Executed: map[string]int{}, Rejected: map[string]int{}}
}

// ShadowScoringSummary reports the non-authoritative shadow dynamic scorer's
// aggregate behaviour for observability only (spec.md §4.4).
type ShadowScoringSummary struct {
	Computed          int     `json:"computed"`
	MeanDelta         float64 `json:"mean_delta"`
	MaxDelta          float64 `json:"max_delta"`
	WouldChangeBucket int     `json:"would_change_bucket"`
}

// RunTrace is the structured diagnostic record attached to an
// EnrichmentSession (spec.md §3, §4.7).
type RunTrace struct {
	InputEcho            Candidate              `json:"input_echo"`
	SeedHints            EnrichedHints          `json:"seed_hints"`
	Platforms            []PlatformDiagnostics  `json:"platforms"`
	TotalIdentitiesFound int                    `json:"total_identities_found"`
	ProvidersUsed        []string               `json:"providers_used"`
	RateLimitedProviders []string               `json:"rate_limited_providers"`
	Funnel               Funnel                 `json:"funnel"`
	VariantStats         VariantStats           `json:"variant_stats"`
	PersistErrors        []string               `json:"persist_errors,omitempty"`
	BestConfidence       float64                `json:"best_confidence"`
	ShadowScoring        ShadowScoringSummary   `json:"shadow_scoring"`
	FailureReason        string                 `json:"failure_reason,omitempty"`
	SummaryMetadata      map[string]any         `json:"summary_metadata,omitempty"`

	// RejectedSample is a bounded sample of "platform/platformId: reason"
	// strings for identities the persistence gate dropped, sufficient to
	// debug a zero-hit run without retaining one entry per rejection.
	RejectedSample []string `json:"rejected_sample,omitempty"`
}

// maxRejectedSample bounds RejectedSample so a run with many weak Tier-3
// candidates doesn't bloat the trace.
const maxRejectedSample = 20

// AddRejected records one persistence-gate drop, up to maxRejectedSample.
func (t *RunTrace) AddRejected(platform, platformID, reason string) {
	if len(t.RejectedSample) >= maxRejectedSample {
		return
	}
	t.RejectedSample = append(t.RejectedSample, platform+"/"+platformID+": "+reason)
}

// AddPlatform appends a platform's diagnostics and rolls its counts into the
// aggregate funnel and totals. aboveMin/passingGuard/persisted are the
// platform-local funnel counts the caller computed while processing results.
func (t *RunTrace) AddPlatform(d PlatformDiagnostics, aboveMin, passingGuard, persisted int) {
	t.Platforms = append(t.Platforms, d)
	t.TotalIdentitiesFound += d.IdentitiesFound
	t.Funnel.FoundTotal += d.IdentitiesFound
	t.Funnel.AboveMinConfidence += aboveMin
	t.Funnel.PassingPersistGuard += passingGuard
	t.Funnel.Persisted += persisted
	if d.BestConfidence > t.BestConfidence {
		t.BestConfidence = d.BestConfidence
	}
	if d.Provider != "" && !contains(t.ProvidersUsed, d.Provider) {
		t.ProvidersUsed = append(t.ProvidersUsed, d.Provider)
	}
	if d.RateLimited && !contains(t.RateLimitedProviders, d.Provider) {
		t.RateLimitedProviders = append(t.RateLimitedProviders, d.Provider)
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}
