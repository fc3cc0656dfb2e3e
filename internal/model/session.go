package model

import "time"

// SessionStatus is the lifecycle of an EnrichmentSession (spec.md §3, §4.6).
type SessionStatus string

const (
	SessionQueued    SessionStatus = "queued"
	SessionRunning   SessionStatus = "running"
	SessionCompleted SessionStatus = "completed"
	SessionFailed    SessionStatus = "failed"
	SessionCancelled SessionStatus = "cancelled"
)

// JobType distinguishes a full resolution from a summary-only job (spec.md §4.6).
type JobType string

const (
	JobEnrich      JobType = "enrich"
	JobSummaryOnly JobType = "summary_only"
)

// EnrichmentBudget bounds one resolution run (spec.md §4.5).
type EnrichmentBudget struct {
	MaxTotalQueries           int           `json:"max_total_queries"`
	MaxPlatforms              int           `json:"max_platforms"`
	MaxIdentitiesPerPlatform  int           `json:"max_identities_per_platform"`
	OverallTimeout            time.Duration `json:"overall_timeout"`
	MaxParallelPlatforms      int           `json:"max_parallel_platforms"`
	MinConfidenceForEarlyStop float64       `json:"min_confidence_for_early_stop"`
}

// DefaultBudget returns the spec-mandated defaults (spec.md §4.5).
func DefaultBudget() EnrichmentBudget {
	return EnrichmentBudget{
		MaxTotalQueries:           30,
		MaxPlatforms:              10,
		MaxIdentitiesPerPlatform:  5,
		OverallTimeout:            60 * time.Second,
		MaxParallelPlatforms:      3,
		MinConfidenceForEarlyStop: 0.90,
	}
}

// EarlyStopReason names why a run stopped before exhausting every platform.
type EarlyStopReason string

const (
	EarlyStopTier1Found        EarlyStopReason = "tier1_found"
	EarlyStopBudgetExhausted   EarlyStopReason = "budget_exhausted"
	EarlyStopAllPlatformsDone  EarlyStopReason = "all_platforms_attempted"
	EarlyStopHighConfidence    EarlyStopReason = "high_confidence_identity"
)

// EnrichmentSession is the durable record of one resolution run (spec.md §3).
type EnrichmentSession struct {
	ID                string           `json:"id"`
	TenantID          string           `json:"tenant_id"`
	CandidateID       string           `json:"candidate_id"`
	JobType           JobType          `json:"job_type"`
	Status            SessionStatus    `json:"status"`
	PlannedSources    []string         `json:"planned_sources,omitempty"`
	ExecutedSources   []string         `json:"executed_sources,omitempty"`
	PlannedQueries    int              `json:"planned_queries"`
	ExecutedQueries   int              `json:"executed_queries"`
	EarlyStopReason   EarlyStopReason  `json:"early_stop_reason,omitempty"`
	IdentitiesFound   int              `json:"identities_found"`
	IdentitiesConfirmed int            `json:"identities_confirmed"`
	FinalConfidence   float64          `json:"final_confidence"`
	ErrorMessage      string           `json:"error_message,omitempty"`
	ErrorDetails      map[string]any   `json:"error_details,omitempty"`
	CreatedAt         time.Time        `json:"created_at"`
	StartedAt         *time.Time       `json:"started_at,omitempty"`
	CompletedAt       *time.Time       `json:"completed_at,omitempty"`
	Duration          time.Duration    `json:"duration"`
	RunTrace          *RunTrace        `json:"run_trace,omitempty"`
}

// JobRequest is the payload enqueued onto the durable queue (spec.md §4.6,
// §6 Enqueue API). Enqueue is idempotent: the session id is also the job id.
type JobRequest struct {
	SessionID   string            `json:"session_id"`
	CandidateID string            `json:"candidate_id"`
	TenantID    string            `json:"tenant_id"`
	JobType     JobType           `json:"job_type"`
	RoleType    RoleType          `json:"role_type,omitempty"`
	Budget      *EnrichmentBudget `json:"budget,omitempty"`
	Priority    int               `json:"priority,omitempty"`
}
