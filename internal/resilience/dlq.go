package resilience

import (
	"time"
)

// DLQEntry represents a failed enrichment job that can be retried later.
// TenantID/CandidateID/SessionID identify the job without needing the full
// model.JobRequest, so resilience stays free of a model import cycle.
type DLQEntry struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenant_id"`
	CandidateID  string    `json:"candidate_id"`
	SessionID    string    `json:"session_id"`
	Error        string    `json:"error"`
	ErrorType    string    `json:"error_type"` // "transient" or "permanent"
	FailedPhase  string    `json:"failed_phase,omitempty"`
	RetryCount   int       `json:"retry_count"`
	MaxRetries   int       `json:"max_retries"`
	NextRetryAt  time.Time `json:"next_retry_at"`
	CreatedAt    time.Time `json:"created_at"`
	LastFailedAt time.Time `json:"last_failed_at"`
}

// DLQFilter specifies criteria for querying the dead letter queue.
type DLQFilter struct {
	ErrorType string `json:"error_type,omitempty"` // "transient", "permanent", or "" for all
	Limit     int    `json:"limit,omitempty"`
}

// CanRetry returns true if this entry hasn't exceeded its max retry count.
func (e *DLQEntry) CanRetry() bool {
	return e.RetryCount < e.MaxRetries
}

// ClassifyError categorizes an error as "transient" or "permanent".
func ClassifyError(err error) string {
	if IsTransient(err) {
		return "transient"
	}
	return "permanent"
}
