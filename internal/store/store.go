// Package store defines the persistence interface for the identity
// resolution engine and its two backends: an embedded SQLite store for
// local development and the deterministic test suite, and a Postgres store
// for production (spec.md §6 "Persisted state layout").
package store

import (
	"context"
	"time"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/resilience"
)

// SessionFilter narrows GetRecentSessions beyond the plain limit.
type SessionFilter struct {
	CandidateID string
	Limit       int
}

// Store is the slice of persistence the engine needs: the candidate anchor
// (owned by ingestion outside the core, read-only here except for status
// advancement), the identity_candidate and enrichment_session tables this
// engine owns outright, and the shared dead-letter queue (spec.md §3, §6).
type Store interface {
	// Candidate (input anchor; mutated only to advance status/timestamp).
	GetCandidate(ctx context.Context, tenantID, candidateID string) (model.Candidate, error)
	SetEnrichmentStatus(ctx context.Context, tenantID, candidateID string, status model.EnrichmentStatus) error

	// identity_candidate, keyed by (tenant_id, candidate_id, platform, platform_id).
	UpsertIdentityCandidates(ctx context.Context, identities []model.IdentityCandidate) error
	ListIdentityCandidates(ctx context.Context, tenantID, candidateID string) ([]model.IdentityCandidate, error)

	// enrichment_session.
	CreateSession(ctx context.Context, session *model.EnrichmentSession) error
	UpdateSession(ctx context.Context, session *model.EnrichmentSession) error
	GetSession(ctx context.Context, sessionID string) (*model.EnrichmentSession, error)
	GetRecentSessions(ctx context.Context, candidateID string, limit int) ([]model.EnrichmentSession, error)

	// Dead letter queue for jobs that exhausted the worker's retry policy.
	EnqueueDLQ(ctx context.Context, entry resilience.DLQEntry) error
	DequeueDLQ(ctx context.Context, filter resilience.DLQFilter) ([]resilience.DLQEntry, error)
	IncrementDLQRetry(ctx context.Context, id string, nextRetryAt time.Time, lastErr string) error
	RemoveDLQ(ctx context.Context, id string) error
	CountDLQ(ctx context.Context) (int, error)

	// Lifecycle.
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
