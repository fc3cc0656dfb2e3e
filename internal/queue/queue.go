// Package queue implements C6, the durable job queue and worker pool: an
// idempotent enqueue keyed by session id, a worker pool with configurable
// concurrency, progress events, and a graceful SIGTERM drain (spec.md §4.6).
package queue

import (
	"context"

	"github.com/sells-group/identity-resolver/internal/model"
)

// RunFunc executes one enrichment job end to end and returns the completed
// session. Satisfied by (*discovery.Runner).Run.
type RunFunc func(ctx context.Context, req model.JobRequest) (*model.EnrichmentSession, error)

// Queue is the narrow interface the CLI and HTTP server depend on. Both
// LocalQueue and TemporalQueue implement it, so callers never care which
// backend is configured (spec.md §6, DOMAIN STACK).
type Queue interface {
	// Enqueue durably records req and schedules it for execution. Enqueue is
	// idempotent: calling it twice with the same SessionID is a no-op the
	// second time.
	Enqueue(ctx context.Context, req model.JobRequest) error
	// Session returns the current state of a previously enqueued job.
	Session(ctx context.Context, sessionID string) (*model.EnrichmentSession, error)
	// Depth reports a backend-specific load figure for the /health endpoint:
	// jobs queued but not yet started for LocalQueue, the configured poller
	// count for TemporalQueue.
	Depth(ctx context.Context) (int, error)
	Close() error
}
