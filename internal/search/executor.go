// Package search implements C3, the search executor: it issues Query
// records against external web-search and platform-native providers with
// per-provider token-bucket rate limiting, retry/backoff, a rate-limit
// fail-fast predicate, and a pluggable transport so the evaluation harness
// can swap in deterministic replay fixtures (spec.md §4.3).
package search

import (
	"context"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/resilience"
)

// Result is a single search hit returned by a provider.
type Result struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

// Transport issues one query against one provider. Fixture transports used
// by the replay harness and live HTTP transports both implement this.
type Transport interface {
	Search(ctx context.Context, provider string, query model.Query, limit int) ([]Result, error)
}

// Quota tracks a provider's remaining-requests/reset-time state, as parsed
// from response headers (spec.md §4.3).
type Quota struct {
	Remaining int
	ResetAt   time.Time
}

// ProviderConfig configures one provider's token bucket.
type ProviderConfig struct {
	QPS   float64
	Burst int
}

// Executor is C3: stateful only at the provider-pool level, exposing no
// mutable global config after construction (spec.md §4.3, final paragraph).
type Executor struct {
	transport Transport
	mu        sync.Mutex
	limiters  map[string]*rate.Limiter
	quotas    map[string]Quota
	retry     RetryPolicy
}

// RetryPolicy controls the exponential-backoff-with-jitter retry loop
// (spec.md §4.3): base ~1s, cap ~30s, max 3 attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// DefaultRetryPolicy returns the spec-mandated defaults.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, MaxDelay: 30 * time.Second}
}

// NewExecutor constructs an Executor with a token bucket per named provider.
func NewExecutor(transport Transport, providers map[string]ProviderConfig, retry RetryPolicy) *Executor {
	limiters := make(map[string]*rate.Limiter, len(providers))
	for name, cfg := range providers {
		limiters[name] = rate.NewLimiter(rate.Limit(cfg.QPS), cfg.Burst)
	}
	return &Executor{
		transport: transport,
		limiters:  limiters,
		quotas:    make(map[string]Quota),
		retry:     retry,
	}
}

// failFastWindow and failFastRemaining implement the fail-fast predicate
// (spec.md §4.3, §8 property 7): abort immediately when 5 or fewer
// requests remain and the reset is more than 5 minutes away.
const (
	failFastRemaining = 5
	failFastWindow    = 5 * time.Minute
)

// Execute issues query against provider, honouring the token bucket, the
// fail-fast predicate, and the retry policy. Returns a *model.KindedError on
// failure with one of the error kinds from spec.md §7. The retry loop itself
// is resilience.DoVal, the teacher's exponential-backoff-with-jitter helper
// (internal/store reuses the same package's DLQEntry/DLQFilter types for its
// dead-letter queue), rather than a second hand-rolled copy of the same loop.
func (e *Executor) Execute(ctx context.Context, provider string, query model.Query, limit int) ([]Result, error) {
	if quota, ok := e.quotaFor(provider); ok {
		if quota.Remaining <= failFastRemaining && time.Until(quota.ResetAt) > failFastWindow {
			return nil, model.NewKindedError(model.ErrRateLimited, nil, "provider quota exhausted, reset far away")
		}
	}

	limiter := e.limiterFor(provider)
	rcfg := resilience.RetryConfig{
		MaxAttempts:    e.retryAttempts(),
		InitialBackoff: e.retry.BaseDelay,
		MaxBackoff:     e.retry.MaxDelay,
		Multiplier:     2.0,
		JitterFraction: 0.25,
		ShouldRetry:    func(err error) bool { return isRetryable(model.KindOf(err)) },
		OnRetry: func(attempt int, err error) {
			resilience.RetryLogger("search", provider)(attempt, err)
		},
	}

	results, err := resilience.DoVal(ctx, rcfg, func(ctx context.Context) ([]Result, error) {
		if werr := limiter.Wait(ctx); werr != nil {
			return nil, eris.Wrap(werr, "search: rate limiter wait")
		}
		return e.transport.Search(ctx, provider, query, limit)
	})
	if err != nil {
		return nil, eris.Wrapf(err, "search: execute %s query (variant %s)", provider, query.VariantID)
	}
	return results, nil
}

// isRetryable implements spec.md §4.3: retry 429/403 and 5xx (rate_limited,
// provider_unavailable), never retry other 4xx (auth, not_found).
func isRetryable(kind model.ErrorKind) bool {
	switch kind {
	case model.ErrRateLimited, model.ErrProviderUnavailable, model.ErrNetwork, model.ErrTransient:
		return true
	default:
		return false
	}
}

func (e *Executor) retryAttempts() int {
	if e.retry.MaxAttempts > 0 {
		return e.retry.MaxAttempts
	}
	return DefaultRetryPolicy().MaxAttempts
}

func (e *Executor) limiterFor(provider string) *rate.Limiter {
	e.mu.Lock()
	defer e.mu.Unlock()
	if lim, ok := e.limiters[provider]; ok {
		return lim
	}
	lim := rate.NewLimiter(2, 2)
	e.limiters[provider] = lim
	return lim
}

// RecordQuota stores the latest remaining/reset state for provider, as
// parsed from response headers by the live HTTP transport.
func (e *Executor) RecordQuota(provider string, q Quota) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.quotas[provider] = q
}

func (e *Executor) quotaFor(provider string) (Quota, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.quotas[provider]
	return q, ok
}
