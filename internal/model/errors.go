package model

import (
	"errors"
	"time"

	"github.com/rotisserie/eris"
)

// ErrorKind enumerates the error taxonomy of spec.md §7. Each kind carries
// its own retry/propagation policy, applied by the caller (C3's retry loop,
// C5's per-platform isolation, C6's job lifecycle).
type ErrorKind string

const (
	ErrCandidateNotFound ErrorKind = "candidate_not_found" // fatal per job
	ErrAccessDenied      ErrorKind = "access_denied"       // fatal per job
	ErrRateLimited       ErrorKind = "rate_limited"        // recoverable, honours Retry-After
	ErrProviderUnavailable ErrorKind = "provider_unavailable" // recoverable, exponential backoff
	ErrParseError        ErrorKind = "parse_error"         // non-fatal, result dropped + sampled
	ErrBudgetExhausted   ErrorKind = "budget_exhausted"    // non-error, partial result
	ErrTimeout           ErrorKind = "timeout"             // propagates as early-stop reason
	ErrPersistConflict   ErrorKind = "persist_conflict"    // logged per-identity, non-fatal
	ErrNetwork           ErrorKind = "network"
	ErrAuth              ErrorKind = "auth"
	ErrNotFound          ErrorKind = "not_found"
	ErrTransient         ErrorKind = "transient"
	ErrFatal             ErrorKind = "fatal"
)

// KindedError wraps an error with its ErrorKind so callers can branch on
// classification without string-matching.
type KindedError struct {
	Kind ErrorKind
	Err  error

	// RetryAfter is the server-specified delay before a retry should be
	// attempted (spec.md §4.3, §7: rate_limited honours Retry-After), zero
	// when the provider gave no such hint.
	RetryAfter time.Duration
}

func (e *KindedError) Error() string { return e.Err.Error() }
func (e *KindedError) Unwrap() error { return e.Err }

// RetryAfterHint implements the retry-after hint interface that
// internal/resilience's backoff computation duck-types against, so that
// package never needs to import model.
func (e *KindedError) RetryAfterHint() (time.Duration, bool) {
	if e.RetryAfter <= 0 {
		return 0, false
	}
	return e.RetryAfter, true
}

// NewKindedError wraps err (or a new eris error from msg, if err is nil)
// with the given kind.
func NewKindedError(kind ErrorKind, err error, msg string) *KindedError {
	if err == nil {
		err = eris.New(msg)
	} else if msg != "" {
		err = eris.Wrap(err, msg)
	}
	return &KindedError{Kind: kind, Err: err}
}

// NewRateLimitedError builds a rate_limited KindedError carrying the
// server's Retry-After delay, used by transports that honour it (spec.md
// §4.3, §7).
func NewRateLimitedError(msg string, retryAfter time.Duration) *KindedError {
	return &KindedError{Kind: ErrRateLimited, Err: eris.New(msg), RetryAfter: retryAfter}
}

// KindOf extracts the ErrorKind from err if it (or something in its chain)
// is a *KindedError, otherwise returns ErrFatal.
func KindOf(err error) ErrorKind {
	var ke *KindedError
	if errors.As(err, &ke) {
		return ke.Kind
	}
	return ErrFatal
}

// IsFatalJobError reports whether kind should terminate a job without retry
// (spec.md §4.6, §7).
func IsFatalJobError(kind ErrorKind) bool {
	return kind == ErrCandidateNotFound || kind == ErrAccessDenied
}
