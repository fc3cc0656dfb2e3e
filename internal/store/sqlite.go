package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // Register the pure-Go SQLite driver.

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/resilience"
)

// SQLiteStore implements Store using modernc.org/sqlite. It is the embedded
// backend for local development and the deterministic test suite (spec.md §6).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?"
	} else {
		dsn += "&"
	}
	dsn += "_pragma=busy_timeout(30000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(ON)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	db.SetMaxOpenConns(10)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, eris.Wrap(err, "sqlite: ping")
	}

	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	tenant_id         TEXT NOT NULL,
	candidate_id      TEXT NOT NULL,
	linkedin_slug     TEXT NOT NULL,
	linkedin_url      TEXT NOT NULL,
	serp_title        TEXT NOT NULL DEFAULT '',
	serp_snippet      TEXT NOT NULL DEFAULT '',
	serp_metadata     TEXT NOT NULL DEFAULT '{}',
	role_type         TEXT NOT NULL DEFAULT '',
	enrichment_status TEXT NOT NULL DEFAULT 'none',
	last_enriched_at  DATETIME,
	PRIMARY KEY (tenant_id, candidate_id)
);

CREATE TABLE IF NOT EXISTS identity_candidate (
	tenant_id          TEXT NOT NULL,
	candidate_id       TEXT NOT NULL,
	platform           TEXT NOT NULL,
	platform_id        TEXT NOT NULL,
	profile_url        TEXT NOT NULL,
	confidence         REAL NOT NULL,
	confidence_bucket  TEXT NOT NULL,
	score_breakdown    TEXT NOT NULL,
	evidence           TEXT NOT NULL DEFAULT '[]',
	has_contradiction  INTEGER NOT NULL DEFAULT 0,
	contradiction_note TEXT NOT NULL DEFAULT '',
	bridge_tier        INTEGER NOT NULL,
	bridge_signals     TEXT NOT NULL DEFAULT '[]',
	persist_reason     TEXT NOT NULL DEFAULT '',
	discovered_by      TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'unconfirmed',
	created_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at         DATETIME NOT NULL DEFAULT (datetime('now')),
	PRIMARY KEY (tenant_id, candidate_id, platform, platform_id)
);

CREATE INDEX IF NOT EXISTS idx_identity_candidate_candidate ON identity_candidate(tenant_id, candidate_id);

CREATE TABLE IF NOT EXISTS enrichment_session (
	id                   TEXT PRIMARY KEY,
	tenant_id            TEXT NOT NULL,
	candidate_id         TEXT NOT NULL,
	job_type             TEXT NOT NULL,
	status               TEXT NOT NULL DEFAULT 'queued',
	planned_sources      TEXT NOT NULL DEFAULT '[]',
	executed_sources     TEXT NOT NULL DEFAULT '[]',
	planned_queries      INTEGER NOT NULL DEFAULT 0,
	executed_queries     INTEGER NOT NULL DEFAULT 0,
	early_stop_reason    TEXT NOT NULL DEFAULT '',
	identities_found     INTEGER NOT NULL DEFAULT 0,
	identities_confirmed INTEGER NOT NULL DEFAULT 0,
	final_confidence     REAL NOT NULL DEFAULT 0,
	error_message        TEXT NOT NULL DEFAULT '',
	error_details        TEXT NOT NULL DEFAULT '{}',
	run_trace            TEXT NOT NULL DEFAULT '{}',
	created_at           DATETIME NOT NULL DEFAULT (datetime('now')),
	started_at           DATETIME,
	completed_at         DATETIME,
	duration_ns          INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_enrichment_session_candidate ON enrichment_session(candidate_id, created_at DESC);

CREATE TABLE IF NOT EXISTS dead_letter_queue (
	id             TEXT PRIMARY KEY,
	tenant_id      TEXT NOT NULL DEFAULT '',
	candidate_id   TEXT NOT NULL DEFAULT '',
	session_id     TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL,
	error_type     TEXT NOT NULL DEFAULT 'transient',
	failed_phase   TEXT,
	retry_count    INTEGER NOT NULL DEFAULT 0,
	max_retries    INTEGER NOT NULL DEFAULT 3,
	next_retry_at  DATETIME NOT NULL,
	created_at     DATETIME NOT NULL DEFAULT (datetime('now')),
	last_failed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_dlq_error_type ON dead_letter_queue(error_type);
CREATE INDEX IF NOT EXISTS idx_dlq_next_retry ON dead_letter_queue(next_retry_at);
`

func (s *SQLiteStore) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// GetCandidate implements Store.
func (s *SQLiteStore) GetCandidate(ctx context.Context, tenantID, candidateID string) (model.Candidate, error) {
	var c model.Candidate
	var metaJSON string
	var lastEnriched sql.NullTime

	err := s.db.QueryRowContext(ctx,
		`SELECT tenant_id, candidate_id, linkedin_slug, linkedin_url, serp_title, serp_snippet,
		        serp_metadata, role_type, enrichment_status, last_enriched_at
		 FROM candidates WHERE tenant_id = ? AND candidate_id = ?`,
		tenantID, candidateID,
	).Scan(&c.TenantID, &c.CandidateID, &c.LinkedInSlug, &c.LinkedInURL, &c.SERPTitle, &c.SERPSnippet,
		&metaJSON, &c.RoleType, &c.EnrichmentStatus, &lastEnriched)
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Candidate{}, model.NewKindedError(model.ErrCandidateNotFound, nil, fmt.Sprintf("candidate not found: %s/%s", tenantID, candidateID))
		}
		return model.Candidate{}, eris.Wrapf(err, "sqlite: get candidate %s/%s", tenantID, candidateID)
	}
	if err := json.Unmarshal([]byte(metaJSON), &c.SERPMetadata); err != nil {
		return model.Candidate{}, eris.Wrap(err, "sqlite: unmarshal serp_metadata")
	}
	if lastEnriched.Valid {
		t := lastEnriched.Time
		c.LastEnrichedAt = &t
	}
	return c, nil
}

// SetEnrichmentStatus implements Store.
func (s *SQLiteStore) SetEnrichmentStatus(ctx context.Context, tenantID, candidateID string, status model.EnrichmentStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET enrichment_status = ?, last_enriched_at = ? WHERE tenant_id = ? AND candidate_id = ?`,
		string(status), time.Now().UTC(), tenantID, candidateID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set enrichment status %s/%s", tenantID, candidateID)
	}
	return checkRowsAffected(res, "candidate", candidateID)
}

// UpsertIdentityCandidates implements Store. Each row is upserted individually
// inside a single transaction so a partial failure never leaves the table in
// an inconsistent state for the caller's persist-error accounting.
func (s *SQLiteStore) UpsertIdentityCandidates(ctx context.Context, identities []model.IdentityCandidate) error {
	if len(identities) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert tx")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, ic := range identities {
		scoreJSON, err := json.Marshal(ic.ScoreBreakdown)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal score_breakdown")
		}
		evidenceJSON, err := json.Marshal(ic.Evidence)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal evidence")
		}
		signalsJSON, err := json.Marshal(ic.BridgeSignals)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal bridge_signals")
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO identity_candidate (
				tenant_id, candidate_id, platform, platform_id, profile_url, confidence,
				confidence_bucket, score_breakdown, evidence, has_contradiction, contradiction_note,
				bridge_tier, bridge_signals, persist_reason, discovered_by, status, created_at, updated_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (tenant_id, candidate_id, platform, platform_id) DO UPDATE SET
				profile_url = excluded.profile_url,
				confidence = excluded.confidence,
				confidence_bucket = excluded.confidence_bucket,
				score_breakdown = excluded.score_breakdown,
				evidence = excluded.evidence,
				has_contradiction = excluded.has_contradiction,
				contradiction_note = excluded.contradiction_note,
				bridge_tier = excluded.bridge_tier,
				bridge_signals = excluded.bridge_signals,
				persist_reason = excluded.persist_reason,
				discovered_by = excluded.discovered_by,
				updated_at = excluded.updated_at`,
			ic.TenantID, ic.CandidateID, ic.Platform, ic.PlatformID, ic.ProfileURL, ic.Confidence,
			string(ic.ConfidenceBucket), string(scoreJSON), string(evidenceJSON), ic.HasContradiction, ic.ContradictionNote,
			ic.BridgeTier, string(signalsJSON), ic.PersistReason, ic.DiscoveredBy, string(ic.Status), now, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert identity %s/%s/%s/%s", ic.TenantID, ic.CandidateID, ic.Platform, ic.PlatformID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit upsert tx")
}

// ListIdentityCandidates implements Store.
func (s *SQLiteStore) ListIdentityCandidates(ctx context.Context, tenantID, candidateID string) ([]model.IdentityCandidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT tenant_id, candidate_id, platform, platform_id, profile_url, confidence, confidence_bucket,
		       score_breakdown, evidence, has_contradiction, contradiction_note, bridge_tier, bridge_signals,
		       persist_reason, discovered_by, status
		FROM identity_candidate WHERE tenant_id = ? AND candidate_id = ?
		ORDER BY bridge_tier ASC, confidence DESC`,
		tenantID, candidateID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list identity candidates")
	}
	defer rows.Close()

	var out []model.IdentityCandidate
	for rows.Next() {
		var ic model.IdentityCandidate
		var scoreJSON, evidenceJSON, signalsJSON string
		if err := rows.Scan(&ic.TenantID, &ic.CandidateID, &ic.Platform, &ic.PlatformID, &ic.ProfileURL,
			&ic.Confidence, &ic.ConfidenceBucket, &scoreJSON, &evidenceJSON, &ic.HasContradiction,
			&ic.ContradictionNote, &ic.BridgeTier, &signalsJSON, &ic.PersistReason, &ic.DiscoveredBy, &ic.Status); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan identity candidate")
		}
		if err := json.Unmarshal([]byte(scoreJSON), &ic.ScoreBreakdown); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal score_breakdown")
		}
		if err := json.Unmarshal([]byte(evidenceJSON), &ic.Evidence); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal evidence")
		}
		if err := json.Unmarshal([]byte(signalsJSON), &ic.BridgeSignals); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal bridge_signals")
		}
		out = append(out, ic)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list identity candidates iterate")
}

// CreateSession implements Store.
func (s *SQLiteStore) CreateSession(ctx context.Context, session *model.EnrichmentSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	plannedJSON, errDetailsJSON, traceJSON, err := sessionJSONColumns(session)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO enrichment_session (
			id, tenant_id, candidate_id, job_type, status, planned_sources, executed_sources,
			planned_queries, executed_queries, early_stop_reason, identities_found, identities_confirmed,
			final_confidence, error_message, error_details, run_trace, created_at, started_at, completed_at, duration_ns
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		session.ID, session.TenantID, session.CandidateID, string(session.JobType), string(session.Status),
		plannedJSON, mustJSON(session.ExecutedSources), session.PlannedQueries, session.ExecutedQueries,
		string(session.EarlyStopReason), session.IdentitiesFound, session.IdentitiesConfirmed, session.FinalConfidence,
		session.ErrorMessage, errDetailsJSON, traceJSON, session.CreatedAt, nullableTime(session.StartedAt),
		nullableTime(session.CompletedAt), session.Duration.Nanoseconds(),
	)
	return eris.Wrap(err, "sqlite: create session")
}

// UpdateSession implements Store. The session id is the job id (spec.md
// §4.6), so this is always an update-in-place, never an insert.
func (s *SQLiteStore) UpdateSession(ctx context.Context, session *model.EnrichmentSession) error {
	_, errDetailsJSON, traceJSON, err := sessionJSONColumns(session)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE enrichment_session SET
			status = ?, executed_sources = ?, executed_queries = ?, early_stop_reason = ?,
			identities_found = ?, identities_confirmed = ?, final_confidence = ?, error_message = ?,
			error_details = ?, run_trace = ?, started_at = ?, completed_at = ?, duration_ns = ?
		WHERE id = ?`,
		string(session.Status), mustJSON(session.ExecutedSources), session.ExecutedQueries, string(session.EarlyStopReason),
		session.IdentitiesFound, session.IdentitiesConfirmed, session.FinalConfidence, session.ErrorMessage,
		errDetailsJSON, traceJSON, nullableTime(session.StartedAt), nullableTime(session.CompletedAt),
		session.Duration.Nanoseconds(), session.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update session %s", session.ID)
	}
	return checkRowsAffected(res, "session", session.ID)
}

// GetSession implements Store.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*model.EnrichmentSession, error) {
	var sess model.EnrichmentSession
	var plannedJSON, executedJSON, errDetailsJSON, traceJSON string
	var startedAt, completedAt sql.NullTime
	var durationNs int64

	err := s.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, candidate_id, job_type, status, planned_sources, executed_sources,
		       planned_queries, executed_queries, early_stop_reason, identities_found, identities_confirmed,
		       final_confidence, error_message, error_details, run_trace, created_at, started_at, completed_at, duration_ns
		FROM enrichment_session WHERE id = ?`, sessionID,
	).Scan(&sess.ID, &sess.TenantID, &sess.CandidateID, &sess.JobType, &sess.Status, &plannedJSON, &executedJSON,
		&sess.PlannedQueries, &sess.ExecutedQueries, &sess.EarlyStopReason, &sess.IdentitiesFound, &sess.IdentitiesConfirmed,
		&sess.FinalConfidence, &sess.ErrorMessage, &errDetailsJSON, &traceJSON, &sess.CreatedAt, &startedAt, &completedAt, &durationNs)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, model.NewKindedError(model.ErrCandidateNotFound, nil, fmt.Sprintf("session not found: %s", sessionID))
		}
		return nil, eris.Wrapf(err, "sqlite: get session %s", sessionID)
	}
	if err := hydrateSession(&sess, plannedJSON, executedJSON, errDetailsJSON, traceJSON, startedAt, completedAt, durationNs); err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetRecentSessions implements Store.
func (s *SQLiteStore) GetRecentSessions(ctx context.Context, candidateID string, limit int) ([]model.EnrichmentSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, candidate_id, job_type, status, planned_sources, executed_sources,
		       planned_queries, executed_queries, early_stop_reason, identities_found, identities_confirmed,
		       final_confidence, error_message, error_details, run_trace, created_at, started_at, completed_at, duration_ns
		FROM enrichment_session WHERE candidate_id = ? ORDER BY created_at DESC LIMIT ?`, candidateID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: get recent sessions")
	}
	defer rows.Close()

	var out []model.EnrichmentSession
	for rows.Next() {
		var sess model.EnrichmentSession
		var plannedJSON, executedJSON, errDetailsJSON, traceJSON string
		var startedAt, completedAt sql.NullTime
		var durationNs int64
		if err := rows.Scan(&sess.ID, &sess.TenantID, &sess.CandidateID, &sess.JobType, &sess.Status, &plannedJSON, &executedJSON,
			&sess.PlannedQueries, &sess.ExecutedQueries, &sess.EarlyStopReason, &sess.IdentitiesFound, &sess.IdentitiesConfirmed,
			&sess.FinalConfidence, &sess.ErrorMessage, &errDetailsJSON, &traceJSON, &sess.CreatedAt, &startedAt, &completedAt, &durationNs); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan session")
		}
		if err := hydrateSession(&sess, plannedJSON, executedJSON, errDetailsJSON, traceJSON, startedAt, completedAt, durationNs); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: get recent sessions iterate")
}

func hydrateSession(sess *model.EnrichmentSession, plannedJSON, executedJSON, errDetailsJSON, traceJSON string, startedAt, completedAt sql.NullTime, durationNs int64) error {
	if err := json.Unmarshal([]byte(plannedJSON), &sess.PlannedSources); err != nil {
		return eris.Wrap(err, "sqlite: unmarshal planned_sources")
	}
	if err := json.Unmarshal([]byte(executedJSON), &sess.ExecutedSources); err != nil {
		return eris.Wrap(err, "sqlite: unmarshal executed_sources")
	}
	if errDetailsJSON != "" && errDetailsJSON != "{}" {
		if err := json.Unmarshal([]byte(errDetailsJSON), &sess.ErrorDetails); err != nil {
			return eris.Wrap(err, "sqlite: unmarshal error_details")
		}
	}
	if traceJSON != "" && traceJSON != "{}" {
		sess.RunTrace = &model.RunTrace{}
		if err := json.Unmarshal([]byte(traceJSON), sess.RunTrace); err != nil {
			return eris.Wrap(err, "sqlite: unmarshal run_trace")
		}
	}
	if startedAt.Valid {
		t := startedAt.Time
		sess.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		sess.CompletedAt = &t
	}
	sess.Duration = time.Duration(durationNs)
	return nil
}

func sessionJSONColumns(session *model.EnrichmentSession) (planned, errDetails, trace string, err error) {
	planned = mustJSON(session.PlannedSources)
	if session.ErrorDetails == nil {
		errDetails = "{}"
	} else {
		errDetails = mustJSON(session.ErrorDetails)
	}
	if session.RunTrace == nil {
		trace = "{}"
	} else {
		b, err := json.Marshal(session.RunTrace)
		if err != nil {
			return "", "", "", eris.Wrap(err, "sqlite: marshal run_trace")
		}
		trace = string(b)
	}
	return planned, errDetails, trace, nil
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

// EnqueueDLQ implements Store.
func (s *SQLiteStore) EnqueueDLQ(ctx context.Context, entry resilience.DLQEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dead_letter_queue (
			id, tenant_id, candidate_id, session_id, error, error_type, failed_phase,
			retry_count, max_retries, next_retry_at, created_at, last_failed_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		entry.ID, entry.TenantID, entry.CandidateID, entry.SessionID, entry.Error, entry.ErrorType, entry.FailedPhase,
		entry.RetryCount, entry.MaxRetries, entry.NextRetryAt, entry.CreatedAt, entry.LastFailedAt,
	)
	return eris.Wrap(err, "sqlite: enqueue dlq")
}

// DequeueDLQ implements Store.
func (s *SQLiteStore) DequeueDLQ(ctx context.Context, filter resilience.DLQFilter) ([]resilience.DLQEntry, error) {
	query := `SELECT id, tenant_id, candidate_id, session_id, error, error_type, failed_phase,
	                 retry_count, max_retries, next_retry_at, created_at, last_failed_at
	          FROM dead_letter_queue WHERE 1=1`
	var args []any
	if filter.ErrorType != "" {
		query += ` AND error_type = ?`
		args = append(args, filter.ErrorType)
	}
	query += ` ORDER BY next_retry_at ASC`
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: dequeue dlq")
	}
	defer rows.Close()

	var out []resilience.DLQEntry
	for rows.Next() {
		var e resilience.DLQEntry
		var failedPhase sql.NullString
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CandidateID, &e.SessionID, &e.Error, &e.ErrorType, &failedPhase,
			&e.RetryCount, &e.MaxRetries, &e.NextRetryAt, &e.CreatedAt, &e.LastFailedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan dlq entry")
		}
		e.FailedPhase = failedPhase.String
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: dequeue dlq iterate")
}

// IncrementDLQRetry implements Store.
func (s *SQLiteStore) IncrementDLQRetry(ctx context.Context, id string, nextRetryAt time.Time, lastErr string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE dead_letter_queue SET retry_count = retry_count + 1, next_retry_at = ?, error = ?, last_failed_at = ?
		WHERE id = ?`, nextRetryAt, lastErr, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: increment dlq retry %s", id)
	}
	return checkRowsAffected(res, "dlq entry", id)
}

// RemoveDLQ implements Store.
func (s *SQLiteStore) RemoveDLQ(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM dead_letter_queue WHERE id = ?`, id)
	return eris.Wrapf(err, "sqlite: remove dlq %s", id)
}

// CountDLQ implements Store.
func (s *SQLiteStore) CountDLQ(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM dead_letter_queue`).Scan(&n)
	return n, eris.Wrap(err, "sqlite: count dlq")
}

func checkRowsAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrapf(err, "sqlite: rows affected for %s %s", kind, id)
	}
	if n == 0 {
		return model.NewKindedError(model.ErrCandidateNotFound, nil, fmt.Sprintf("%s not found: %s", kind, id))
	}
	return nil
}
