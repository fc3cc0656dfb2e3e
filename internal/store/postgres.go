package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/resilience"
)

// PostgresStore implements Store using pgxpool. It is the production backend
// for the identity_candidate and enrichment_session tables (spec.md §6).
type PostgresStore struct {
	pool PgxPool
}

// PgxPool is the slice of *pgxpool.Pool the store needs, narrowed so
// pgxmock.PgxPoolIface can stand in for unit tests (grounded on the
// teacher's postgres store test pattern).
type PgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
	Ping(ctx context.Context) error
	Close()
}

// PoolConfig bounds the connection pool.
type PoolConfig struct {
	MaxConns int32
	MinConns int32
}

// NewPostgres creates a PostgresStore with a connection pool sized by cfg.
func NewPostgres(ctx context.Context, connString string, cfg *PoolConfig) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	if cfg != nil {
		if cfg.MaxConns > 0 {
			poolCfg.MaxConns = cfg.MaxConns
		}
		if cfg.MinConns > 0 {
			poolCfg.MinConns = cfg.MinConns
		}
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

// NewPostgresWithPool wraps an existing pool (or mock satisfying PgxPool),
// used by the unit tests to drive the store against pgxmock.
func NewPostgresWithPool(pool PgxPool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	tenant_id         TEXT NOT NULL,
	candidate_id      TEXT NOT NULL,
	linkedin_slug     TEXT NOT NULL,
	linkedin_url      TEXT NOT NULL,
	serp_title        TEXT NOT NULL DEFAULT '',
	serp_snippet      TEXT NOT NULL DEFAULT '',
	serp_metadata     JSONB NOT NULL DEFAULT '{}',
	role_type         TEXT NOT NULL DEFAULT '',
	enrichment_status TEXT NOT NULL DEFAULT 'none',
	last_enriched_at  TIMESTAMPTZ,
	PRIMARY KEY (tenant_id, candidate_id)
);

CREATE TABLE IF NOT EXISTS identity_candidate (
	tenant_id          TEXT NOT NULL,
	candidate_id       TEXT NOT NULL,
	platform           TEXT NOT NULL,
	platform_id        TEXT NOT NULL,
	profile_url        TEXT NOT NULL,
	confidence         DOUBLE PRECISION NOT NULL,
	confidence_bucket  TEXT NOT NULL,
	score_breakdown    JSONB NOT NULL,
	evidence           JSONB NOT NULL DEFAULT '[]',
	has_contradiction  BOOLEAN NOT NULL DEFAULT false,
	contradiction_note TEXT NOT NULL DEFAULT '',
	bridge_tier        SMALLINT NOT NULL,
	bridge_signals     JSONB NOT NULL DEFAULT '[]',
	persist_reason     TEXT NOT NULL DEFAULT '',
	discovered_by      TEXT NOT NULL DEFAULT '',
	status             TEXT NOT NULL DEFAULT 'unconfirmed',
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (tenant_id, candidate_id, platform, platform_id)
);

CREATE INDEX IF NOT EXISTS idx_identity_candidate_candidate ON identity_candidate(tenant_id, candidate_id);

CREATE TABLE IF NOT EXISTS enrichment_session (
	id                   TEXT PRIMARY KEY,
	tenant_id            TEXT NOT NULL,
	candidate_id         TEXT NOT NULL,
	job_type             TEXT NOT NULL,
	status               TEXT NOT NULL DEFAULT 'queued',
	planned_sources      JSONB NOT NULL DEFAULT '[]',
	executed_sources     JSONB NOT NULL DEFAULT '[]',
	planned_queries      INTEGER NOT NULL DEFAULT 0,
	executed_queries     INTEGER NOT NULL DEFAULT 0,
	early_stop_reason    TEXT NOT NULL DEFAULT '',
	identities_found     INTEGER NOT NULL DEFAULT 0,
	identities_confirmed INTEGER NOT NULL DEFAULT 0,
	final_confidence     DOUBLE PRECISION NOT NULL DEFAULT 0,
	error_message        TEXT NOT NULL DEFAULT '',
	error_details        JSONB NOT NULL DEFAULT '{}',
	run_trace            JSONB NOT NULL DEFAULT '{}',
	created_at           TIMESTAMPTZ NOT NULL DEFAULT now(),
	started_at           TIMESTAMPTZ,
	completed_at         TIMESTAMPTZ,
	duration_ns          BIGINT NOT NULL DEFAULT 0
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
	next_retry_at  TIMESTAMPTZ NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	last_failed_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_dlq_error_type ON dead_letter_queue(error_type);
CREATE INDEX IF NOT EXISTS idx_dlq_next_retry ON dead_letter_queue(next_retry_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Ping(ctx context.Context) error { return s.pool.Ping(ctx) }

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// GetCandidate implements Store.
func (s *PostgresStore) GetCandidate(ctx context.Context, tenantID, candidateID string) (model.Candidate, error) {
	var c model.Candidate
	var metaJSON []byte
	var lastEnriched *time.Time

	err := s.pool.QueryRow(ctx, `
		SELECT tenant_id, candidate_id, linkedin_slug, linkedin_url, serp_title, serp_snippet,
		       serp_metadata, role_type, enrichment_status, last_enriched_at
		FROM candidates WHERE tenant_id = $1 AND candidate_id = $2`,
		tenantID, candidateID,
	).Scan(&c.TenantID, &c.CandidateID, &c.LinkedInSlug, &c.LinkedInURL, &c.SERPTitle, &c.SERPSnippet,
		&metaJSON, &c.RoleType, &c.EnrichmentStatus, &lastEnriched)
	if err != nil {
		if err == pgx.ErrNoRows {
			return model.Candidate{}, model.NewKindedError(model.ErrCandidateNotFound, nil, eris.Errorf("candidate not found: %s/%s", tenantID, candidateID).Error())
		}
		return model.Candidate{}, eris.Wrapf(err, "postgres: get candidate %s/%s", tenantID, candidateID)
	}
	if err := json.Unmarshal(metaJSON, &c.SERPMetadata); err != nil {
		return model.Candidate{}, eris.Wrap(err, "postgres: unmarshal serp_metadata")
	}
	c.LastEnrichedAt = lastEnriched
	return c, nil
}

// SetEnrichmentStatus implements Store.
func (s *PostgresStore) SetEnrichmentStatus(ctx context.Context, tenantID, candidateID string, status model.EnrichmentStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE candidates SET enrichment_status = $1, last_enriched_at = $2 WHERE tenant_id = $3 AND candidate_id = $4`,
		string(status), time.Now().UTC(), tenantID, candidateID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set enrichment status %s/%s", tenantID, candidateID)
	}
	if tag.RowsAffected() == 0 {
		return model.NewKindedError(model.ErrCandidateNotFound, nil, eris.Errorf("candidate not found: %s/%s", tenantID, candidateID).Error())
	}
	return nil
}

// UpsertIdentityCandidates implements Store, using a single transaction with
// one statement per row and an ON CONFLICT on the key columns of the
// (tenant, candidate, platform, platform_id) key. A run's identity batch is
// small (a handful of rows), so a per-row INSERT ... ON CONFLICT inside one
// transaction is simpler than a temp-table bulk COPY and still atomic.
func (s *PostgresStore) UpsertIdentityCandidates(ctx context.Context, identities []model.IdentityCandidate) error {
	if len(identities) == 0 {
		return nil
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: begin upsert tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	for _, ic := range identities {
		scoreJSON, _ := json.Marshal(ic.ScoreBreakdown)
		evidenceJSON, _ := json.Marshal(ic.Evidence)
		signalsJSON, _ := json.Marshal(ic.BridgeSignals)

		_, err := tx.Exec(ctx, `
			INSERT INTO identity_candidate (
				tenant_id, candidate_id, platform, platform_id, profile_url, confidence,
				confidence_bucket, score_breakdown, evidence, has_contradiction, contradiction_note,
				bridge_tier, bridge_signals, persist_reason, discovered_by, status, created_at, updated_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
			ON CONFLICT (tenant_id, candidate_id, platform, platform_id) DO UPDATE SET
				profile_url = EXCLUDED.profile_url,
				confidence = EXCLUDED.confidence,
				confidence_bucket = EXCLUDED.confidence_bucket,
				score_breakdown = EXCLUDED.score_breakdown,
				evidence = EXCLUDED.evidence,
				has_contradiction = EXCLUDED.has_contradiction,
				contradiction_note = EXCLUDED.contradiction_note,
				bridge_tier = EXCLUDED.bridge_tier,
				bridge_signals = EXCLUDED.bridge_signals,
				persist_reason = EXCLUDED.persist_reason,
				discovered_by = EXCLUDED.discovered_by,
				updated_at = EXCLUDED.updated_at`,
			ic.TenantID, ic.CandidateID, ic.Platform, ic.PlatformID, ic.ProfileURL, ic.Confidence,
			string(ic.ConfidenceBucket), scoreJSON, evidenceJSON, ic.HasContradiction, ic.ContradictionNote,
			ic.BridgeTier, signalsJSON, ic.PersistReason, ic.DiscoveredBy, string(ic.Status), now, now,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert identity %s/%s/%s/%s", ic.TenantID, ic.CandidateID, ic.Platform, ic.PlatformID)
		}
	}
	return eris.Wrap(tx.Commit(ctx), "postgres: commit upsert tx")
}

// ListIdentityCandidates implements Store.
func (s *PostgresStore) ListIdentityCandidates(ctx context.Context, tenantID, candidateID string) ([]model.IdentityCandidate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT tenant_id, candidate_id, platform, platform_id, profile_url, confidence, confidence_bucket,
		       score_breakdown, evidence, has_contradiction, contradiction_note, bridge_tier, bridge_signals,
		       persist_reason, discovered_by, status
		FROM identity_candidate WHERE tenant_id = $1 AND candidate_id = $2
		ORDER BY bridge_tier ASC, confidence DESC`,
		tenantID, candidateID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list identity candidates")
	}
	defer rows.Close()

	var out []model.IdentityCandidate
	for rows.Next() {
		var ic model.IdentityCandidate
		var scoreJSON, evidenceJSON, signalsJSON []byte
		if err := rows.Scan(&ic.TenantID, &ic.CandidateID, &ic.Platform, &ic.PlatformID, &ic.ProfileURL,
			&ic.Confidence, &ic.ConfidenceBucket, &scoreJSON, &evidenceJSON, &ic.HasContradiction,
			&ic.ContradictionNote, &ic.BridgeTier, &signalsJSON, &ic.PersistReason, &ic.DiscoveredBy, &ic.Status); err != nil {
			return nil, eris.Wrap(err, "postgres: scan identity candidate")
		}
		if err := json.Unmarshal(scoreJSON, &ic.ScoreBreakdown); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal score_breakdown")
		}
		if err := json.Unmarshal(evidenceJSON, &ic.Evidence); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal evidence")
		}
		if err := json.Unmarshal(signalsJSON, &ic.BridgeSignals); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal bridge_signals")
		}
		out = append(out, ic)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list identity candidates iterate")
}

// CreateSession implements Store.
func (s *PostgresStore) CreateSession(ctx context.Context, session *model.EnrichmentSession) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}
	errDetails, _ := json.Marshal(emptyIfNil(session.ErrorDetails))
	trace, _ := json.Marshal(session.RunTrace)
	planned, _ := json.Marshal(session.PlannedSources)
	executed, _ := json.Marshal(session.ExecutedSources)

	_, err := s.pool.Exec(ctx, `
		INSERT INTO enrichment_session (
			id, tenant_id, candidate_id, job_type, status, planned_sources, executed_sources,
			planned_queries, executed_queries, early_stop_reason, identities_found, identities_confirmed,
			final_confidence, error_message, error_details, run_trace, created_at, started_at, completed_at, duration_ns
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		session.ID, session.TenantID, session.CandidateID, string(session.JobType), string(session.Status),
		planned, executed, session.PlannedQueries, session.ExecutedQueries, string(session.EarlyStopReason),
		session.IdentitiesFound, session.IdentitiesConfirmed, session.FinalConfidence, session.ErrorMessage,
		errDetails, trace, session.CreatedAt, session.StartedAt, session.CompletedAt, session.Duration.Nanoseconds(),
	)
	return eris.Wrap(err, "postgres: create session")
}

// UpdateSession implements Store.
func (s *PostgresStore) UpdateSession(ctx context.Context, session *model.EnrichmentSession) error {
	errDetails, _ := json.Marshal(emptyIfNil(session.ErrorDetails))
	trace, _ := json.Marshal(session.RunTrace)
	executed, _ := json.Marshal(session.ExecutedSources)

	tag, err := s.pool.Exec(ctx, `
		UPDATE enrichment_session SET
			status = $1, executed_sources = $2, executed_queries = $3, early_stop_reason = $4,
			identities_found = $5, identities_confirmed = $6, final_confidence = $7, error_message = $8,
			error_details = $9, run_trace = $10, started_at = $11, completed_at = $12, duration_ns = $13
		WHERE id = $14`,
		string(session.Status), executed, session.ExecutedQueries, string(session.EarlyStopReason),
		session.IdentitiesFound, session.IdentitiesConfirmed, session.FinalConfidence, session.ErrorMessage,
		errDetails, trace, session.StartedAt, session.CompletedAt, session.Duration.Nanoseconds(), session.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update session %s", session.ID)
	}
	if tag.RowsAffected() == 0 {
		return model.NewKindedError(model.ErrCandidateNotFound, nil, eris.Errorf("session not found: %s", session.ID).Error())
	}
	return nil
}

// GetSession implements Store.
func (s *PostgresStore) GetSession(ctx context.Context, sessionID string) (*model.EnrichmentSession, error) {
	var sess model.EnrichmentSession
	var plannedJSON, executedJSON, errDetailsJSON, traceJSON []byte
	var durationNs int64

	err := s.pool.QueryRow(ctx, `
		SELECT id, tenant_id, candidate_id, job_type, status, planned_sources, executed_sources,
		       planned_queries, executed_queries, early_stop_reason, identities_found, identities_confirmed,
		       final_confidence, error_message, error_details, run_trace, created_at, started_at, completed_at, duration_ns
		FROM enrichment_session WHERE id = $1`, sessionID,
	).Scan(&sess.ID, &sess.TenantID, &sess.CandidateID, &sess.JobType, &sess.Status, &plannedJSON, &executedJSON,
		&sess.PlannedQueries, &sess.ExecutedQueries, &sess.EarlyStopReason, &sess.IdentitiesFound, &sess.IdentitiesConfirmed,
		&sess.FinalConfidence, &sess.ErrorMessage, &errDetailsJSON, &traceJSON, &sess.CreatedAt, &sess.StartedAt, &sess.CompletedAt,
		&durationNs)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, model.NewKindedError(model.ErrCandidateNotFound, nil, eris.Errorf("session not found: %s", sessionID).Error())
		}
		return nil, eris.Wrapf(err, "postgres: get session %s", sessionID)
	}
	sess.Duration = time.Duration(durationNs)
	if err := pgHydrateSession(&sess, plannedJSON, executedJSON, errDetailsJSON, traceJSON); err != nil {
		return nil, err
	}
	return &sess, nil
}

// GetRecentSessions implements Store.
func (s *PostgresStore) GetRecentSessions(ctx context.Context, candidateID string, limit int) ([]model.EnrichmentSession, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, tenant_id, candidate_id, job_type, status, planned_sources, executed_sources,
		       planned_queries, executed_queries, early_stop_reason, identities_found, identities_confirmed,
		       final_confidence, error_message, error_details, run_trace, created_at, started_at, completed_at, duration_ns
		FROM enrichment_session WHERE candidate_id = $1 ORDER BY created_at DESC LIMIT $2`, candidateID, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: get recent sessions")
	}
	defer rows.Close()

	var out []model.EnrichmentSession
	for rows.Next() {
		var sess model.EnrichmentSession
		var plannedJSON, executedJSON, errDetailsJSON, traceJSON []byte
		var durationNs int64
		if err := rows.Scan(&sess.ID, &sess.TenantID, &sess.CandidateID, &sess.JobType, &sess.Status, &plannedJSON, &executedJSON,
			&sess.PlannedQueries, &sess.ExecutedQueries, &sess.EarlyStopReason, &sess.IdentitiesFound, &sess.IdentitiesConfirmed,
			&sess.FinalConfidence, &sess.ErrorMessage, &errDetailsJSON, &traceJSON, &sess.CreatedAt, &sess.StartedAt, &sess.CompletedAt, &durationNs); err != nil {
			return nil, eris.Wrap(err, "postgres: scan session")
		}
		sess.Duration = time.Duration(durationNs)
		if err := pgHydrateSession(&sess, plannedJSON, executedJSON, errDetailsJSON, traceJSON); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, eris.Wrap(rows.Err(), "postgres: get recent sessions iterate")
}

func pgHydrateSession(sess *model.EnrichmentSession, plannedJSON, executedJSON, errDetailsJSON, traceJSON []byte) error {
	if len(plannedJSON) > 0 {
		if err := json.Unmarshal(plannedJSON, &sess.PlannedSources); err != nil {
			return eris.Wrap(err, "postgres: unmarshal planned_sources")
		}
	}
	if len(executedJSON) > 0 {
		if err := json.Unmarshal(executedJSON, &sess.ExecutedSources); err != nil {
			return eris.Wrap(err, "postgres: unmarshal executed_sources")
		}
	}
	if len(errDetailsJSON) > 0 && string(errDetailsJSON) != "{}" {
		if err := json.Unmarshal(errDetailsJSON, &sess.ErrorDetails); err != nil {
			return eris.Wrap(err, "postgres: unmarshal error_details")
		}
	}
	if len(traceJSON) > 0 && string(traceJSON) != "{}" {
		sess.RunTrace = &model.RunTrace{}
		if err := json.Unmarshal(traceJSON, sess.RunTrace); err != nil {
			return eris.Wrap(err, "postgres: unmarshal run_trace")
		}
	}
	return nil
}

func emptyIfNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}

// EnqueueDLQ implements Store.
func (s *PostgresStore) EnqueueDLQ(ctx context.Context, entry resilience.DLQEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO dead_letter_queue (
			id, tenant_id, candidate_id, session_id, error, error_type, failed_phase,
			retry_count, max_retries, next_retry_at, created_at, last_failed_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
		entry.ID, entry.TenantID, entry.CandidateID, entry.SessionID, entry.Error, entry.ErrorType, entry.FailedPhase,
		entry.RetryCount, entry.MaxRetries, entry.NextRetryAt, entry.CreatedAt, entry.LastFailedAt,
	)
	return eris.Wrap(err, "postgres: enqueue dlq")
}

// DequeueDLQ implements Store.
func (s *PostgresStore) DequeueDLQ(ctx context.Context, filter resilience.DLQFilter) ([]resilience.DLQEntry, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}

	var (
		rows pgx.Rows
		err  error
	)
	if filter.ErrorType != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT id, tenant_id, candidate_id, session_id, error, error_type, failed_phase,
			       retry_count, max_retries, next_retry_at, created_at, last_failed_at
			FROM dead_letter_queue WHERE error_type = $1 ORDER BY next_retry_at ASC LIMIT $2`,
			filter.ErrorType, limit)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT id, tenant_id, candidate_id, session_id, error, error_type, failed_phase,
			       retry_count, max_retries, next_retry_at, created_at, last_failed_at
			FROM dead_letter_queue ORDER BY next_retry_at ASC LIMIT $1`,
			limit)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: dequeue dlq")
	}
	defer rows.Close()

	var out []resilience.DLQEntry
	for rows.Next() {
		var e resilience.DLQEntry
		var failedPhase *string
		if err := rows.Scan(&e.ID, &e.TenantID, &e.CandidateID, &e.SessionID, &e.Error, &e.ErrorType, &failedPhase,
			&e.RetryCount, &e.MaxRetries, &e.NextRetryAt, &e.CreatedAt, &e.LastFailedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan dlq entry")
		}
		if failedPhase != nil {
			e.FailedPhase = *failedPhase
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: dequeue dlq iterate")
}

// IncrementDLQRetry implements Store.
func (s *PostgresStore) IncrementDLQRetry(ctx context.Context, id string, nextRetryAt time.Time, lastErr string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE dead_letter_queue SET retry_count = retry_count + 1, next_retry_at = $1, error = $2, last_failed_at = $3
		WHERE id = $4`, nextRetryAt, lastErr, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: increment dlq retry %s", id)
	}
	if tag.RowsAffected() == 0 {
		return model.NewKindedError(model.ErrCandidateNotFound, nil, eris.Errorf("dlq entry not found: %s", id).Error())
	}
	return nil
}

// RemoveDLQ implements Store.
func (s *PostgresStore) RemoveDLQ(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM dead_letter_queue WHERE id = $1`, id)
	return eris.Wrapf(err, "postgres: remove dlq %s", id)
}

// CountDLQ implements Store.
func (s *PostgresStore) CountDLQ(ctx context.Context) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM dead_letter_queue`).Scan(&n)
	return n, eris.Wrap(err, "postgres: count dlq")
}
