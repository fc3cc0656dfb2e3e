package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/resilience"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func seedCandidate(t *testing.T, st *SQLiteStore, tenantID, candidateID string) {
	t.Helper()
	_, err := st.db.ExecContext(context.Background(), `
		INSERT INTO candidates (tenant_id, candidate_id, linkedin_slug, linkedin_url)
		VALUES (?, ?, ?, ?)`,
		tenantID, candidateID, "jane-doe-123", "https://www.linkedin.com/in/jane-doe-123",
	)
	require.NoError(t, err)
}

func TestSQLite_GetCandidate_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	_, err := st.GetCandidate(context.Background(), "acme", "missing")
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
}

func TestSQLite_GetCandidate_Found(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedCandidate(t, st, "acme", "cand-1")

	c, err := st.GetCandidate(context.Background(), "acme", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, "jane-doe-123", c.LinkedInSlug)
	assert.Equal(t, model.EnrichmentStatus("none"), c.EnrichmentStatus)
}

func TestSQLite_SetEnrichmentStatus(t *testing.T) {
	st := newTestSQLiteStore(t)
	seedCandidate(t, st, "acme", "cand-1")

	err := st.SetEnrichmentStatus(context.Background(), "acme", "cand-1", model.EnrichmentCompleted)
	require.NoError(t, err)

	c, err := st.GetCandidate(context.Background(), "acme", "cand-1")
	require.NoError(t, err)
	assert.Equal(t, model.EnrichmentCompleted, c.EnrichmentStatus)
	require.NotNil(t, c.LastEnrichedAt)
}

func TestSQLite_SetEnrichmentStatus_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)

	err := st.SetEnrichmentStatus(context.Background(), "acme", "missing", model.EnrichmentCompleted)
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
}

func sampleIdentity(tenantID, candidateID, platform string) model.IdentityCandidate {
	return model.IdentityCandidate{
		TenantID:         tenantID,
		CandidateID:      candidateID,
		Platform:         platform,
		PlatformID:       "jdoe",
		ProfileURL:       "https://github.com/jdoe",
		Confidence:       0.82,
		ConfidenceBucket: model.BucketSuggest,
		ScoreBreakdown:   model.ScoreBreakdown{Total: 0.82, ScoringVersion: model.ScoringVersion},
		BridgeTier:       1,
		PersistReason:    "tier1_always_persist",
		DiscoveredBy:     "github_reverse_link",
		Status:           model.IdentityUnconfirmed,
	}
}

func TestSQLite_UpsertAndListIdentityCandidates(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	ident := sampleIdentity("acme", "cand-1", "github")
	require.NoError(t, st.UpsertIdentityCandidates(ctx, []model.IdentityCandidate{ident}))

	list, err := st.ListIdentityCandidates(ctx, "acme", "cand-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "github", list[0].Platform)
	assert.Equal(t, 0.82, list[0].Confidence)

	ident.Confidence = 0.91
	ident.ConfidenceBucket = model.BucketAutoMerge
	require.NoError(t, st.UpsertIdentityCandidates(ctx, []model.IdentityCandidate{ident}))

	list, err = st.ListIdentityCandidates(ctx, "acme", "cand-1")
	require.NoError(t, err)
	require.Len(t, list, 1) // conflict on (tenant, candidate, platform, platform_id) updates in place
	assert.Equal(t, 0.91, list[0].Confidence)
}

func TestSQLite_UpsertIdentityCandidates_Empty(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.UpsertIdentityCandidates(context.Background(), nil))
}

func TestSQLite_SessionLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	sess := &model.EnrichmentSession{
		TenantID:    "acme",
		CandidateID: "cand-1",
		JobType:     model.JobEnrich,
		Status:      model.SessionQueued,
	}
	require.NoError(t, st.CreateSession(ctx, sess))
	require.NotEmpty(t, sess.ID)

	sess.Status = model.SessionRunning
	started := time.Now().UTC()
	sess.StartedAt = &started
	require.NoError(t, st.UpdateSession(ctx, sess))

	got, err := st.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionRunning, got.Status)
	require.NotNil(t, got.StartedAt)

	sess.Status = model.SessionCompleted
	sess.IdentitiesFound = 3
	sess.FinalConfidence = 0.91
	sess.RunTrace = &model.RunTrace{TotalIdentitiesFound: 3}
	require.NoError(t, st.UpdateSession(ctx, sess))

	got, err = st.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SessionCompleted, got.Status)
	assert.Equal(t, 3, got.IdentitiesFound)
	require.NotNil(t, got.RunTrace)
	assert.Equal(t, 3, got.RunTrace.TotalIdentitiesFound)

	recent, err := st.GetRecentSessions(ctx, "cand-1", 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
}

func TestSQLite_UpdateSession_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	err := st.UpdateSession(context.Background(), &model.EnrichmentSession{ID: "missing"})
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
}

func TestSQLite_GetSession_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	_, err := st.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
}

func TestSQLite_DLQ_RoundTrip(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	entry := resilience.DLQEntry{
		TenantID:    "acme",
		CandidateID: "cand-1",
		SessionID:   "sess-1",
		Error:       "provider timed out",
		ErrorType:   "transient",
		MaxRetries:  3,
		NextRetryAt: time.Now().UTC().Add(time.Minute),
	}
	require.NoError(t, st.EnqueueDLQ(ctx, entry))

	count, err := st.CountDLQ(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	entries, err := st.DequeueDLQ(ctx, resilience.DLQFilter{ErrorType: "transient"})
	require.NoError(t, err)
	require.Len(t, entries, 1)

	require.NoError(t, st.IncrementDLQRetry(ctx, entries[0].ID, time.Now().UTC().Add(2*time.Minute), "still failing"))

	entries, err = st.DequeueDLQ(ctx, resilience.DLQFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].RetryCount)

	require.NoError(t, st.RemoveDLQ(ctx, entries[0].ID))
	count, err = st.CountDLQ(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestSQLite_PingAndMigrateIdempotent(t *testing.T) {
	st := newTestSQLiteStore(t)
	require.NoError(t, st.Ping(context.Background()))
	require.NoError(t, st.Migrate(context.Background())) // CREATE TABLE IF NOT EXISTS must be safe to rerun
}
