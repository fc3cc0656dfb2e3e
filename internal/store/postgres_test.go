package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/identity-resolver/internal/model"
	"github.com/sells-group/identity-resolver/internal/resilience"
)

func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_GetCandidate_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT tenant_id, candidate_id, linkedin_slug`).
		WithArgs("acme", "missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetCandidate(context.Background(), "acme", "missing")
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SetEnrichmentStatus_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE candidates SET enrichment_status`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), "acme", "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.SetEnrichmentStatus(context.Background(), "acme", "missing", model.EnrichmentCompleted)
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertIdentityCandidates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO identity_candidate`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	ident := model.IdentityCandidate{
		TenantID: "acme", CandidateID: "cand-1", Platform: "github", PlatformID: "jdoe",
		Confidence: 0.82, ConfidenceBucket: model.BucketSuggest, BridgeTier: 1,
		Status: model.IdentityUnconfirmed,
	}
	err := s.UpsertIdentityCandidates(context.Background(), []model.IdentityCandidate{ident})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpsertIdentityCandidates_Empty(t *testing.T) {
	s, _ := newMockPostgresStore(t)
	require.NoError(t, s.UpsertIdentityCandidates(context.Background(), nil))
}

func TestPostgresStore_CreateSession(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO enrichment_session`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	sess := &model.EnrichmentSession{TenantID: "acme", CandidateID: "cand-1", JobType: model.JobEnrich, Status: model.SessionQueued}
	err := s.CreateSession(context.Background(), sess)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_UpdateSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE enrichment_session SET`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := s.UpdateSession(context.Background(), &model.EnrichmentSession{ID: "missing"})
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetSession_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, tenant_id, candidate_id, job_type`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetSession(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, model.ErrCandidateNotFound, model.KindOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DLQ_EnqueueAndCount(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO dead_letter_queue`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM dead_letter_queue`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))

	entry := resilience.DLQEntry{
		TenantID: "acme", CandidateID: "cand-1", SessionID: "sess-1",
		Error: "timed out", ErrorType: "transient", MaxRetries: 3,
		NextRetryAt: time.Now().UTC(),
	}
	require.NoError(t, s.EnqueueDLQ(context.Background(), entry))

	count, err := s.CountDLQ(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RemoveDLQ(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM dead_letter_queue`).
		WithArgs("dlq-1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, s.RemoveDLQ(context.Background(), "dlq-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_Migrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS candidates`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
