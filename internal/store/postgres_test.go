package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruvia-hq/ruvia-cli/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresFromPool(mock), mock
}

func TestPostgresStore_SaveAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO analyses`).
		WithArgs(pgxmock.AnyArg(), "job_posting", "https://example.com/jobs/1",
			"exact", 1, pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	a := &model.Analysis{
		Kind:       model.KindJobPosting,
		Input:      "https://example.com/jobs/1",
		Provenance: "exact",
		Credits:    1,
		Report:     []byte(`{"is_authentic":true}`),
	}
	require.NoError(t, s.SaveAnalysis(context.Background(), a))
	assert.NotEmpty(t, a.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, kind, input, provenance, credits, report, created_at FROM analyses WHERE id = \$1`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.GetAnalysis(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAnalysis(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, kind, input, provenance, credits, report, created_at FROM analyses WHERE id = \$1`).
		WithArgs("a1").
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "kind", "input", "provenance", "credits", "report", "created_at"},
		).AddRow("a1", "resume", "resume.pdf", "manual", 1, []byte(`{"match_score":72}`), now))

	a, err := s.GetAnalysis(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, model.KindResume, a.Kind)
	assert.Equal(t, "manual", a.Provenance)

	critique, err := a.ResumeCritique()
	require.NoError(t, err)
	assert.Equal(t, 72.0, critique.MatchScore)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListAnalyses_KindFilter(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	now := time.Now().UTC()

	mock.ExpectQuery(`SELECT .+ FROM analyses WHERE true AND kind = \$1 ORDER BY created_at DESC LIMIT \$2`).
		WithArgs("job_posting", 50).
		WillReturnRows(pgxmock.NewRows(
			[]string{"id", "kind", "input", "provenance", "credits", "report", "created_at"},
		).AddRow("a1", "job_posting", "inline text", "exact", 1, []byte(`{}`), now))

	analyses, err := s.ListAnalyses(context.Background(), AnalysisFilter{Kind: model.KindJobPosting})
	require.NoError(t, err)
	require.Len(t, analyses, 1)
	assert.Equal(t, "a1", analyses[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_DeleteBookmark_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM bookmarks WHERE id = \$1`).
		WithArgs("missing").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	err := s.DeleteBookmark(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bookmark not found")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreditBalance(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(delta\), 0\) FROM credits`).
		WillReturnRows(pgxmock.NewRows([]string{"coalesce"}).AddRow(7))

	balance, err := s.CreditBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_InsertCredit_NullAnalysisID(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO credits`).
		WithArgs(pgxmock.AnyArg(), 10, "initial grant", (*string)(nil), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.InsertCredit(context.Background(), &model.CreditEntry{Delta: 10, Reason: "initial grant"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
