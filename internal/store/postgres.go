package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ruvia-hq/ruvia-cli/internal/db"
	"github.com/ruvia-hq/ruvia-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 5
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	input      TEXT NOT NULL,
	provenance TEXT NOT NULL,
	credits    INTEGER NOT NULL DEFAULT 0,
	report     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS bookmarks (
	id          TEXT PRIMARY KEY,
	analysis_id TEXT NOT NULL REFERENCES analyses(id),
	url         TEXT NOT NULL,
	company     TEXT,
	location    TEXT,
	note        TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS credits (
	id          TEXT PRIMARY KEY,
	delta       INTEGER NOT NULL,
	reason      TEXT NOT NULL,
	analysis_id TEXT,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_bookmarks_analysis_id ON bookmarks(analysis_id);
CREATE INDEX IF NOT EXISTS idx_credits_analysis_id ON credits(analysis_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO analyses (id, kind, input, provenance, credits, report, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, string(a.Kind), a.Input, a.Provenance, a.Credits, []byte(a.Report), a.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert analysis")
}

func (s *PostgresStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	var a model.Analysis
	var report []byte

	err := s.pool.QueryRow(ctx,
		`SELECT id, kind, input, provenance, credits, report, created_at FROM analyses WHERE id = $1`,
		id,
	).Scan(&a.ID, &a.Kind, &a.Input, &a.Provenance, &a.Credits, &report, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, eris.New("analysis not found")
		}
		return nil, eris.Wrapf(err, "postgres: get analysis %s", id)
	}

	a.Report = report
	return &a, nil
}

func (s *PostgresStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, kind, input, provenance, credits, report, created_at FROM analyses WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Kind != "" {
		query += fmt.Sprintf(` AND kind = $%d`, argIdx)
		args = append(args, string(filter.Kind))
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		var a model.Analysis
		var report []byte
		if err := rows.Scan(&a.ID, &a.Kind, &a.Input, &a.Provenance, &a.Credits, &report, &a.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan analysis")
		}
		a.Report = report
		analyses = append(analyses, a)
	}
	return analyses, eris.Wrap(rows.Err(), "postgres: list analyses iterate")
}

func (s *PostgresStore) CreateBookmark(ctx context.Context, b *model.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookmarks (id, analysis_id, url, company, location, note, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID, b.AnalysisID, b.URL, b.Company, b.Location, b.Note, b.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert bookmark")
}

func (s *PostgresStore) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, analysis_id, url, company, location, note, created_at
		 FROM bookmarks ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list bookmarks")
	}
	defer rows.Close()

	var bookmarks []model.Bookmark
	for rows.Next() {
		var b model.Bookmark
		var company, location, note *string
		if err := rows.Scan(&b.ID, &b.AnalysisID, &b.URL, &company, &location, &note, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan bookmark")
		}
		if company != nil {
			b.Company = *company
		}
		if location != nil {
			b.Location = *location
		}
		if note != nil {
			b.Note = *note
		}
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, eris.Wrap(rows.Err(), "postgres: list bookmarks iterate")
}

func (s *PostgresStore) DeleteBookmark(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		return eris.Wrapf(err, "postgres: delete bookmark %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("bookmark not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) InsertCredit(ctx context.Context, e *model.CreditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var analysisID *string
	if e.AnalysisID != "" {
		analysisID = &e.AnalysisID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO credits (id, delta, reason, analysis_id, created_at) VALUES ($1, $2, $3, $4, $5)`,
		e.ID, e.Delta, e.Reason, analysisID, e.CreatedAt,
	)
	return eris.Wrap(err, "postgres: insert credit")
}

func (s *PostgresStore) CreditBalance(ctx context.Context) (int, error) {
	var balance int
	err := s.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM credits`,
	).Scan(&balance)
	return balance, eris.Wrap(err, "postgres: credit balance")
}
