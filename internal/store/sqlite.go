package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ruvia-hq/ruvia-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS analyses (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	input      TEXT NOT NULL,
	provenance TEXT NOT NULL,
	credits    INTEGER NOT NULL DEFAULT 0,
	report     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS bookmarks (
	id          TEXT PRIMARY KEY,
	analysis_id TEXT NOT NULL REFERENCES analyses(id),
	url         TEXT NOT NULL,
	company     TEXT,
	location    TEXT,
	note        TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS credits (
	id          TEXT PRIMARY KEY,
	delta       INTEGER NOT NULL,
	reason      TEXT NOT NULL,
	analysis_id TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_analyses_kind ON analyses(kind);
CREATE INDEX IF NOT EXISTS idx_analyses_created_at ON analyses(created_at);
CREATE INDEX IF NOT EXISTS idx_bookmarks_analysis_id ON bookmarks(analysis_id);
CREATE INDEX IF NOT EXISTS idx_credits_analysis_id ON credits(analysis_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveAnalysis(ctx context.Context, a *model.Analysis) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO analyses (id, kind, input, provenance, credits, report, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, string(a.Kind), a.Input, a.Provenance, a.Credits, string(a.Report), a.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert analysis")
}

func (s *SQLiteStore) GetAnalysis(ctx context.Context, id string) (*model.Analysis, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, input, provenance, credits, report, created_at FROM analyses WHERE id = ?`,
		id,
	)
	return scanAnalysis(row)
}

func (s *SQLiteStore) ListAnalyses(ctx context.Context, filter AnalysisFilter) ([]model.Analysis, error) {
	query := `SELECT id, kind, input, provenance, credits, report, created_at FROM analyses WHERE 1=1`
	var args []any

	if filter.Kind != "" {
		query += ` AND kind = ?`
		args = append(args, string(filter.Kind))
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list analyses")
	}
	defer rows.Close()

	var analyses []model.Analysis
	for rows.Next() {
		a, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, *a)
	}
	return analyses, eris.Wrap(rows.Err(), "sqlite: list analyses iterate")
}

func (s *SQLiteStore) CreateBookmark(ctx context.Context, b *model.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bookmarks (id, analysis_id, url, company, location, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.AnalysisID, b.URL, b.Company, b.Location, b.Note, b.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert bookmark")
}

func (s *SQLiteStore) ListBookmarks(ctx context.Context) ([]model.Bookmark, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, analysis_id, url, company, location, note, created_at
		 FROM bookmarks ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list bookmarks")
	}
	defer rows.Close()

	var bookmarks []model.Bookmark
	for rows.Next() {
		var b model.Bookmark
		var company, location, note sql.NullString
		if err := rows.Scan(&b.ID, &b.AnalysisID, &b.URL, &company, &location, &note, &b.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan bookmark")
		}
		b.Company = company.String
		b.Location = location.String
		b.Note = note.String
		bookmarks = append(bookmarks, b)
	}
	return bookmarks, eris.Wrap(rows.Err(), "sqlite: list bookmarks iterate")
}

func (s *SQLiteStore) DeleteBookmark(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = ?`, id)
	if err != nil {
		return eris.Wrapf(err, "sqlite: delete bookmark %s", id)
	}
	return checkRowsAffected(res, "bookmark", id)
}

func (s *SQLiteStore) InsertCredit(ctx context.Context, e *model.CreditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var analysisID any
	if e.AnalysisID != "" {
		analysisID = e.AnalysisID
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credits (id, delta, reason, analysis_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Delta, e.Reason, analysisID, e.CreatedAt,
	)
	return eris.Wrap(err, "sqlite: insert credit")
}

func (s *SQLiteStore) CreditBalance(ctx context.Context) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(delta), 0) FROM credits`,
	).Scan(&balance)
	return balance, eris.Wrap(err, "sqlite: credit balance")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanAnalysis(row scannable) (*model.Analysis, error) {
	var a model.Analysis
	var report string

	err := row.Scan(&a.ID, &a.Kind, &a.Input, &a.Provenance, &a.Credits, &report, &a.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("analysis not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan analysis")
	}

	a.Report = []byte(report)
	return &a, nil
}
