package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/Adda-Baaj/newsscrape/internal/domain"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/mattn/go-sqlite3"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id       INTEGER PRIMARY KEY AUTOINCREMENT,
	name     TEXT NOT NULL,
	url      TEXT NOT NULL,
	pub_date TEXT NOT NULL DEFAULT '',
	provider TEXT NOT NULL DEFAULT '',
	base_url TEXT NOT NULL DEFAULT '',
	scraped  TEXT NOT NULL DEFAULT 'pending'
);
CREATE INDEX IF NOT EXISTS idx_candidates_name ON candidates(name);
CREATE INDEX IF NOT EXISTS idx_candidates_scraped ON candidates(scraped);

CREATE TABLE IF NOT EXISTS content (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	url        TEXT NOT NULL,
	pub_date   TEXT NOT NULL DEFAULT '',
	provider   TEXT NOT NULL DEFAULT '',
	base_url   TEXT NOT NULL DEFAULT '',
	text       TEXT NOT NULL,
	scraped_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_content_name ON content(name);
`

var candidateColumns = []string{"id", "name", "url", "pub_date", "provider", "base_url", "scraped"}

var contentColumns = []string{"id", "name", "url", "pub_date", "provider", "base_url", "text", "scraped_at"}

// sqliteStore implements a Store on a local SQLite file.
type sqliteStore struct {
	db *sql.DB
}

func openSQLite(ctx context.Context, path string) (Store, error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create storage directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer keeps sqlite from returning SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}
	return &sqliteStore{db: db}, nil
}

func (s *sqliteStore) Candidates() CandidateStore { return sqliteCandidates{s.db} }
func (s *sqliteStore) Contents() ContentStore     { return sqliteContents{s.db} }

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func candidateWhere(f Filter) sq.Eq {
	where := sq.Eq{}
	if f.Name != nil {
		where["name"] = *f.Name
	}
	if f.Scraped != nil {
		where["scraped"] = f.Scraped.String()
	}
	return where
}

func contentWhere(f Filter) sq.Eq {
	where := sq.Eq{}
	if f.Name != nil {
		where["name"] = *f.Name
	}
	return where
}

func countRows(ctx context.Context, db *sql.DB, table string, where sq.Eq) (int, error) {
	query, args, err := sq.Select("COUNT(*)").From(table).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count query: %w", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func recreateTable(ctx context.Context, db *sql.DB, table string) error {
	if _, err := db.ExecContext(ctx, "DROP TABLE IF EXISTS "+table); err != nil {
		return fmt.Errorf("drop %s: %w", table, err)
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("recreate %s: %w", table, err)
	}
	return nil
}

type sqliteCandidates struct{ db *sql.DB }

func (s sqliteCandidates) Count(ctx context.Context, f Filter) (int, error) {
	return countRows(ctx, s.db, "candidates", candidateWhere(f))
}

func (s sqliteCandidates) Find(ctx context.Context, f Filter) ([]domain.Candidate, error) {
	query, args, err := sq.Select(candidateColumns...).From("candidates").
		Where(candidateWhere(f)).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var (
			c       domain.Candidate
			id      int64
			scraped string
		)
		if err := rows.Scan(&id, &c.Name, &c.URL, &c.PublishedAt, &c.Provider, &c.BaseURL, &scraped); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		if c.Scraped, err = domain.ParseScrapeStatus(scraped); err != nil {
			return nil, fmt.Errorf("candidate %d: %w", id, err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (s sqliteCandidates) InsertMany(ctx context.Context, cs []domain.Candidate) ([]domain.Candidate, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin insert: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	out := make([]domain.Candidate, 0, len(cs))
	for _, c := range cs {
		query, args, err := sq.Insert("candidates").
			Columns("name", "url", "pub_date", "provider", "base_url", "scraped").
			Values(c.Name, c.URL, c.PublishedAt, c.Provider, c.BaseURL, c.Scraped.String()).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("build insert: %w", err)
		}
		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("insert candidate %q: %w", c.Name, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("candidate id: %w", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		out = append(out, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit insert: %w", err)
	}
	return out, nil
}

func (s sqliteCandidates) SetScraped(ctx context.Context, id string, status domain.ScrapeStatus) error {
	query, args, err := sq.Update("candidates").Set("scraped", status.String()).
		Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update candidate %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update candidate %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s sqliteCandidates) ResetScraped(ctx context.Context) (int, error) {
	pending := domain.StatusPending.String()
	query, args, err := sq.Update("candidates").Set("scraped", pending).
		Where(sq.NotEq{"scraped": pending}).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build reset: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("reset candidates: %w", err)
	}
	n, err := res.RowsAffected()
	return int(n), err
}

func (s sqliteCandidates) Drop(ctx context.Context) error {
	return recreateTable(ctx, s.db, "candidates")
}

type sqliteContents struct{ db *sql.DB }

func (s sqliteContents) Count(ctx context.Context, f Filter) (int, error) {
	return countRows(ctx, s.db, "content", contentWhere(f))
}

func (s sqliteContents) Find(ctx context.Context, f Filter) ([]domain.Content, error) {
	query, args, err := sq.Select(contentColumns...).From("content").
		Where(contentWhere(f)).OrderBy("id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build find query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query content: %w", err)
	}
	defer rows.Close()

	var out []domain.Content
	for rows.Next() {
		var (
			c  domain.Content
			id int64
		)
		if err := rows.Scan(&id, &c.Name, &c.URL, &c.PublishedAt, &c.Provider, &c.BaseURL, &c.Text, &c.ScrapedAt); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		c.ID = strconv.FormatInt(id, 10)
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return out, nil
}

func (s sqliteContents) InsertOne(ctx context.Context, c domain.Content) (domain.Content, error) {
	if c.ScrapedAt.IsZero() {
		c.ScrapedAt = time.Now().UTC()
	}
	query, args, err := sq.Insert("content").
		Columns("name", "url", "pub_date", "provider", "base_url", "text", "scraped_at").
		Values(c.Name, c.URL, c.PublishedAt, c.Provider, c.BaseURL, c.Text, c.ScrapedAt).
		ToSql()
	if err != nil {
		return domain.Content{}, fmt.Errorf("build insert: %w", err)
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return domain.Content{}, fmt.Errorf("insert content %q: %w", c.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return domain.Content{}, errors.Join(errors.New("content id"), err)
	}
	c.ID = strconv.FormatInt(id, 10)
	return c, nil
}

func (s sqliteContents) Drop(ctx context.Context) error {
	return recreateTable(ctx, s.db, "content")
}
