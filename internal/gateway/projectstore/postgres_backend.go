package projectstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/zlecenia/c20scratch/internal/sanitize"
)

// PostgresStore keeps documents in the ide_projects table. Reads are served
// from an LRU that every save refreshes.
type PostgresStore struct {
	db    *sql.DB
	cache *lru.Cache[string, string]

	schemaOnce sync.Once
	schemaErr  error
}

var _ Store = (*PostgresStore)(nil)

func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("pgx", strings.TrimSpace(dsn))
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	cache, err := lru.New[string, string](1024)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s := &PostgresStore{db: db, cache: cache}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *PostgresStore) ensureSchema(ctx context.Context) error {
	s.schemaOnce.Do(func() {
		_, s.schemaErr = s.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS ide_projects (
  name TEXT NOT NULL,
  kind TEXT NOT NULL,
  body TEXT NOT NULL,
  updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
  PRIMARY KEY (name, kind)
);
`)
	})
	return s.schemaErr
}

func (s *PostgresStore) Save(ctx context.Context, kind Kind, name, body string) (string, error) {
	safe, err := checkSave(kind, name, body)
	if err != nil {
		return "", err
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO ide_projects (name, kind, body, updated_at)
VALUES ($1, $2, $3, NOW())
ON CONFLICT (name, kind)
DO UPDATE SET body = EXCLUDED.body, updated_at = EXCLUDED.updated_at`,
		safe, string(kind), body)
	if err != nil {
		s.cache.Remove(cacheKey(kind, safe))
		return "", fmt.Errorf("save project %s: %w", safe, err)
	}
	s.cache.Add(cacheKey(kind, safe), body)
	return safe, nil
}

func (s *PostgresStore) Get(ctx context.Context, kind Kind, name string) (string, error) {
	if !kind.valid() {
		return "", ErrInvalidKind
	}
	safe := sanitize.Name(name)
	key := cacheKey(kind, safe)
	if body, ok := s.cache.Get(key); ok {
		return body, nil
	}
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM ide_projects WHERE name = $1 AND kind = $2`, safe, string(kind)).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("get project %s: %w", safe, err)
	}
	s.cache.Add(key, body)
	return body, nil
}

func (s *PostgresStore) List(ctx context.Context) (Listing, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT name, kind FROM ide_projects`)
	if err != nil {
		return Listing{}, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	out := newListing()
	for rows.Next() {
		var name, kind string
		if err := rows.Scan(&name, &kind); err != nil {
			return Listing{}, err
		}
		out.add(Kind(kind), name)
	}
	if err := rows.Err(); err != nil {
		return Listing{}, err
	}
	out.sort()
	return out, nil
}

func cacheKey(kind Kind, name string) string {
	return string(kind) + "/" + name
}
