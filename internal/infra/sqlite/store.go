// Package sqlite stores the collections in a local SQLite file, one JSON document
// per key, the same layout the browser app kept in local storage.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "modernc.org/sqlite" // driver: sqlite

	"quizmaster/internal/domain"
)

const (
	questionSetsKey = "quizApp_questionSets"
	resultsKey      = "quizApp_results"
)

const schema = `
CREATE TABLE IF NOT EXISTS storage (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
);
`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database file at path and ensures the schema exists.
// An empty path opens a private in-memory database.
func Open(ctx context.Context, path string) (*Store, error) {
	dsn := "file::memory:"
	if path != "" {
		dsn = "file:" + path + "?mode=rwc&_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one connection keeps in-memory databases alive and serializes writers
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	sets := []domain.QuestionSet{}
	if err := s.get(ctx, questionSetsKey, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (s *Store) SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error {
	return s.put(ctx, questionSetsKey, sets)
}

func (s *Store) LoadResults(ctx context.Context) ([]domain.QuizResult, error) {
	results := []domain.QuizResult{}
	if err := s.get(ctx, resultsKey, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) SaveResults(ctx context.Context, results []domain.QuizResult) error {
	return s.put(ctx, resultsKey, results)
}

func (s *Store) get(ctx context.Context, key string, dst any) error {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM storage WHERE key = ?`, key).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO storage (key, value, updated_at) VALUES (?, ?, strftime('%s','now'))
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(raw))
	if err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}
