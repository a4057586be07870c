package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizmaster/internal/domain"
)

// Store keeps both collections as JSONB rows ordered by position. Saves replace
// a whole collection inside one transaction.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	sets := []domain.QuestionSet{}
	err := s.scan(ctx, `SELECT data FROM question_sets ORDER BY position`, func(raw []byte) error {
		var set domain.QuestionSet
		if err := json.Unmarshal(raw, &set); err != nil {
			return fmt.Errorf("unmarshal question set: %w", err)
		}
		sets = append(sets, set)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load question sets: %w", err)
	}
	return sets, nil
}

func (s *Store) SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM question_sets`)
	for i, set := range sets {
		raw, err := json.Marshal(set)
		if err != nil {
			return fmt.Errorf("marshal question set: %w", err)
		}
		batch.Queue(`INSERT INTO question_sets (id, position, data, created_at) VALUES ($1, $2, $3, $4)`,
			set.ID, i, raw, set.CreatedAt)
	}
	if err := s.replace(ctx, batch); err != nil {
		return fmt.Errorf("save question sets: %w", err)
	}
	return nil
}

func (s *Store) LoadResults(ctx context.Context) ([]domain.QuizResult, error) {
	results := []domain.QuizResult{}
	err := s.scan(ctx, `SELECT data FROM quiz_results ORDER BY position`, func(raw []byte) error {
		var r domain.QuizResult
		if err := json.Unmarshal(raw, &r); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
		results = append(results, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load results: %w", err)
	}
	return results, nil
}

func (s *Store) SaveResults(ctx context.Context, results []domain.QuizResult) error {
	batch := &pgx.Batch{}
	batch.Queue(`DELETE FROM quiz_results`)
	for i, r := range results {
		raw, err := json.Marshal(r)
		if err != nil {
			return fmt.Errorf("marshal result: %w", err)
		}
		batch.Queue(`INSERT INTO quiz_results (id, position, question_set_id, completed_at, data) VALUES ($1, $2, $3, $4, $5)`,
			r.ID, i, r.QuestionSetID, r.CompletedAt, raw)
	}
	if err := s.replace(ctx, batch); err != nil {
		return fmt.Errorf("save results: %w", err)
	}
	return nil
}

func (s *Store) scan(ctx context.Context, query string, each func(raw []byte) error) error {
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return err
		}
		if err := each(raw); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *Store) replace(ctx context.Context, batch *pgx.Batch) error {
	return s.pool.BeginFunc(ctx, func(tx pgx.Tx) error {
		br := tx.SendBatch(ctx, batch)
		for i := 0; i < batch.Len(); i++ {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return err
			}
		}
		return br.Close()
	})
}
