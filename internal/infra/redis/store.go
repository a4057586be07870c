package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizmaster/internal/domain"
)

// Keys mirror the browser storage layout so a dump can be moved between backends.
const (
	QuestionSetsKey = "quizApp_questionSets"
	ResultsKey      = "quizApp_results"
)

// Store keeps each collection as one JSON document under a fixed key.
type Store struct {
	client *redis.Client
}

func NewStore(client *redis.Client) *Store {
	return &Store{client: client}
}

func (s *Store) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	sets := []domain.QuestionSet{}
	if err := s.load(ctx, QuestionSetsKey, &sets); err != nil {
		return nil, err
	}
	return sets, nil
}

func (s *Store) SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error {
	return s.save(ctx, QuestionSetsKey, sets)
}

func (s *Store) LoadResults(ctx context.Context) ([]domain.QuizResult, error) {
	results := []domain.QuizResult{}
	if err := s.load(ctx, ResultsKey, &results); err != nil {
		return nil, err
	}
	return results, nil
}

func (s *Store) SaveResults(ctx context.Context, results []domain.QuizResult) error {
	return s.save(ctx, ResultsKey, results)
}

func (s *Store) load(ctx context.Context, key string, dst any) error {
	raw, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode %s: %w", key, err)
	}
	return nil
}

func (s *Store) save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
