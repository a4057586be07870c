package memory

import (
	"context"
	"sync"

	"quizmaster/internal/domain"
)

// Store keeps both collections in process memory. It implements
// app.QuestionSetRepository and app.ResultRepository.
type Store struct {
	mu      sync.RWMutex
	sets    []domain.QuestionSet
	results []domain.QuizResult
}

func NewStore() *Store {
	return &Store{}
}

func (s *Store) LoadQuestionSets(_ context.Context) ([]domain.QuestionSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSets(s.sets), nil
}

func (s *Store) SaveQuestionSets(_ context.Context, sets []domain.QuestionSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sets = cloneSets(sets)
	return nil
}

func (s *Store) LoadResults(_ context.Context) ([]domain.QuizResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneResults(s.results), nil
}

func (s *Store) SaveResults(_ context.Context, results []domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = cloneResults(results)
	return nil
}

func cloneSets(in []domain.QuestionSet) []domain.QuestionSet {
	out := make([]domain.QuestionSet, len(in))
	for i, set := range in {
		out[i] = set.Clone()
	}
	return out
}

func cloneResults(in []domain.QuizResult) []domain.QuizResult {
	out := make([]domain.QuizResult, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}
