package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"quizmaster/internal/domain"
	"quizmaster/internal/infra/memory"
)

func TestStoreRoundTripsCollections(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewStore(newClient(mr))

	sets, err := store.LoadQuestionSets(ctx)
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if sets == nil || len(sets) != 0 {
		t.Fatalf("expected empty non-nil collection, got %#v", sets)
	}

	if err := store.SaveQuestionSets(ctx, []domain.QuestionSet{sampleSet("set-1"), sampleSet("set-2")}); err != nil {
		t.Fatalf("save sets: %v", err)
	}
	if !mr.Exists(QuestionSetsKey) {
		t.Fatalf("expected %s to be written", QuestionSetsKey)
	}
	sets, err = store.LoadQuestionSets(ctx)
	if err != nil {
		t.Fatalf("load sets: %v", err)
	}
	if len(sets) != 2 || sets[0].ID != "set-1" || sets[1].ID != "set-2" {
		t.Fatalf("unexpected sets %+v", sets)
	}
	if !sets[0].CreatedAt.Equal(sampleSet("").CreatedAt) {
		t.Fatalf("createdAt not preserved: %v", sets[0].CreatedAt)
	}

	result := domain.QuizResult{ID: "r1", QuestionSetID: "set-1", Score: 1, TotalQuestions: 1, Percentage: 100, IncorrectAnswers: []domain.IncorrectAnswer{}}
	if err := store.SaveResults(ctx, []domain.QuizResult{result}); err != nil {
		t.Fatalf("save results: %v", err)
	}
	results, err := store.LoadResults(ctx)
	if err != nil {
		t.Fatalf("load results: %v", err)
	}
	if len(results) != 1 || results[0].ID != "r1" {
		t.Fatalf("unexpected results %+v", results)
	}
}

func TestStoreRejectsCorruptDocument(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	if err := mr.Set(ResultsKey, "{not json"); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := NewStore(newClient(mr)).LoadResults(context.Background()); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestQuestionSetCacheCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	backing := &countingStore{Store: memory.NewStore()}
	_ = backing.Store.SaveQuestionSets(ctx, []domain.QuestionSet{sampleSet("set-1"), sampleSet("set-2")})
	cache := NewQuestionSetCache(newClient(mr), backing, time.Minute)

	if _, err := cache.LoadQuestionSets(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}
	if backing.loads != 1 {
		t.Fatalf("expected backing load once, got %d", backing.loads)
	}

	// Second call should hit cache, backing not incremented.
	sets, _ := cache.LoadQuestionSets(ctx)
	if backing.loads != 1 {
		t.Fatalf("expected cache hit, backing loads=%d", backing.loads)
	}
	if len(sets) != 2 || sets[0].ID != "set-1" || sets[1].ID != "set-2" {
		t.Fatalf("cache lost ordering: %+v", sets)
	}

	mr.FastForward(2 * time.Minute)
	_, _ = cache.LoadQuestionSets(ctx)
	if backing.loads != 2 {
		t.Fatalf("expected reload after expiry, backing loads=%d", backing.loads)
	}
}

func TestQuestionSetCacheRefreshesOnSave(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	backing := &countingStore{Store: memory.NewStore()}
	cache := NewQuestionSetCache(newClient(mr), backing, time.Minute)

	if err := cache.SaveQuestionSets(ctx, []domain.QuestionSet{sampleSet("set-9")}); err != nil {
		t.Fatalf("save: %v", err)
	}
	sets, _ := cache.LoadQuestionSets(ctx)
	if backing.loads != 0 || len(sets) != 1 || sets[0].ID != "set-9" {
		t.Fatalf("expected cached write, loads=%d sets=%+v", backing.loads, sets)
	}

	if err := cache.SaveQuestionSets(ctx, []domain.QuestionSet{}); err != nil {
		t.Fatalf("save empty: %v", err)
	}
	if mr.Exists(questionSetsHash) {
		t.Fatalf("expected hash cleared for empty collection")
	}
}

type countingStore struct {
	*memory.Store
	loads int
}

func (s *countingStore) LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	s.loads++
	return s.Store.LoadQuestionSets(ctx)
}

func sampleSet(id string) domain.QuestionSet {
	return domain.QuestionSet{
		ID:   id,
		Name: "Arithmetic",
		Questions: []domain.Question{{
			Question:       "What is 2 + 2?",
			Options:        []string{"3", "4"},
			CorrectAnswers: []string{"4"},
			Explanation:    "basic",
		}},
		CreatedAt: time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC),
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
