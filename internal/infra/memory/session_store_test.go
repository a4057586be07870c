package memory

import (
	"context"
	"testing"

	"quizmaster/internal/domain"
	"quizmaster/internal/quiz"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	if _, ok := store.Current(); ok {
		t.Fatalf("expected no session")
	}

	first := quiz.NewSession(sampleSet())
	store.Replace(first)
	if got, ok := store.Current(); !ok || got != first {
		t.Fatalf("expected first session present")
	}

	second := quiz.NewSession(sampleSet())
	store.Replace(second)
	if got, _ := store.Current(); got != second {
		t.Fatalf("expected replacement to win")
	}

	store.Clear()
	if _, ok := store.Current(); ok {
		t.Fatalf("expected session removed")
	}
}

func TestStoreCopiesOnLoadAndSave(t *testing.T) {
	ctx := context.Background()
	store := NewStore()

	sets := []domain.QuestionSet{sampleSet()}
	if err := store.SaveQuestionSets(ctx, sets); err != nil {
		t.Fatalf("save sets: %v", err)
	}
	sets[0].Questions[0].Options[0] = "mutated"

	loaded, err := store.LoadQuestionSets(ctx)
	if err != nil {
		t.Fatalf("load sets: %v", err)
	}
	if loaded[0].Questions[0].Options[0] != "3" {
		t.Fatalf("store shares memory with caller")
	}

	results := []domain.QuizResult{{ID: "r1", Score: 1, TotalQuestions: 1, Percentage: 100}}
	if err := store.SaveResults(ctx, results); err != nil {
		t.Fatalf("save results: %v", err)
	}
	got, _ := store.LoadResults(ctx)
	if len(got) != 1 || got[0].ID != "r1" {
		t.Fatalf("unexpected results %+v", got)
	}
}
