package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/infra/memory"
	"quizmaster/internal/quiz"
)

const arithmeticUpload = `{"questions":[
	{"question":"2+2?","options":["3","4"],"correctAnswers":["4"],"explanation":"basic"},
	{"question":"Pick the primes","options":["2","4","5"],"correctAnswers":["2","5"],"explanation":"4 = 2*2"}
]}`

func TestUploadAndList(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	set, err := service.Upload(ctx, "arithmetic.json", []byte(arithmeticUpload))
	require.NoError(t, err)
	assert.Equal(t, "arithmetic", set.Name)
	assert.Equal(t, "id-1", set.ID)

	sets, err := service.QuestionSets(ctx)
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, set.ID, sets[0].ID)

	got, err := service.QuestionSet(ctx, set.ID)
	require.NoError(t, err)
	assert.Len(t, got.Questions, 2)
}

func TestUploadRejections(t *testing.T) {
	ctx := context.Background()
	service, metrics := newTestService()

	_, err := service.Upload(ctx, "broken.json", []byte(`{"questions":[`))
	assert.ErrorIs(t, err, domain.ErrMalformedUpload)

	_, err = service.Upload(ctx, "invalid.json", []byte(`{"questions":[{"question":"","options":["A"],"correctAnswers":["B"],"explanation":"x"}]}`))
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 3)

	sets, _ := service.QuestionSets(ctx)
	assert.Empty(t, sets)
	assert.Equal(t, 2, metrics.rejected)
}

func TestDeleteQuestionSet(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	set, err := service.Upload(ctx, "a.json", []byte(arithmeticUpload))
	require.NoError(t, err)

	require.NoError(t, service.DeleteQuestionSet(ctx, set.ID))
	assert.ErrorIs(t, service.DeleteQuestionSet(ctx, set.ID), domain.ErrQuestionSetNotFound)
	_, err = service.QuestionSet(ctx, set.ID)
	assert.ErrorIs(t, err, domain.ErrQuestionSetNotFound)
}

func TestFullQuizPersistsResultOnce(t *testing.T) {
	ctx := context.Background()
	service, metrics := newTestService()
	set, err := service.Upload(ctx, "arithmetic.json", []byte(arithmeticUpload))
	require.NoError(t, err)

	snap, err := service.StartQuiz(ctx, set.ID)
	require.NoError(t, err)
	assert.Equal(t, quiz.PhaseInProgress, snap.Phase)

	for i := 0; i < len(set.Questions); i++ {
		snap = service.Snapshot(ctx)
		correct := correctAnswersFor(set, snap.Question.Question)
		for _, opt := range correct {
			_, err := service.SelectAnswer(ctx, opt)
			require.NoError(t, err)
		}
		snap, err = service.SubmitAnswer(ctx)
		require.NoError(t, err)
		assert.True(t, snap.Feedback.IsCorrect)

		snap, err = service.Advance(ctx)
		require.NoError(t, err)
	}

	assert.Equal(t, quiz.PhaseCompleted, snap.Phase)
	require.NotNil(t, snap.Result)
	assert.Equal(t, 100, snap.Result.Percentage)
	assert.Equal(t, fixedNow, snap.Result.CompletedAt)

	_, err = service.Advance(ctx)
	assert.ErrorIs(t, err, domain.ErrSessionCompleted)

	results, err := service.Results(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, set.ID, results[0].QuestionSetID)
	assert.Equal(t, 1, metrics.completed)
	assert.Equal(t, 2, metrics.answers)

	stored, err := service.Result(ctx, results[0].ID)
	require.NoError(t, err)
	assert.Equal(t, results[0], stored)
}

func TestTransitionsWithoutSession(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()

	assert.Equal(t, quiz.PhaseNotStarted, service.Snapshot(ctx).Phase)

	_, err := service.SelectAnswer(ctx, "4")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = service.SubmitAnswer(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = service.Advance(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = service.RetakeQuiz(ctx)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = service.StartQuiz(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrQuestionSetNotFound)
}

func TestRetakeAndEndQuiz(t *testing.T) {
	ctx := context.Background()
	service, metrics := newTestService()
	set, err := service.Upload(ctx, "arithmetic.json", []byte(arithmeticUpload))
	require.NoError(t, err)

	_, err = service.StartQuiz(ctx, set.ID)
	require.NoError(t, err)
	_, err = service.SubmitAnswer(ctx)
	require.NoError(t, err)

	snap, err := service.RetakeQuiz(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Answered)
	assert.Equal(t, 1, snap.QuestionNumber)
	assert.Equal(t, set.ID, snap.QuestionSetID)
	assert.Equal(t, 2, metrics.started)

	service.EndQuiz(ctx)
	assert.Equal(t, quiz.PhaseNotStarted, service.Snapshot(ctx).Phase)
}

func TestStartQuizOnEmptySet(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	set, err := service.Upload(ctx, "empty.json", []byte(`{"questions":[]}`))
	require.NoError(t, err)

	_, err = service.StartQuiz(ctx, set.ID)
	assert.ErrorIs(t, err, domain.ErrEmptyQuestionSet)
	assert.Equal(t, quiz.PhaseNotStarted, service.Snapshot(ctx).Phase)
}

func TestResultsNewestFirstAndStats(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveResults(ctx, []domain.QuizResult{
		{ID: "old", Percentage: 40, CompletedAt: base},
		{ID: "new", Percentage: 100, CompletedAt: base.Add(48 * time.Hour)},
		{ID: "mid", Percentage: 75, CompletedAt: base.Add(24 * time.Hour)},
	}))
	service := app.NewQuizService(store, store, memory.NewSessionStore())

	results, err := service.Results(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{results[0].ID, results[1].ID, results[2].ID})

	stats, err := service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultStats{Count: 3, AveragePercentage: 72, BestPercentage: 100}, stats)

	_, err = service.Result(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrResultNotFound)

	require.NoError(t, service.ClearResults(ctx))
	results, _ = service.Results(ctx)
	assert.Empty(t, results)
}

func TestAdvanceReportsSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	results := &failingResults{err: errors.New("disk full")}
	service := app.NewQuizService(store, results, memory.NewSessionStore(), app.WithSeed(5))

	set, err := service.Upload(ctx, "one.json", []byte(`{"questions":[{"question":"q","options":["a","b"],"correctAnswers":["a"],"explanation":"e"}]}`))
	require.NoError(t, err)
	_, err = service.StartQuiz(ctx, set.ID)
	require.NoError(t, err)
	_, err = service.SubmitAnswer(ctx)
	require.NoError(t, err)

	_, err = service.Advance(ctx)
	assert.ErrorContains(t, err, "disk full")
	assert.Equal(t, quiz.PhaseCompleted, service.Snapshot(ctx).Phase)
}

func TestUnsavedResultIsRetried(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	results := &failingResults{err: errors.New("disk full")}
	service := app.NewQuizService(store, results, memory.NewSessionStore(), app.WithSeed(5))

	set, err := service.Upload(ctx, "one.json", []byte(`{"questions":[{"question":"q","options":["a","b"],"correctAnswers":["a"],"explanation":"e"}]}`))
	require.NoError(t, err)
	_, err = service.StartQuiz(ctx, set.ID)
	require.NoError(t, err)
	_, err = service.SubmitAnswer(ctx)
	require.NoError(t, err)
	_, err = service.Advance(ctx)
	require.Error(t, err)
	completed := service.Snapshot(ctx).Result
	require.NotNil(t, completed)

	// still failing: history access reports the error instead of hiding the result
	_, err = service.Results(ctx)
	assert.ErrorContains(t, err, "disk full")

	// a new quiz starts even though the retry fails, and the result stays pending
	_, err = service.StartQuiz(ctx, set.ID)
	require.NoError(t, err)
	assert.Empty(t, results.saved)

	results.err = nil
	history, err := service.Results(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, completed.ID, history[0].ID)

	// saved once only
	history, err = service.Results(ctx)
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	set, err := service.Upload(ctx, "arithmetic.json", []byte(arithmeticUpload))
	require.NoError(t, err)

	ch, cancel := service.Subscribe(ctx)
	defer cancel()

	initial := <-ch
	assert.Equal(t, quiz.PhaseNotStarted, initial.Phase)

	_, err = service.StartQuiz(ctx, set.ID)
	require.NoError(t, err)
	update := <-ch
	assert.Equal(t, quiz.PhaseInProgress, update.Phase)

	_, err = service.SubmitAnswer(ctx)
	require.NoError(t, err)
	update = <-ch
	assert.True(t, update.FeedbackVisible)
}

func TestSubscribeDropsOldestForSlowReader(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	set, err := service.Upload(ctx, "arithmetic.json", []byte(arithmeticUpload))
	require.NoError(t, err)

	ch, cancel := service.Subscribe(ctx)
	for i := 0; i < 20; i++ {
		_, err := service.StartQuiz(ctx, set.ID)
		require.NoError(t, err)
	}
	_, err = service.SubmitAnswer(ctx)
	require.NoError(t, err)

	var last quiz.Snapshot
	for len(ch) > 0 {
		last = <-ch
	}
	assert.True(t, last.FeedbackVisible, "latest snapshot must survive")

	cancel()
	_, open := <-ch
	assert.False(t, open)
}

var fixedNow = time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

func newTestService() (*app.QuizService, *recordingMetrics) {
	store := memory.NewStore()
	metrics := &recordingMetrics{}
	n := 0
	service := app.NewQuizService(store, store, memory.NewSessionStore(),
		app.WithSeed(42),
		app.WithClock(func() time.Time { return fixedNow }),
		app.WithIDGenerator(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}),
		app.WithMetrics(metrics),
	)
	return service, metrics
}

func correctAnswersFor(set domain.QuestionSet, question string) []string {
	for _, q := range set.Questions {
		if q.Question == question {
			return q.CorrectAnswers
		}
	}
	return nil
}

type recordingMetrics struct {
	accepted, rejected, started, answers, completed int
}

func (m *recordingMetrics) UploadAccepted() { m.accepted++ }
func (m *recordingMetrics) UploadRejected() { m.rejected++ }
func (m *recordingMetrics) SessionStarted() { m.started++ }
func (m *recordingMetrics) AnswerSubmitted(bool) { m.answers++ }
func (m *recordingMetrics) SessionCompleted(int) { m.completed++ }

// failingResults rejects saves while err is set and keeps them otherwise.
type failingResults struct {
	err   error
	saved []domain.QuizResult
}

func (f *failingResults) LoadResults(context.Context) ([]domain.QuizResult, error) {
	return append([]domain.QuizResult{}, f.saved...), nil
}

func (f *failingResults) SaveResults(_ context.Context, results []domain.QuizResult) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append([]domain.QuizResult{}, results...)
	return nil
}
