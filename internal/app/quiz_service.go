package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"quizmaster/internal/domain"
	"quizmaster/internal/quiz"
)

// QuestionSetRepository persists the whole question-set collection.
type QuestionSetRepository interface {
	LoadQuestionSets(ctx context.Context) ([]domain.QuestionSet, error)
	SaveQuestionSets(ctx context.Context, sets []domain.QuestionSet) error
}

// ResultRepository persists the whole result history.
type ResultRepository interface {
	LoadResults(ctx context.Context) ([]domain.QuizResult, error)
	SaveResults(ctx context.Context, results []domain.QuizResult) error
}

// SessionRepository holds the single live quiz session (in-memory, Redis, etc).
type SessionRepository interface {
	Current() (*quiz.Session, bool)
	Replace(session *quiz.Session)
	Clear()
}

// Metrics receives quiz activity events.
type Metrics interface {
	UploadAccepted()
	UploadRejected()
	SessionStarted()
	AnswerSubmitted(correct bool)
	SessionCompleted(percentage int)
}

type nopMetrics struct{}

func (nopMetrics) UploadAccepted() {}
func (nopMetrics) UploadRejected() {}
func (nopMetrics) SessionStarted() {}
func (nopMetrics) AnswerSubmitted(bool) {}
func (nopMetrics) SessionCompleted(int) {}

// Option configures a QuizService.
type Option func(*QuizService)

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *QuizService) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *QuizService) { s.newID = newID }
}

// WithSeed fixes the shuffle seed; zero keeps the time-seeded default.
func WithSeed(seed int64) Option {
	return func(s *QuizService) { s.rnd = quiz.NewRand(seed) }
}

func WithMetrics(m Metrics) Option {
	return func(s *QuizService) { s.metrics = m }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(s *QuizService) { s.logger = logger }
}

// QuizService contains the quiz use cases. Every call is serialized so the
// single live session sees one transition at a time.
type QuizService struct {
	sets     QuestionSetRepository
	results  ResultRepository
	sessions SessionRepository

	metrics Metrics
	logger  zerolog.Logger
	now     func() time.Time
	newID   func() string
	rnd     *rand.Rand

	mu          sync.Mutex
	subscribers map[chan quiz.Snapshot]struct{}
	// completed results whose save failed; retried before the next history access
	unsaved []domain.QuizResult
}

func NewQuizService(sets QuestionSetRepository, results ResultRepository, sessions SessionRepository, opts ...Option) *QuizService {
	s := &QuizService{
		sets:        sets,
		results:     results,
		sessions:    sessions,
		metrics:     nopMetrics{},
		logger:      zerolog.Nop(),
		now:         time.Now,
		newID:       uuid.NewString,
		subscribers: make(map[chan quiz.Snapshot]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = quiz.NewRand(0)
	}
	return s
}

// Upload validates an uploaded document and appends it to the collection.
func (s *QuizService) Upload(ctx context.Context, filename string, data []byte) (domain.QuestionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := quiz.ParseUpload(filename, data, s.now(), s.newID())
	if err != nil {
		s.metrics.UploadRejected()
		s.logger.Info().Err(err).Str("filename", filename).Msg("upload rejected")
		return domain.QuestionSet{}, err
	}

	sets, err := s.sets.LoadQuestionSets(ctx)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	if err := s.sets.SaveQuestionSets(ctx, append(sets, set)); err != nil {
		return domain.QuestionSet{}, err
	}

	s.metrics.UploadAccepted()
	s.logger.Info().Str("question_set_id", set.ID).Str("name", set.Name).Int("questions", len(set.Questions)).Msg("question set uploaded")
	return set, nil
}

// QuestionSets lists the collection in upload order.
func (s *QuizService) QuestionSets(ctx context.Context) ([]domain.QuestionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sets.LoadQuestionSets(ctx)
}

func (s *QuizService) QuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findQuestionSet(ctx, id)
}

// DeleteQuestionSet removes a set. A live session keeps its own copy.
func (s *QuizService) DeleteQuestionSet(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sets, err := s.sets.LoadQuestionSets(ctx)
	if err != nil {
		return err
	}
	kept := make([]domain.QuestionSet, 0, len(sets))
	for _, set := range sets {
		if set.ID != id {
			kept = append(kept, set)
		}
	}
	if len(kept) == len(sets) {
		return domain.ErrQuestionSetNotFound
	}
	return s.sets.SaveQuestionSets(ctx, kept)
}

// StartQuiz replaces any live session with a fresh one over the given set.
func (s *QuizService) StartQuiz(ctx context.Context, setID string) (quiz.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	set, err := s.findQuestionSet(ctx, setID)
	if err != nil {
		return quiz.Snapshot{}, err
	}
	return s.startLocked(ctx, set)
}

// RetakeQuiz starts a new session, with a new shuffle, over the live session's set.
func (s *QuizService) RetakeQuiz(ctx context.Context) (quiz.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.sessions.Current()
	if !ok {
		return quiz.Snapshot{}, domain.ErrNoActiveSession
	}
	return s.startLocked(ctx, current.QuestionSet())
}

func (s *QuizService) startLocked(ctx context.Context, set domain.QuestionSet) (quiz.Snapshot, error) {
	if err := s.flushUnsavedLocked(ctx); err != nil {
		s.logger.Warn().Err(err).Int("unsaved", len(s.unsaved)).Msg("retrying result save failed")
	}
	session := quiz.NewSession(set,
		quiz.WithRand(s.rnd),
		quiz.WithClock(s.now),
		quiz.WithIDGenerator(s.newID),
	)
	if err := session.Start(); err != nil {
		return quiz.Snapshot{}, err
	}
	s.sessions.Replace(session)
	s.metrics.SessionStarted()
	s.logger.Info().Str("question_set_id", set.ID).Int("questions", len(set.Questions)).Msg("quiz started")
	return s.broadcastLocked(), nil
}

// SelectAnswer toggles or replaces the selection on the current question.
func (s *QuizService) SelectAnswer(_ context.Context, option string) (quiz.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions.Current()
	if !ok {
		return quiz.Snapshot{}, domain.ErrNoActiveSession
	}
	changed, err := session.SelectAnswer(option)
	if err != nil {
		return quiz.Snapshot{}, err
	}
	if !changed {
		return session.Snapshot(), nil
	}
	return s.broadcastLocked(), nil
}

// SubmitAnswer scores the current selection and reveals feedback.
func (s *QuizService) SubmitAnswer(_ context.Context) (quiz.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions.Current()
	if !ok {
		return quiz.Snapshot{}, domain.ErrNoActiveSession
	}
	record, err := session.SubmitAnswer()
	if err != nil {
		return quiz.Snapshot{}, err
	}
	s.metrics.AnswerSubmitted(record.IsCorrect)
	return s.broadcastLocked(), nil
}

// Advance moves to the next question. Completing the quiz appends the result to
// the history; if that save fails the session stays completed, the error is
// returned and the result is kept for retry on the next history access or start.
func (s *QuizService) Advance(ctx context.Context) (quiz.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions.Current()
	if !ok {
		return quiz.Snapshot{}, domain.ErrNoActiveSession
	}
	result, err := session.Advance()
	if err != nil {
		return quiz.Snapshot{}, err
	}
	if result != nil {
		s.unsaved = append(s.unsaved, *result)
		if err := s.flushUnsavedLocked(ctx); err != nil {
			s.logger.Error().Err(err).Str("result_id", result.ID).Int("unsaved", len(s.unsaved)).Msg("result not saved")
			s.broadcastLocked()
			return quiz.Snapshot{}, err
		}
		s.metrics.SessionCompleted(result.Percentage)
		s.logger.Info().
			Str("result_id", result.ID).
			Str("question_set_id", result.QuestionSetID).
			Int("score", result.Score).
			Int("percentage", result.Percentage).
			Msg("quiz completed")
	}
	return s.broadcastLocked(), nil
}

// flushUnsavedLocked appends every pending result to the history in one save.
func (s *QuizService) flushUnsavedLocked(ctx context.Context) error {
	if len(s.unsaved) == 0 {
		return nil
	}
	results, err := s.results.LoadResults(ctx)
	if err != nil {
		return fmt.Errorf("load results: %w", err)
	}
	if err := s.results.SaveResults(ctx, append(results, s.unsaved...)); err != nil {
		return fmt.Errorf("save result: %w", err)
	}
	s.unsaved = nil
	return nil
}

// loadResultsLocked retries pending saves before reading the history.
func (s *QuizService) loadResultsLocked(ctx context.Context) ([]domain.QuizResult, error) {
	if err := s.flushUnsavedLocked(ctx); err != nil {
		return nil, err
	}
	return s.results.LoadResults(ctx)
}

// Snapshot returns the live session view, or a not-started view when none is live.
func (s *QuizService) Snapshot(_ context.Context) quiz.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// EndQuiz abandons the live session.
func (s *QuizService) EndQuiz(_ context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions.Clear()
	s.broadcastLocked()
}

// Results returns the history, newest first.
func (s *QuizService) Results(ctx context.Context) ([]domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.loadResultsLocked(ctx)
	if err != nil {
		return nil, err
	}
	quiz.SortNewestFirst(results)
	return results, nil
}

func (s *QuizService) Result(ctx context.Context, id string) (domain.QuizResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.loadResultsLocked(ctx)
	if err != nil {
		return domain.QuizResult{}, err
	}
	for _, r := range results {
		if r.ID == id {
			return r, nil
		}
	}
	return domain.QuizResult{}, domain.ErrResultNotFound
}

// ClearResults empties the history.
func (s *QuizService) ClearResults(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.results.SaveResults(ctx, []domain.QuizResult{}); err != nil {
		return err
	}
	s.unsaved = nil
	return nil
}

// Stats summarizes the history.
func (s *QuizService) Stats(ctx context.Context) (domain.ResultStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	results, err := s.loadResultsLocked(ctx)
	if err != nil {
		return domain.ResultStats{}, err
	}
	return quiz.Summarize(results), nil
}

// Subscribe returns a channel that receives a snapshot after every transition.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context) (<-chan quiz.Snapshot, func()) {
	ch := make(chan quiz.Snapshot, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *QuizService) findQuestionSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	sets, err := s.sets.LoadQuestionSets(ctx)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	for _, set := range sets {
		if set.ID == id {
			return set, nil
		}
	}
	return domain.QuestionSet{}, domain.ErrQuestionSetNotFound
}

func (s *QuizService) snapshotLocked() quiz.Snapshot {
	session, ok := s.sessions.Current()
	if !ok {
		return quiz.NotStartedSnapshot()
	}
	return session.Snapshot()
}

func (s *QuizService) broadcastLocked() quiz.Snapshot {
	snap := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- snap:
		default:
			// slow subscriber: drop its oldest pending snapshot
			select {
			case <-ch:
			default:
			}
			ch <- snap
		}
	}
	return snap
}
