package quiz

import (
	"math/rand"
	"time"

	"github.com/google/uuid"

	"quizmaster/internal/domain"
)

// Phase is the coarse lifecycle position of a session.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInProgress Phase = "in_progress"
	PhaseCompleted  Phase = "completed"
)

// State is the full quiz session state handed to result derivation.
type State struct {
	ShuffledQuestions    []domain.Question     `json:"shuffledQuestions"`
	CurrentQuestionIndex int                   `json:"currentQuestionIndex"`
	UserAnswers          []domain.AnswerRecord `json:"userAnswers"`
	Score                int                   `json:"score"`
	IsCompleted          bool                  `json:"isCompleted"`
}

// Option configures a Session.
type Option func(*Session)

// WithRand injects the random source used for shuffling.
func WithRand(rnd *rand.Rand) Option {
	return func(s *Session) { s.rnd = rnd }
}

// WithClock injects the clock stamping completedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// WithIDGenerator injects the generator for result identifiers.
func WithIDGenerator(newID func() string) Option {
	return func(s *Session) { s.newID = newID }
}

// Session is the quiz state machine: not_started -> in_progress -> completed.
// It is not safe for concurrent use; callers serialize transitions.
type Session struct {
	set   domain.QuestionSet
	rnd   *rand.Rand
	now   func() time.Time
	newID func() string

	started   bool
	state     State
	selection []string
	feedback  bool
	result    *domain.QuizResult
}

// NewSession prepares a session over set. Nothing is shuffled until Start.
func NewSession(set domain.QuestionSet, opts ...Option) *Session {
	s := &Session{
		set:   set,
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.rnd == nil {
		s.rnd = NewRand(0)
	}
	return s
}

// QuestionSet returns the set this session was created from.
func (s *Session) QuestionSet() domain.QuestionSet {
	return s.set
}

// Start shuffles the questions and their options and enters InProgress(0).
func (s *Session) Start() error {
	if s.started {
		return domain.ErrSessionAlreadyStarted
	}
	if len(s.set.Questions) == 0 {
		return domain.ErrEmptyQuestionSet
	}
	s.started = true
	s.state = State{
		ShuffledQuestions: shuffleQuestions(s.rnd, s.set.Questions),
		UserAnswers:       []domain.AnswerRecord{},
	}
	s.selection = []string{}
	return nil
}

// Phase reports where the session is in its lifecycle.
func (s *Session) Phase() Phase {
	switch {
	case !s.started:
		return PhaseNotStarted
	case s.state.IsCompleted:
		return PhaseCompleted
	default:
		return PhaseInProgress
	}
}

// FeedbackVisible reports whether the current question has been submitted.
func (s *Session) FeedbackVisible() bool {
	return s.feedback
}

// CurrentQuestion returns the question at the current index.
func (s *Session) CurrentQuestion() (domain.Question, bool) {
	if !s.started {
		return domain.Question{}, false
	}
	return s.state.ShuffledQuestions[s.state.CurrentQuestionIndex], true
}

// SelectAnswer toggles option for multi-answer questions and replaces the selection
// otherwise. It reports whether the selection changed; while feedback is visible the
// call is ignored.
func (s *Session) SelectAnswer(option string) (bool, error) {
	if err := s.requireInProgress(); err != nil {
		return false, err
	}
	if s.feedback {
		return false, nil
	}

	q := s.state.ShuffledQuestions[s.state.CurrentQuestionIndex]
	if !q.HasOption(option) {
		return false, domain.ErrUnknownOption
	}

	if !q.IsMultipleAnswer() {
		s.selection = []string{option}
		return true, nil
	}

	for i, selected := range s.selection {
		if selected == option {
			s.selection = append(s.selection[:i:i], s.selection[i+1:]...)
			return true, nil
		}
	}
	s.selection = append(s.selection, option)
	return true, nil
}

// SubmitAnswer scores the current selection, appends its AnswerRecord and reveals feedback.
// An empty selection is accepted and counts as incorrect.
func (s *Session) SubmitAnswer() (domain.AnswerRecord, error) {
	if err := s.requireInProgress(); err != nil {
		return domain.AnswerRecord{}, err
	}
	if s.feedback {
		return domain.AnswerRecord{}, domain.ErrFeedbackShown
	}

	q := s.state.ShuffledQuestions[s.state.CurrentQuestionIndex]
	record := domain.AnswerRecord{
		QuestionIndex:   s.state.CurrentQuestionIndex,
		SelectedAnswers: append([]string{}, s.selection...),
		IsCorrect:       SetEqual(s.selection, q.CorrectAnswers),
	}

	s.state.UserAnswers = append(s.state.UserAnswers, record)
	if record.IsCorrect {
		s.state.Score++
	}
	s.feedback = true
	return copyRecord(record), nil
}

// Advance moves past the answered question. Advancing from the last question completes
// the session and returns the result; that is the only time a result is returned.
func (s *Session) Advance() (*domain.QuizResult, error) {
	if err := s.requireInProgress(); err != nil {
		return nil, err
	}
	if !s.feedback {
		return nil, domain.ErrFeedbackNotShown
	}

	if s.state.CurrentQuestionIndex+1 >= len(s.state.ShuffledQuestions) {
		s.state.IsCompleted = true
		result := BuildResult(s.set, s.State(), s.newID(), s.now())
		s.result = &result
		out := copyResult(result)
		return &out, nil
	}

	s.state.CurrentQuestionIndex++
	s.selection = []string{}
	s.feedback = false
	return nil, nil
}

// Result returns the result built at completion.
func (s *Session) Result() (domain.QuizResult, bool) {
	if s.result == nil {
		return domain.QuizResult{}, false
	}
	return copyResult(*s.result), true
}

// State returns a deep copy of the session state.
func (s *Session) State() State {
	out := State{
		CurrentQuestionIndex: s.state.CurrentQuestionIndex,
		Score:                s.state.Score,
		IsCompleted:          s.state.IsCompleted,
		ShuffledQuestions:    make([]domain.Question, len(s.state.ShuffledQuestions)),
		UserAnswers:          make([]domain.AnswerRecord, len(s.state.UserAnswers)),
	}
	for i, q := range s.state.ShuffledQuestions {
		out.ShuffledQuestions[i] = q.Clone()
	}
	for i, r := range s.state.UserAnswers {
		out.UserAnswers[i] = copyRecord(r)
	}
	return out
}

// Selection returns the in-progress selection for the current question.
func (s *Session) Selection() []string {
	return append([]string{}, s.selection...)
}

func (s *Session) requireInProgress() error {
	switch s.Phase() {
	case PhaseNotStarted:
		return domain.ErrSessionNotStarted
	case PhaseCompleted:
		return domain.ErrSessionCompleted
	}
	return nil
}

func copyRecord(r domain.AnswerRecord) domain.AnswerRecord {
	r.SelectedAnswers = append([]string{}, r.SelectedAnswers...)
	return r
}

func copyResult(r domain.QuizResult) domain.QuizResult {
	incorrect := make([]domain.IncorrectAnswer, len(r.IncorrectAnswers))
	for i, ia := range r.IncorrectAnswers {
		ia.SelectedAnswers = append([]string{}, ia.SelectedAnswers...)
		ia.CorrectAnswers = append([]string{}, ia.CorrectAnswers...)
		incorrect[i] = ia
	}
	r.IncorrectAnswers = incorrect
	return r
}
