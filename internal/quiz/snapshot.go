package quiz

import "quizmaster/internal/domain"

// CurrentQuestion is the render-facing view of the question being answered.
type CurrentQuestion struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	MultipleAnswer bool     `json:"multipleAnswer"`
}

// Feedback is revealed once the current question has been submitted.
type Feedback struct {
	IsCorrect      bool     `json:"isCorrect"`
	CorrectAnswers []string `json:"correctAnswers"`
	WrongSelected  []string `json:"wrongSelected"`
	Explanation    string   `json:"explanation"`
}

// Snapshot is the structured read model handed to renderers after each transition.
type Snapshot struct {
	Phase           Phase              `json:"phase"`
	QuestionSetID   string             `json:"questionSetId,omitempty"`
	QuestionSetName string             `json:"questionSetName,omitempty"`
	QuestionNumber  int                `json:"questionNumber"`
	TotalQuestions  int                `json:"totalQuestions"`
	Question        *CurrentQuestion   `json:"question,omitempty"`
	Selected        []string           `json:"selected"`
	FeedbackVisible bool               `json:"feedbackVisible"`
	Feedback        *Feedback          `json:"feedback,omitempty"`
	Score           int                `json:"score"`
	Answered        int                `json:"answered"`
	Result          *domain.QuizResult `json:"result,omitempty"`
}

// NotStartedSnapshot is what renderers see while no session is live.
func NotStartedSnapshot() Snapshot {
	return Snapshot{Phase: PhaseNotStarted, Selected: []string{}}
}

// Snapshot captures the session for rendering.
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		Phase:           s.Phase(),
		QuestionSetID:   s.set.ID,
		QuestionSetName: s.set.Name,
		TotalQuestions:  len(s.set.Questions),
		Selected:        s.Selection(),
		FeedbackVisible: s.feedback,
		Score:           s.state.Score,
		Answered:        len(s.state.UserAnswers),
	}
	if snap.Phase == PhaseNotStarted {
		return snap
	}

	if result, ok := s.Result(); ok {
		snap.Result = &result
		snap.QuestionNumber = snap.TotalQuestions
		return snap
	}

	q := s.state.ShuffledQuestions[s.state.CurrentQuestionIndex]
	snap.QuestionNumber = s.state.CurrentQuestionIndex + 1
	snap.Question = &CurrentQuestion{
		Question:       q.Question,
		Options:        append([]string{}, q.Options...),
		MultipleAnswer: q.IsMultipleAnswer(),
	}

	if s.feedback {
		last := s.state.UserAnswers[len(s.state.UserAnswers)-1]
		wrong := []string{}
		for _, selected := range last.SelectedAnswers {
			if !q.IsCorrectOption(selected) {
				wrong = append(wrong, selected)
			}
		}
		snap.Feedback = &Feedback{
			IsCorrect:      last.IsCorrect,
			CorrectAnswers: append([]string{}, q.CorrectAnswers...),
			WrongSelected:  wrong,
			Explanation:    q.Explanation,
		}
	}
	return snap
}
