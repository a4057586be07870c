package domain

import "time"

// Question is a single multiple-choice or multi-select item as uploaded by a user.
// Correctness is tracked by option text, never by position.
type Question struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswers []string `json:"correctAnswers"`
	Explanation    string   `json:"explanation"`
}

// IsMultipleAnswer reports whether the question expects more than one selection.
func (q Question) IsMultipleAnswer() bool {
	return len(q.CorrectAnswers) > 1
}

// IsCorrectOption reports whether option is one of the correct answers.
func (q Question) IsCorrectOption(option string) bool {
	return contains(q.CorrectAnswers, option)
}

// HasOption reports whether option is one of the question's candidate answers.
func (q Question) HasOption(option string) bool {
	return contains(q.Options, option)
}

// Clone returns a deep copy so callers can permute options without aliasing.
func (q Question) Clone() Question {
	out := q
	out.Options = append([]string(nil), q.Options...)
	out.CorrectAnswers = append([]string(nil), q.CorrectAnswers...)
	return out
}

// QuestionSet is a named, ordered collection of questions. Immutable once created.
type QuestionSet struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Questions []Question `json:"questions"`
	CreatedAt time.Time  `json:"createdAt"`
}

// AnswerRecord is the outcome of one submitted answer within a session.
type AnswerRecord struct {
	QuestionIndex   int      `json:"questionIndex"`
	SelectedAnswers []string `json:"selectedAnswers"`
	IsCorrect       bool     `json:"isCorrect"`
}

// IncorrectAnswer carries everything needed to review a missed question.
type IncorrectAnswer struct {
	Question        string   `json:"question"`
	SelectedAnswers []string `json:"selectedAnswers"`
	CorrectAnswers  []string `json:"correctAnswers"`
	Explanation     string   `json:"explanation"`
}

// QuizResult is the persisted summary of one completed session.
type QuizResult struct {
	ID               string            `json:"id"`
	QuestionSetID    string            `json:"questionSetId"`
	QuestionSetName  string            `json:"questionSetName"`
	Score            int               `json:"score"`
	TotalQuestions   int               `json:"totalQuestions"`
	Percentage       int               `json:"percentage"`
	CompletedAt      time.Time         `json:"completedAt"`
	IncorrectAnswers []IncorrectAnswer `json:"incorrectAnswers"`
}

// ResultStats aggregates the result history.
type ResultStats struct {
	Count             int `json:"count"`
	AveragePercentage int `json:"averagePercentage"`
	BestPercentage    int `json:"bestPercentage"`
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the set.
func (s QuestionSet) Clone() QuestionSet {
	out := s
	out.Questions = make([]Question, len(s.Questions))
	for i, q := range s.Questions {
		out.Questions[i] = q.Clone()
	}
	return out
}

// Clone returns a deep copy of the result.
func (r QuizResult) Clone() QuizResult {
	out := r
	out.IncorrectAnswers = make([]IncorrectAnswer, len(r.IncorrectAnswers))
	for i, ia := range r.IncorrectAnswers {
		ia.SelectedAnswers = append([]string{}, ia.SelectedAnswers...)
		ia.CorrectAnswers = append([]string{}, ia.CorrectAnswers...)
		out.IncorrectAnswers[i] = ia
	}
	return out
}
