package quiz

import (
	"sort"
	"time"

	"quizmaster/internal/domain"
)

// ScoreSummary is the correct/total/percentage triple shown on the results screen.
type ScoreSummary struct {
	Correct    int `json:"correct"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

// CalculateScore counts correct records against total questions.
func CalculateScore(answers []domain.AnswerRecord, total int) ScoreSummary {
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}
	return ScoreSummary{Correct: correct, Total: total, Percentage: Percentage(correct, total)}
}

// Percentage rounds score/total*100 half up. A zero total yields 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return roundHalfUp(score*100, total)
}

// roundHalfUp returns floor(num/den + 0.5) for non-negative num and positive den.
func roundHalfUp(num, den int) int {
	return (2*num + den) / (2 * den)
}

// BuildResult derives the immutable result record from a completed state.
// Incorrect answers keep submission order.
func BuildResult(set domain.QuestionSet, state State, id string, completedAt time.Time) domain.QuizResult {
	total := len(state.ShuffledQuestions)
	incorrect := make([]domain.IncorrectAnswer, 0)
	for _, answer := range state.UserAnswers {
		if answer.IsCorrect {
			continue
		}
		q := state.ShuffledQuestions[answer.QuestionIndex]
		incorrect = append(incorrect, domain.IncorrectAnswer{
			Question:        q.Question,
			SelectedAnswers: append([]string{}, answer.SelectedAnswers...),
			CorrectAnswers:  append([]string{}, q.CorrectAnswers...),
			Explanation:     q.Explanation,
		})
	}

	return domain.QuizResult{
		ID:               id,
		QuestionSetID:    set.ID,
		QuestionSetName:  set.Name,
		Score:            state.Score,
		TotalQuestions:   total,
		Percentage:       Percentage(state.Score, total),
		CompletedAt:      completedAt,
		IncorrectAnswers: incorrect,
	}
}

// ScoreMessage is the headline shown for a percentage.
func ScoreMessage(percentage int) string {
	switch {
	case percentage == 100:
		return "Perfect Score!"
	case percentage >= 80:
		return "Excellent Work!"
	case percentage >= 60:
		return "Good Job!"
	default:
		return "Keep Practicing!"
	}
}

// Summarize computes history statistics: rounded mean and best percentage.
func Summarize(results []domain.QuizResult) domain.ResultStats {
	if len(results) == 0 {
		return domain.ResultStats{}
	}
	sum, best := 0, 0
	for _, r := range results {
		sum += r.Percentage
		if r.Percentage > best {
			best = r.Percentage
		}
	}
	return domain.ResultStats{
		Count:             len(results),
		AveragePercentage: roundHalfUp(sum, len(results)),
		BestPercentage:    best,
	}
}

// SortNewestFirst orders results by completion time, most recent first.
func SortNewestFirst(results []domain.QuizResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CompletedAt.After(results[j].CompletedAt)
	})
}
