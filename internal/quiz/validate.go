package quiz

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"quizmaster/internal/domain"
)

// UntitledQuizName names uploads whose file name is empty once the extension is stripped.
const UntitledQuizName = "Untitled Quiz"

// ValidationResult lists every problem found in an untrusted question-set document.
type ValidationResult struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Validate checks a decoded JSON document against the question-set shape.
// Errors accumulate across questions; only a missing questions array short-circuits.
func Validate(doc any) ValidationResult {
	errs := make([]string, 0)

	questions, ok := questionsOf(doc)
	if !ok {
		errs = append(errs, `Missing or invalid "questions" array`)
		return ValidationResult{IsValid: false, Errors: errs}
	}

	for i, raw := range questions {
		n := i + 1
		q, _ := raw.(map[string]any)

		if !nonEmptyString(q["question"]) {
			errs = append(errs, fmt.Sprintf(`Question %d: Missing or invalid "question"`, n))
		}

		options, optionsOK := q["options"].([]any)
		if !optionsOK || len(options) < 2 {
			errs = append(errs, fmt.Sprintf("Question %d: Must have at least 2 options", n))
		}
		for j, opt := range options {
			if _, isString := opt.(string); !isString {
				errs = append(errs, fmt.Sprintf("Question %d: Option %d must be a string", n, j+1))
			}
		}

		answers, answersOK := q["correctAnswers"].([]any)
		if !answersOK || len(answers) == 0 {
			errs = append(errs, fmt.Sprintf("Question %d: Must have at least one correct answer", n))
		} else {
			for _, answer := range answers {
				if !containsAny(options, answer) {
					errs = append(errs, fmt.Sprintf("Question %d: Correct answer %s is not in options", n, quoteAnswer(answer)))
				}
			}
		}

		if !nonEmptyString(q["explanation"]) {
			errs = append(errs, fmt.Sprintf(`Question %d: Missing or invalid "explanation"`, n))
		}
	}

	return ValidationResult{IsValid: len(errs) == 0, Errors: errs}
}

// DecodeQuestions narrows a document into typed questions. It validates first and
// never assumes the shape of a document that failed validation.
func DecodeQuestions(doc any) ([]domain.Question, error) {
	result := Validate(doc)
	if !result.IsValid {
		return nil, &domain.ValidationError{Errors: result.Errors}
	}

	raw, _ := questionsOf(doc)
	questions := make([]domain.Question, 0, len(raw))
	for _, item := range raw {
		q := item.(map[string]any)
		questions = append(questions, domain.Question{
			Question:       q["question"].(string),
			Options:        toStrings(q["options"].([]any)),
			CorrectAnswers: toStrings(q["correctAnswers"].([]any)),
			Explanation:    q["explanation"].(string),
		})
	}
	return questions, nil
}

// ParseUpload turns uploaded bytes into a QuestionSet. Malformed JSON yields
// domain.ErrMalformedUpload; schema problems yield a *domain.ValidationError.
func ParseUpload(filename string, data []byte, now time.Time, id string) (domain.QuestionSet, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.QuestionSet{}, domain.ErrMalformedUpload
	}

	questions, err := DecodeQuestions(doc)
	if err != nil {
		return domain.QuestionSet{}, err
	}

	return domain.QuestionSet{
		ID:        id,
		Name:      SetNameFromFilename(filename),
		Questions: questions,
		CreatedAt: now,
	}, nil
}

// SetNameFromFilename strips the .json extension and falls back to UntitledQuizName.
func SetNameFromFilename(filename string) string {
	name := strings.TrimSpace(strings.TrimSuffix(filename, ".json"))
	if name == "" {
		return UntitledQuizName
	}
	return name
}

func questionsOf(doc any) ([]any, bool) {
	obj, ok := doc.(map[string]any)
	if !ok {
		return nil, false
	}
	questions, ok := obj["questions"].([]any)
	return questions, ok
}

func nonEmptyString(v any) bool {
	s, ok := v.(string)
	return ok && s != ""
}

func containsAny(values []any, target any) bool {
	s, ok := target.(string)
	if !ok {
		return false
	}
	for _, v := range values {
		if vs, isString := v.(string); isString && vs == s {
			return true
		}
	}
	return false
}

func quoteAnswer(answer any) string {
	return `"` + fmt.Sprint(answer) + `"`
}

func toStrings(values []any) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.(string)
	}
	return out
}
