package domain

import (
	"errors"
	"strings"
)

var (
	// ErrQuestionSetNotFound is returned when a question set id is unknown.
	ErrQuestionSetNotFound = errors.New("question set not found")
	// ErrResultNotFound is returned when a result id is unknown.
	ErrResultNotFound = errors.New("quiz result not found")
	// ErrNoActiveSession is returned when a transition is requested without a live quiz.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrMalformedUpload indicates the uploaded document is not parseable JSON.
	ErrMalformedUpload = errors.New("Invalid JSON file. Please check the format.")
	// ErrInvalidQuestionSet indicates the upload parsed but failed schema validation.
	ErrInvalidQuestionSet = errors.New("invalid question set")
	// ErrEmptyQuestionSet is returned when starting a quiz over a set with no questions.
	ErrEmptyQuestionSet = errors.New("question set has no questions")

	// ErrSessionNotStarted is returned for transitions before Start.
	ErrSessionNotStarted = errors.New("quiz session not started")
	// ErrSessionAlreadyStarted is returned when Start is called twice.
	ErrSessionAlreadyStarted = errors.New("quiz session already started")
	// ErrSessionCompleted is returned for any transition after completion.
	ErrSessionCompleted = errors.New("quiz session already completed")
	// ErrFeedbackShown is returned when submitting twice for the same question.
	ErrFeedbackShown = errors.New("answer already submitted for current question")
	// ErrFeedbackNotShown is returned when advancing before submitting.
	ErrFeedbackNotShown = errors.New("current question has not been answered")
	// ErrUnknownOption is returned when selecting text that is not an option of the current question.
	ErrUnknownOption = errors.New("option not found in current question")
)

// ValidationError carries every schema problem found in an upload.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidQuestionSet.Error() + ": " + strings.Join(e.Errors, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuestionSet
}

// IsTransitionError reports whether err is a session contract violation.
func IsTransitionError(err error) bool {
	return errors.Is(err, ErrSessionNotStarted) ||
		errors.Is(err, ErrSessionAlreadyStarted) ||
		errors.Is(err, ErrSessionCompleted) ||
		errors.Is(err, ErrFeedbackShown) ||
		errors.Is(err, ErrFeedbackNotShown)
}
