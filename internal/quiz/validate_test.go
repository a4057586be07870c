package quiz

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizmaster/internal/domain"
)

func decode(t *testing.T, raw string) any {
	t.Helper()
	var doc any
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	return doc
}

func TestValidateAcceptsWellFormedSet(t *testing.T) {
	doc := decode(t, `{"questions":[
		{"question":"2+2?","options":["3","4"],"correctAnswers":["4"],"explanation":"basic"},
		{"question":"Languages?","options":["Java","HTML","Python"],"correctAnswers":["Java","Python"],"explanation":"HTML is markup"}
	]}`)

	result := Validate(doc)
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Errors)
}

func TestValidateMissingQuestionsShortCircuits(t *testing.T) {
	for _, raw := range []string{`{}`, `{"questions":"nope"}`, `[]`, `null`, `42`} {
		result := Validate(decode(t, raw))
		assert.False(t, result.IsValid, raw)
		assert.Equal(t, []string{`Missing or invalid "questions" array`}, result.Errors, raw)
	}
}

func TestValidateAccumulatesErrors(t *testing.T) {
	doc := decode(t, `{"questions":[{"question":"","options":["A"],"correctAnswers":["B"],"explanation":"x"}]}`)

	result := Validate(doc)
	assert.False(t, result.IsValid)
	assert.Equal(t, []string{
		`Question 1: Missing or invalid "question"`,
		"Question 1: Must have at least 2 options",
		`Question 1: Correct answer "B" is not in options`,
	}, result.Errors)
}

func TestValidateNumbersQuestionsFromOne(t *testing.T) {
	doc := decode(t, `{"questions":[
		{"question":"ok","options":["A","B"],"correctAnswers":["A"],"explanation":"fine"},
		{"question":"ok","options":["A","B"],"correctAnswers":[],"explanation":""}
	]}`)

	result := Validate(doc)
	assert.Equal(t, []string{
		"Question 2: Must have at least one correct answer",
		`Question 2: Missing or invalid "explanation"`,
	}, result.Errors)
}

func TestValidateRejectsNonStringEntries(t *testing.T) {
	doc := decode(t, `{"questions":[{"question":"ok","options":["A",2],"correctAnswers":[2],"explanation":"fine"}]}`)

	result := Validate(doc)
	assert.Equal(t, []string{
		"Question 1: Option 2 must be a string",
		`Question 1: Correct answer "2" is not in options`,
	}, result.Errors)
}

func TestValidateQuotesNonStringAnswers(t *testing.T) {
	doc := decode(t, `{"questions":[{"question":"ok","options":["A","B"],"correctAnswers":[5, true],"explanation":"fine"}]}`)

	result := Validate(doc)
	assert.Equal(t, []string{
		`Question 1: Correct answer "5" is not in options`,
		`Question 1: Correct answer "true" is not in options`,
	}, result.Errors)
}

func TestValidateEmptyQuestionListIsValid(t *testing.T) {
	result := Validate(decode(t, `{"questions":[]}`))
	assert.True(t, result.IsValid)
}

func TestParseUpload(t *testing.T) {
	now := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	data := []byte(`{"questions":[{"question":"2+2?","options":["3","4"],"correctAnswers":["4"],"explanation":"basic"}]}`)

	set, err := ParseUpload("arithmetic.json", data, now, "set-1")
	require.NoError(t, err)
	assert.Equal(t, "set-1", set.ID)
	assert.Equal(t, "arithmetic", set.Name)
	assert.Equal(t, now, set.CreatedAt)
	require.Len(t, set.Questions, 1)
	assert.Equal(t, []string{"4"}, set.Questions[0].CorrectAnswers)
}

func TestParseUploadErrors(t *testing.T) {
	now := time.Now()

	_, err := ParseUpload("bad.json", []byte(`{"questions":`), now, "x")
	assert.ErrorIs(t, err, domain.ErrMalformedUpload)
	assert.Equal(t, "Invalid JSON file. Please check the format.", err.Error())

	_, err = ParseUpload("bad.json", []byte(`{"questions":[{"question":"q"}]}`), now, "x")
	require.ErrorIs(t, err, domain.ErrInvalidQuestionSet)
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Errors, 3)
}

func TestSetNameFromFilename(t *testing.T) {
	assert.Equal(t, "capitals", SetNameFromFilename("capitals.json"))
	assert.Equal(t, "notes.txt", SetNameFromFilename("notes.txt"))
	assert.Equal(t, UntitledQuizName, SetNameFromFilename(".json"))
	assert.Equal(t, UntitledQuizName, SetNameFromFilename(""))
}
