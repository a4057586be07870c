package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"quizmaster/internal/domain"
)

// Error codes for standardized error responses.
const (
	ErrCodeInvalidRequest      = "invalid_request"
	ErrCodeMalformedUpload     = "malformed_upload"
	ErrCodeValidationFailed    = "validation_failed"
	ErrCodeQuestionSetNotFound = "question_set_not_found"
	ErrCodeResultNotFound      = "result_not_found"
	ErrCodeNoActiveSession     = "no_active_session"
	ErrCodeInvalidTransition   = "invalid_transition"
	ErrCodeUnknownOption       = "unknown_option"
	ErrCodeEmptyQuestionSet    = "empty_question_set"
	ErrCodeInternalError       = "internal_error"
	ErrCodeUnknownMessageType  = "unknown_message_type"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// RespondError writes a standardized error response.
func RespondError(w http.ResponseWriter, status int, code, message string) {
	RespondErrorWithDetails(w, status, code, message, nil)
}

// RespondErrorWithDetails writes an error response with additional details.
func RespondErrorWithDetails(w http.ResponseWriter, status int, code, message string, details map[string]any) {
	respondJSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

// classify maps domain errors onto a status, code and optional details.
func classify(err error) (int, ErrorResponse) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, ErrorResponse{
			Error:   ErrCodeValidationFailed,
			Message: "question set failed validation",
			Details: map[string]any{"errors": verr.Errors},
		}
	case errors.Is(err, domain.ErrMalformedUpload):
		return http.StatusBadRequest, ErrorResponse{Error: ErrCodeMalformedUpload, Message: err.Error()}
	case errors.Is(err, domain.ErrQuestionSetNotFound):
		return http.StatusNotFound, ErrorResponse{Error: ErrCodeQuestionSetNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrResultNotFound):
		return http.StatusNotFound, ErrorResponse{Error: ErrCodeResultNotFound, Message: err.Error()}
	case errors.Is(err, domain.ErrNoActiveSession):
		return http.StatusNotFound, ErrorResponse{Error: ErrCodeNoActiveSession, Message: err.Error()}
	case errors.Is(err, domain.ErrUnknownOption):
		return http.StatusBadRequest, ErrorResponse{Error: ErrCodeUnknownOption, Message: err.Error()}
	case errors.Is(err, domain.ErrEmptyQuestionSet):
		return http.StatusUnprocessableEntity, ErrorResponse{Error: ErrCodeEmptyQuestionSet, Message: err.Error()}
	case domain.IsTransitionError(err):
		return http.StatusConflict, ErrorResponse{Error: ErrCodeInvalidTransition, Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Error: ErrCodeInternalError, Message: "internal error"}
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
