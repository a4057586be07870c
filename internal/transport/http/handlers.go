package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"

	"quizmaster/internal/app"
	"quizmaster/internal/domain"
	"quizmaster/internal/export"
	"quizmaster/internal/quiz"
)

const maxUploadBytes = 5 << 20

// Handlers exposes QuizService over REST.
type Handlers struct {
	service *app.QuizService
}

func NewHandlers(service *app.QuizService) *Handlers {
	return &Handlers{service: service}
}

type selectRequest struct {
	Option string `json:"option"`
}

type resultView struct {
	domain.QuizResult
	Message string `json:"message"`
}

// UploadQuestionSet reads the raw JSON document from the body; ?name= carries the file name.
func (h *Handlers) UploadQuestionSet(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxUploadBytes))
	if err != nil {
		RespondError(w, http.StatusRequestEntityTooLarge, ErrCodeInvalidRequest, "upload too large")
		return
	}
	set, err := h.service.Upload(r.Context(), r.URL.Query().Get("name"), data)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, set)
}

func (h *Handlers) ListQuestionSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.service.QuestionSets(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, sets)
}

func (h *Handlers) GetQuestionSet(w http.ResponseWriter, r *http.Request) {
	set, err := h.service.QuestionSet(r.Context(), chi.URLParam(r, "setID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, set)
}

func (h *Handlers) DeleteQuestionSet(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuestionSet(r.Context(), chi.URLParam(r, "setID")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) StartQuiz(w http.ResponseWriter, r *http.Request) {
	h.respondSnapshot(w, r)(h.service.StartQuiz(r.Context(), chi.URLParam(r, "setID")))
}

func (h *Handlers) CurrentQuiz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.Snapshot(r.Context()))
}

func (h *Handlers) EndQuiz(w http.ResponseWriter, r *http.Request) {
	h.service.EndQuiz(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondError(w, http.StatusBadRequest, ErrCodeInvalidRequest, "body must be {\"option\": \"...\"}")
		return
	}
	h.respondSnapshot(w, r)(h.service.SelectAnswer(r.Context(), req.Option))
}

func (h *Handlers) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	h.respondSnapshot(w, r)(h.service.SubmitAnswer(r.Context()))
}

func (h *Handlers) Advance(w http.ResponseWriter, r *http.Request) {
	h.respondSnapshot(w, r)(h.service.Advance(r.Context()))
}

func (h *Handlers) Retake(w http.ResponseWriter, r *http.Request) {
	h.respondSnapshot(w, r)(h.service.RetakeQuiz(r.Context()))
}

func (h *Handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.service.Results(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, results)
}

func (h *Handlers) GetResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), chi.URLParam(r, "resultID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, resultView{QuizResult: result, Message: quiz.ScoreMessage(result.Percentage)})
}

func (h *Handlers) ClearResults(w http.ResponseWriter, r *http.Request) {
	if err := h.service.ClearResults(r.Context()); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *Handlers) ExportCSV(w http.ResponseWriter, r *http.Request) {
	h.exportHistory(w, r, "text/csv", "csv", export.WriteCSV)
}

func (h *Handlers) ExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.exportHistory(w, r, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx", export.WriteXLSX)
}

func (h *Handlers) ExportResult(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Result(r.Context(), chi.URLParam(r, "resultID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.WriteResultJSON(&buf, result); err != nil {
		h.fail(w, r, err)
		return
	}
	attach(w, "application/json", export.ResultFilename(result))
	_, _ = buf.WriteTo(w)
}

func (h *Handlers) exportHistory(w http.ResponseWriter, r *http.Request, contentType, ext string, write func(io.Writer, []domain.QuizResult) error) {
	results, err := h.service.Results(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	// render fully before headers so a failure can still become an error response
	var buf bytes.Buffer
	if err := write(&buf, results); err != nil {
		h.fail(w, r, err)
		return
	}
	attach(w, contentType, export.HistoryFilename(ext))
	_, _ = buf.WriteTo(w)
}

func attach(w http.ResponseWriter, contentType, filename string) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
}

func (h *Handlers) respondSnapshot(w http.ResponseWriter, r *http.Request) func(quiz.Snapshot, error) {
	return func(snap quiz.Snapshot, err error) {
		if err != nil {
			h.fail(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, snap)
	}
}

func (h *Handlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, body := classify(err)
	logger := hlog.FromRequest(r)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg("request failed")
	} else if !errors.Is(err, domain.ErrInvalidQuestionSet) {
		logger.Debug().Err(err).Msg("request rejected")
	}
	respondJSON(w, status, body)
}
