package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"quizmaster/internal/app"
)

// RouterConfig carries the optional pieces of the HTTP surface.
type RouterConfig struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	Metrics        http.Handler
}

// NewRouter wires the REST API, the websocket driver, health and metrics.
func NewRouter(service *app.QuizService, cfg RouterConfig) http.Handler {
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(hlog.NewHandler(cfg.Logger))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", status).
			Int("size", size).
			Dur("duration", duration).
			Msg("request")
	}))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	h := NewHandlers(service)
	ws := NewWSHandler(service, cfg.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Metrics != nil {
		r.Handle("/metrics", cfg.Metrics)
	}
	r.Get("/ws", ws.ServeWS)

	r.Route("/v1", func(r chi.Router) {
		r.Route("/question-sets", func(r chi.Router) {
			r.Post("/", h.UploadQuestionSet)
			r.Get("/", h.ListQuestionSets)
			r.Route("/{setID}", func(r chi.Router) {
				r.Get("/", h.GetQuestionSet)
				r.Delete("/", h.DeleteQuestionSet)
				r.Post("/quiz", h.StartQuiz)
			})
		})
		r.Route("/quiz", func(r chi.Router) {
			r.Get("/", h.CurrentQuiz)
			r.Delete("/", h.EndQuiz)
			r.Post("/select", h.SelectAnswer)
			r.Post("/submit", h.SubmitAnswer)
			r.Post("/advance", h.Advance)
			r.Post("/retake", h.Retake)
		})
		r.Route("/results", func(r chi.Router) {
			r.Get("/", h.ListResults)
			r.Delete("/", h.ClearResults)
			r.Get("/stats", h.Stats)
			r.Get("/export.csv", h.ExportCSV)
			r.Get("/export.xlsx", h.ExportXLSX)
			r.Get("/{resultID}", h.GetResult)
			r.Get("/{resultID}/export", h.ExportResult)
		})
	})
	return r
}
