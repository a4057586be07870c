package http

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"quizmaster/internal/app"
	"quizmaster/internal/quiz"
)

// WSHandler drives the live quiz session over a websocket. Every connection
// receives a snapshot after each transition, whoever caused it.
type WSHandler struct {
	service  *app.QuizService
	logger   zerolog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type startPayload struct {
	QuestionSetID string `json:"questionSetId"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	updates, cancel := h.service.Subscribe(ctx)
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer: gorilla connections allow one concurrent writer
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				h.logger.Debug().Err(err).Msg("ws write error")
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "snapshot", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var snapErr error
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuestionSetID == "" {
				send <- errorMessage(ErrCodeInvalidRequest, "start requires payload.questionSetId")
				continue
			}
			_, snapErr = h.service.StartQuiz(ctx, payload.QuestionSetID)
		case "select":
			var payload selectRequest
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage(ErrCodeInvalidRequest, "select requires payload.option")
				continue
			}
			var snap quiz.Snapshot
			snap, snapErr = h.service.SelectAnswer(ctx, payload.Option)
			if snapErr == nil && snap.FeedbackVisible {
				// ignored while feedback is shown; nothing was broadcast
				send <- outboundMessage[any]{Type: "snapshot", Payload: snap}
			}
		case "submit":
			_, snapErr = h.service.SubmitAnswer(ctx)
		case "advance":
			_, snapErr = h.service.Advance(ctx)
		case "retake":
			_, snapErr = h.service.RetakeQuiz(ctx)
		case "end":
			h.service.EndQuiz(ctx)
		default:
			send <- errorMessage(ErrCodeUnknownMessageType, "unsupported message type")
			continue
		}
		if snapErr != nil {
			_, body := classify(snapErr)
			send <- errorMessage(body.Error, body.Message)
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errorMessage(code, message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Code: code, Message: message}}
}
