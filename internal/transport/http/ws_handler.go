package http

import (
	"encoding/json"
	"net/http"

	"city-quiz-service/internal/app"
	"city-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
	log      zerolog.Logger
}

func NewWSHandler(service *app.QuizService, logger zerolog.Logger) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		log: logger,
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type configurePayload struct {
	Mode       string `json:"mode"`
	Difficulty string `json:"difficulty"`
}

type answerPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
// A "session" query parameter resumes an existing session; otherwise a new one
// is created and dropped when the connection closes.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	ctx := r.Context()
	id := r.URL.Query().Get("session")
	var state domain.Snapshot
	if id == "" {
		state, err = h.service.Create(ctx)
		if err == nil {
			id = state.ID
			defer h.service.Leave(ctx, id)
		}
	} else {
		state, err = h.service.State(ctx, id)
	}
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	h.log.Debug().Str("session", id).Msg("ws connected")

	// Replies are written from this goroutine only, one per inbound message.
	if err := conn.WriteJSON(outboundMessage[domain.Snapshot]{Type: "state", Payload: state}); err != nil {
		return
	}
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			h.log.Debug().Err(err).Str("session", id).Msg("ws read ended")
			return
		}
		if err := conn.WriteJSON(h.dispatch(r, id, inbound)); err != nil {
			h.log.Error().Err(err).Str("session", id).Msg("ws write error")
			return
		}
	}
}

func (h *WSHandler) dispatch(r *http.Request, id string, inbound inboundMessage) any {
	ctx := r.Context()
	var (
		state domain.Snapshot
		err   error
	)
	switch inbound.Type {
	case "configure":
		var payload configurePayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid configure payload")
		}
		mode, err := domain.ParseMode(payload.Mode)
		if err != nil {
			return errorMessage(err.Error())
		}
		difficulty, err := domain.ParseDifficulty(payload.Difficulty)
		if err != nil {
			return errorMessage(err.Error())
		}
		state, err = h.service.Configure(ctx, id, mode, difficulty)
		if err != nil {
			return errorMessage(err.Error())
		}
	case "start":
		state, err = h.service.Start(ctx, id)
	case "restart":
		state, err = h.service.Restart(ctx, id)
	case "stop":
		state, err = h.service.Stop(ctx, id)
	case "state":
		state, err = h.service.State(ctx, id)
	case "answer":
		var payload answerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid answer payload")
		}
		result, err := h.service.Answer(ctx, id, payload.Answer)
		if err != nil {
			return errorMessage(err.Error())
		}
		if result.Summary != nil {
			return outboundMessage[domain.AnswerResult]{Type: "finished", Payload: result}
		}
		return outboundMessage[domain.AnswerResult]{Type: "answerResult", Payload: result}
	default:
		return errorMessage("unsupported message type")
	}
	if err != nil {
		return errorMessage(err.Error())
	}
	return outboundMessage[domain.Snapshot]{Type: "state", Payload: state}
}

func errorMessage(msg string) outboundMessage[errorPayload] {
	return outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: msg}}
}
