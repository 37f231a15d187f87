package http

import (
	"log/slog"
	"net/http"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"trivia-quiz-service/internal/app"
)

// WSHandler plays one quiz session per websocket connection.
type WSHandler struct {
	service  *app.QuizService
	logger   *slog.Logger
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService, logger *slog.Logger) *WSHandler {
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

type selectPayload struct {
	Answer string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeWS upgrades the request, starts a session and streams its state until the client leaves.
// Every change, including each countdown tick, is pushed as a "state" message.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("ws upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx := r.Context()
	session := h.service.Create()
	id := session.ID()
	defer h.service.End(ctx, id)

	updates, cancel, err := h.service.Subscribe(ctx, id)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// Single writer: gorilla connections do not support concurrent writes.
	go func() {
		defer close(writerDone)
		for msg := range send {
			data, err := json.Marshal(msg)
			if err != nil {
				h.logger.Error("ws encode failed", "error", err)
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("ws write failed", "session", id, "error", err)
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
				case send <- outboundMessage[any]{Type: "state", Payload: update}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// The outcome, error state included, reaches the client through updates.
	go func() {
		if _, err := h.service.Load(ctx, id); err != nil {
			h.logger.Warn("ws session failed to load", "session", id, "error", err)
		}
	}()

	for {
		var inbound inboundMessage
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if err := json.Unmarshal(data, &inbound); err != nil {
			h.reply(send, closeSignals, "invalid message")
			continue
		}

		switch inbound.Type {
		case "select":
			var payload selectPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				h.reply(send, closeSignals, "invalid select payload")
				continue
			}
			_, err = h.service.Select(ctx, id, payload.Answer)
		case "advance":
			_, err = h.service.Advance(ctx, id)
		case "restart":
			_, err = h.service.Restart(ctx, id)
		default:
			h.reply(send, closeSignals, "unsupported message type")
			continue
		}
		if err != nil {
			h.reply(send, closeSignals, err.Error())
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func (h *WSHandler) reply(send chan<- outboundMessage[any], closeSignals <-chan struct{}, msg string) {
	select {
	case send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}:
	case <-closeSignals:
	}
}
