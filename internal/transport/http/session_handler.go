package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trivia-quiz-service/internal/app"
	"trivia-quiz-service/internal/domain"
)

// SessionHandler exposes quiz transitions as JSON endpoints. Every response carries the session snapshot.
// Sessions that are never deleted are reaped by the service once idle.
type SessionHandler struct {
	service *app.QuizService
	logger  *slog.Logger
}

func NewSessionHandler(service *app.QuizService, logger *slog.Logger) *SessionHandler {
	return &SessionHandler{service: service, logger: logger}
}

type selectRequest struct {
	Answer string `json:"answer"`
}

type failedStart struct {
	Error   string          `json:"error"`
	Session domain.Snapshot `json:"session"`
}

// Create starts a session; it responds once the questions are loaded.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Start(r.Context())
	if err != nil {
		// An errored session can never be played; drop it right away.
		h.service.End(r.Context(), snap.SessionID)
		writeJSON(w, http.StatusBadGateway, failedStart{Error: err.Error(), Session: snap})
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Snapshot)
}

func (h *SessionHandler) Select(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid select payload")
		return
	}
	h.respond(w, r, func(ctx context.Context, id string) (domain.Snapshot, error) {
		return h.service.Select(ctx, id, req.Answer)
	})
}

func (h *SessionHandler) Advance(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Advance)
}

func (h *SessionHandler) Restart(w http.ResponseWriter, r *http.Request) {
	h.respond(w, r, h.service.Restart)
}

func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.service.Snapshot(r.Context(), id); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.service.End(r.Context(), id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respond(w http.ResponseWriter, r *http.Request, op func(context.Context, string) (domain.Snapshot, error)) {
	snap, err := op(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case err != nil:
		h.logger.Error("session request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, http.StatusOK, snap)
	}
}
