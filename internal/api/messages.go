package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

const (
	defaultTicketLimit = 5
	maxTicketLimit     = 50
)

// MessageHandler exposes the conversation service over plain HTTP. It is the
// entry point for chat platform adapters.
type MessageHandler struct {
	assistant Assistant
	limiter   *RateLimiter
	logger    *slog.Logger
}

// NewMessageHandler creates a MessageHandler.
func NewMessageHandler(assistant Assistant, limiter *RateLimiter, logger *slog.Logger) *MessageHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &MessageHandler{assistant: assistant, limiter: limiter, logger: logger}
}

// RegisterRoutes registers the message and ticket routes under /api.
func (h *MessageHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", h.PostMessage)
		r.Get("/users/{userID}/tickets", h.ListTickets)
		r.Get("/tickets/{ticketID}", h.GetTicket)
		r.Post("/tickets/{ticketID}/notes", h.AddNote)
	})
}

// PostMessage handles one inbound chat event.
func (h *MessageHandler) PostMessage(w http.ResponseWriter, r *http.Request) {
	var ev domain.Event
	if err := decodeJSON(w, r, &ev); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(ev.UserID) == "" {
		Error(w, http.StatusBadRequest, "user_id is required")
		return
	}
	if h.limiter != nil && !h.limiter.Allow(ev.UserID) {
		h.logger.Warn("Message rate limited", "user_id", ev.UserID)
		Error(w, http.StatusTooManyRequests, "rate limit exceeded")
		return
	}

	reply, ok := h.assistant.HandleEvent(r.Context(), ev)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	JSON(w, http.StatusOK, reply)
}

// ListTickets returns the most recent ticket records of a user.
func (h *MessageHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	limit := defaultTicketLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			Error(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxTicketLimit)
	}

	records, err := h.assistant.RecentTickets(r.Context(), userID, limit)
	if err != nil {
		h.logger.Error("Failed to list tickets", "user_id", userID, "error", err)
		Error(w, http.StatusInternalServerError, "failed to list tickets")
		return
	}
	if records == nil {
		records = []domain.TicketRecord{}
	}
	JSON(w, http.StatusOK, map[string]interface{}{"tickets": records})
}

// GetTicket returns the tracker status of a ticket.
func (h *MessageHandler) GetTicket(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	st, ok := h.assistant.TicketStatus(r.Context(), ticketID)
	if !ok {
		Error(w, http.StatusNotFound, "ticket not found")
		return
	}
	JSON(w, http.StatusOK, st)
}

type noteRequest struct {
	Text string `json:"text"`
}

// AddNote appends a note to a ticket.
func (h *MessageHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	var req noteRequest
	if err := decodeJSON(w, r, &req); err != nil || strings.TrimSpace(req.Text) == "" {
		Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if !h.assistant.AddTicketNote(r.Context(), ticketID, req.Text) {
		Error(w, http.StatusBadGateway, "issue tracker rejected the note")
		return
	}
	JSON(w, http.StatusCreated, map[string]string{"ticket_id": ticketID, "status": "added"})
}
