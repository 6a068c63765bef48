// Package api provides the HTTP and websocket surface of the support bot.
//
//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

// Assistant is the conversation service behind the transports.
type Assistant interface {
	HandleEvent(ctx context.Context, ev domain.Event) (*domain.Reply, bool)
	RecentTickets(ctx context.Context, userID string, limit int) ([]domain.TicketRecord, error)
	TicketStatus(ctx context.Context, remoteID string) (*domain.TicketStatus, bool)
	AddTicketNote(ctx context.Context, remoteID, text string) bool
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

const maxBodyBytes = 64 << 10
