package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/coder/websocket"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
	"github.com/janhvi2806/washing-machine-bot/internal/identity"
)

const (
	chatMaxMessageBytes = 8 << 10
	chatWriteTimeout    = 10 * time.Second
)

// chatMessage is the frame exchanged with the browser chat.
type chatMessage struct {
	Type  string        `json:"type"`
	Text  string        `json:"text,omitempty"`
	Reply *domain.Reply `json:"reply,omitempty"`
	Error string        `json:"error,omitempty"`
}

// ChatHandler serves the browser chat over a websocket. Each connection is
// an anonymous direct-message conversation keyed by the identity cookie.
type ChatHandler struct {
	assistant      Assistant
	sessions       *ChatSessions
	limiter        *RateLimiter
	allowedOrigins []string
	isDev          bool
	logger         *slog.Logger
}

// NewChatHandler creates a new chat websocket handler.
func NewChatHandler(assistant Assistant, sessions *ChatSessions, limiter *RateLimiter, allowedOrigins []string, isDev bool, logger *slog.Logger) *ChatHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatHandler{
		assistant:      assistant,
		sessions:       sessions,
		limiter:        limiter,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
		logger:         logger,
	}
}

// ServeHTTP implements http.Handler for the websocket upgrade.
func (h *ChatHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "missing identity")
		return
	}
	logger := h.logger.With("user_id", userID, "session_id", sessionID)
	logger.Info("Chat connection request", "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		logger.Error("Failed to accept WebSocket", "error", err)
		return
	}
	ws.SetReadLimit(chatMaxMessageBytes)
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "session ended"); closeErr != nil {
			logger.Debug("Failed to close websocket", "error", closeErr)
		}
	}()

	h.sessions.Register(userID, sessionID, ws)
	defer h.sessions.Unregister(userID, sessionID, ws)

	ev := domain.Event{
		UserID:        userID,
		DisplayName:   identity.DisplayNameFromContext(r.Context()),
		ChannelID:     "web:" + sessionID,
		DirectMessage: true,
	}
	h.readLoop(r.Context(), ws, ev, logger)
}

// readLoop answers frames one at a time, so a user's messages on one tab are
// handled in order. A separate reader notices the client going away and
// cancels ctx, which abandons the exchange in flight.
func (h *ChatHandler) readLoop(ctx context.Context, ws *websocket.Conn, base domain.Event, logger *slog.Logger) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	frames := make(chan []byte)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer cancel()
		for {
			_, data, err := ws.Read(ctx)
			if err != nil {
				if websocket.CloseStatus(err) != -1 {
					logger.Debug("WebSocket closed by client")
				} else if ctx.Err() == nil {
					logger.Warn("WebSocket read error", "error", err)
				}
				return
			}
			select {
			case frames <- data:
			case <-ctx.Done():
				return
			}
		}
	}()
	defer func() { <-done }()

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-frames:
			h.handleFrame(ctx, ws, base, data, logger)
		}
	}
}

func (h *ChatHandler) handleFrame(ctx context.Context, ws *websocket.Conn, base domain.Event, data []byte, logger *slog.Logger) {
	var msg chatMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		logger.Debug("Invalid chat frame", "error", err)
		h.send(ctx, ws, logger, chatMessage{Type: "error", Error: "invalid_message"})
		return
	}

	switch msg.Type {
	case "ping":
		h.send(ctx, ws, logger, chatMessage{Type: "pong"})
	case "message":
		if strings.TrimSpace(msg.Text) == "" {
			return
		}
		if h.limiter != nil && !h.limiter.Allow(base.UserID) {
			h.send(ctx, ws, logger, chatMessage{Type: "error", Error: "rate_limited"})
			return
		}
		ev := base
		ev.Text = msg.Text
		reply, ok := h.assistant.HandleEvent(ctx, ev)
		if !ok {
			return
		}
		h.send(ctx, ws, logger, chatMessage{Type: "reply", Reply: reply})
	default:
		logger.Debug("Unknown chat frame type", "type", msg.Type)
	}
}

func (h *ChatHandler) send(ctx context.Context, ws *websocket.Conn, logger *slog.Logger, msg chatMessage) {
	if err := writeJSON(ctx, ws, msg); err != nil && ctx.Err() == nil {
		logger.Debug("Failed to write chat frame", "type", msg.Type, "error", err)
	}
}

func (h *ChatHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	h.logger.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, chatWriteTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
