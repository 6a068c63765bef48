package api

import (
	"log/slog"
	"sync"

	"github.com/coder/websocket"
)

// closer is the part of a websocket connection the registry needs.
type closer interface {
	Close(code websocket.StatusCode, reason string) error
}

// ChatSessions tracks the open chat connections per user and browser tab.
// A tab that reconnects replaces its previous connection.
type ChatSessions struct {
	mu     sync.RWMutex
	active map[string]map[string]closer
}

// NewChatSessions creates an empty registry.
func NewChatSessions() *ChatSessions {
	return &ChatSessions{
		active: make(map[string]map[string]closer),
	}
}

// GetActive returns the connection for a user and session, or nil.
func (m *ChatSessions) GetActive(userID, sessionID string) closer {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if sessions, ok := m.active[userID]; ok {
		return sessions[sessionID]
	}
	return nil
}

// Register records conn, closing any connection it replaces.
func (m *ChatSessions) Register(userID, sessionID string, conn closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.active[userID]; !exists {
		m.active[userID] = make(map[string]closer)
	}

	if existing, exists := m.active[userID][sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "session replaced")
	}

	m.active[userID][sessionID] = conn
	slog.Info("Chat session registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes conn if it is still the current connection.
func (m *ChatSessions) Unregister(userID, sessionID string, conn closer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sessions, ok := m.active[userID]; ok {
		if current, exists := sessions[sessionID]; exists && current == conn {
			delete(sessions, sessionID)
			if len(sessions) == 0 {
				delete(m.active, userID)
			}
			slog.Info("Chat session unregistered", "user_id", userID, "session_id", sessionID)
		}
	}
}

// Count returns the number of open connections.
func (m *ChatSessions) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	for _, sessions := range m.active {
		n += len(sessions)
	}
	return n
}

// CloseAll terminates every open connection. Used during shutdown because
// http.Server.Shutdown does not track hijacked connections.
func (m *ChatSessions) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for userID, sessions := range m.active {
		for sid, conn := range sessions {
			_ = conn.Close(websocket.StatusGoingAway, "server shutting down")
			slog.Info("Chat session closed", "user_id", userID, "session_id", sid)
		}
	}
	m.active = make(map[string]map[string]closer)
}
