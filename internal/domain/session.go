// Package domain contains core domain types for the support bot.
package domain

import (
	"time"
)

// Role identifies who authored a turn.
type Role string

const (
	// RoleUser marks a turn written by the person asking for help.
	RoleUser Role = "user"
	// RoleAssistant marks a turn produced by the bot.
	RoleAssistant Role = "assistant"
)

// ContextTurns is the number of most recent turns handed to the classifier.
const ContextTurns = 4

// Turn is a single role-tagged message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Session holds the conversation history for one user.
type Session struct {
	UserID          string
	Turns           []Turn
	LastInteraction time.Time
}

// NewSession returns an empty session for userID.
func NewSession(userID string) *Session {
	return &Session{UserID: userID, Turns: []Turn{}}
}

// Recent returns the last n turns of the session.
func (s *Session) Recent(n int) []Turn {
	if n <= 0 {
		return nil
	}
	if n >= len(s.Turns) {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-n:]
}

// WithExchange returns a copy of the session with one user/assistant pair
// appended. The receiver is left untouched so a failed exchange can be
// discarded without rolling anything back.
func (s *Session) WithExchange(userText, assistantText string) *Session {
	turns := make([]Turn, 0, len(s.Turns)+2)
	turns = append(turns, s.Turns...)
	turns = append(turns,
		Turn{Role: RoleUser, Content: userText},
		Turn{Role: RoleAssistant, Content: assistantText},
	)
	return &Session{
		UserID:          s.UserID,
		Turns:           turns,
		LastInteraction: s.LastInteraction,
	}
}

// Trim drops the oldest user/assistant pairs until at most limit turns
// remain. A limit of zero or less keeps everything.
func (s *Session) Trim(limit int) {
	if limit <= 0 || len(s.Turns) <= limit {
		return
	}
	drop := len(s.Turns) - limit
	if drop%2 != 0 {
		drop++
	}
	if drop > len(s.Turns) {
		drop = len(s.Turns)
	}
	s.Turns = append([]Turn(nil), s.Turns[drop:]...)
}
