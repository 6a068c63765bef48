// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

// ErrStorage marks failures of the underlying storage: unreachable database,
// failed statements, or stored content that cannot be decoded.
var ErrStorage = errors.New("storage error")

// SessionStore persists conversation history keyed by user identity.
type SessionStore interface {
	// GetSession returns the stored session, or nil with a nil error when the
	// user has none yet.
	GetSession(ctx context.Context, userID string) (*domain.Session, error)

	// PutSession creates or replaces the session for session.UserID.
	PutSession(ctx context.Context, session *domain.Session) error
}

// TicketStore is the append-only record of tickets filed for users.
type TicketStore interface {
	// AppendTicket records a newly created remote ticket and returns the local id.
	AppendTicket(ctx context.Context, userID, remoteTicketID, summary string) (int64, error)

	// ListTickets returns the user's tickets, newest first. limit <= 0 returns all.
	ListTickets(ctx context.Context, userID string, limit int) ([]domain.TicketRecord, error)
}

// Repository bundles both stores with lifecycle operations.
type Repository interface {
	SessionStore
	TicketStore

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

func storageErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorage, op, err)
}
