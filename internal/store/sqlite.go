package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
	"github.com/janhvi2806/washing-machine-bot/internal/shared"
	_ "modernc.org/sqlite"
)

const (
	writeAttempts  = 3
	writeBaseDelay = 50 * time.Millisecond
)

// storedHistory is the JSON layout of user_sessions.conversation_history.
type storedHistory struct {
	Messages []domain.Turn `json:"messages"`
}

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db           *sql.DB
	writeMu      sync.Mutex // serializes writers to avoid SQLITE_BUSY storms
	historyLimit int
	now          func() time.Time
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithHistoryLimit caps the number of turns kept per session. Zero keeps all.
func WithHistoryLimit(n int) Option {
	return func(s *SQLiteStore) { s.historyLimit = n }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *SQLiteStore) { s.now = now }
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string, opts ...Option) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	dsn := dbPath + "?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)&_pragma=synchronous(normal)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS user_sessions (
		user_id TEXT PRIMARY KEY,
		conversation_history TEXT NOT NULL,
		last_interaction INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS user_tickets (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		remote_ticket_id TEXT NOT NULL,
		summary TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'open'
	);
	CREATE INDEX IF NOT EXISTS idx_user_tickets_user ON user_tickets(user_id, created_at DESC);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetSession retrieves the conversation history for a user.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*domain.Session, error) {
	query := `
		SELECT conversation_history, last_interaction
		FROM user_sessions WHERE user_id = ?`

	var raw string
	var lastInteraction int64
	err := s.db.QueryRowContext(ctx, query, userID).Scan(&raw, &lastInteraction)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("scan session", err)
	}

	var history storedHistory
	if err := json.Unmarshal([]byte(raw), &history); err != nil {
		return nil, storageErr("decode session history", err)
	}
	for i, turn := range history.Messages {
		if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
			return nil, storageErr("decode session history", fmt.Errorf("turn %d has unknown role %q", i, turn.Role))
		}
	}
	if history.Messages == nil {
		history.Messages = []domain.Turn{}
	}

	return &domain.Session{
		UserID:          userID,
		Turns:           history.Messages,
		LastInteraction: time.Unix(lastInteraction, 0),
	}, nil
}

// PutSession creates or replaces the conversation history for a user.
func (s *SQLiteStore) PutSession(ctx context.Context, session *domain.Session) error {
	if session == nil || session.UserID == "" {
		return storageErr("put session", errors.New("session requires a user id"))
	}

	turns := session.Turns
	if s.historyLimit > 0 {
		trimmed := &domain.Session{Turns: turns}
		trimmed.Trim(s.historyLimit)
		turns = trimmed.Turns
	}
	if turns == nil {
		turns = []domain.Turn{}
	}

	data, err := json.Marshal(storedHistory{Messages: turns})
	if err != nil {
		return storageErr("encode session history", err)
	}

	query := `
		INSERT INTO user_sessions (user_id, conversation_history, last_interaction)
		VALUES (?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			conversation_history = excluded.conversation_history,
			last_interaction = excluded.last_interaction`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	err = shared.BusyRetry(ctx, writeAttempts, writeBaseDelay, func() error {
		_, execErr := s.db.ExecContext(ctx, query, session.UserID, string(data), s.now().Unix())
		return execErr
	})
	if err != nil {
		return storageErr("upsert session", err)
	}
	return nil
}

// AppendTicket records a ticket created in the issue tracker.
func (s *SQLiteStore) AppendTicket(ctx context.Context, userID, remoteTicketID, summary string) (int64, error) {
	query := `
		INSERT INTO user_tickets (user_id, remote_ticket_id, summary, created_at, status)
		VALUES (?, ?, ?, ?, ?)`

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var id int64
	err := shared.BusyRetry(ctx, writeAttempts, writeBaseDelay, func() error {
		result, execErr := s.db.ExecContext(ctx, query,
			userID, remoteTicketID, summary, s.now().Unix(), domain.DefaultTicketStatus)
		if execErr != nil {
			return execErr
		}
		id, execErr = result.LastInsertId()
		return execErr
	})
	if err != nil {
		return 0, storageErr("insert ticket", err)
	}
	return id, nil
}

// ListTickets returns a user's tickets, most recent first.
func (s *SQLiteStore) ListTickets(ctx context.Context, userID string, limit int) ([]domain.TicketRecord, error) {
	query := `
		SELECT id, user_id, remote_ticket_id, summary, created_at, status
		FROM user_tickets WHERE user_id = ?
		ORDER BY created_at DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("query tickets", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close ticket rows", "error", closeErr)
		}
	}()

	var tickets []domain.TicketRecord
	for rows.Next() {
		var t domain.TicketRecord
		var createdAt int64
		if err := rows.Scan(&t.ID, &t.UserID, &t.RemoteTicketID, &t.Summary, &createdAt, &t.Status); err != nil {
			return nil, storageErr("scan ticket row", err)
		}
		t.CreatedAt = time.Unix(createdAt, 0)
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate tickets", err)
	}

	return tickets, nil
}

var _ Repository = (*SQLiteStore)(nil)
