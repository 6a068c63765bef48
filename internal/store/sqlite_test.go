package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

func newTestStore(t *testing.T, opts ...Option) *SQLiteStore {
	t.Helper()
	dir := t.TempDir()
	s, err := NewSQLite(filepath.Join(dir, "test.db"), opts...)
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestGetSessionMissingReturnsNil(t *testing.T) {
	s := newTestStore(t)

	got, err := s.GetSession(context.Background(), "nobody")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil session, got %+v", got)
	}
}

func TestPutAndGetSession(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	session := domain.NewSession("user-1").
		WithExchange("my machine won't drain", "check the filter").
		WithExchange("still broken", "I'll file a ticket")
	if err := s.PutSession(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}

	got, err := s.GetSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Turns) != 4 {
		t.Fatalf("expected 4 turns, got %d", len(got.Turns))
	}
	if got.Turns[0].Content != "my machine won't drain" || got.Turns[3].Role != domain.RoleAssistant {
		t.Errorf("unexpected turns: %+v", got.Turns)
	}

	// Last write wins.
	if err := s.PutSession(ctx, domain.NewSession("user-1")); err != nil {
		t.Fatalf("put empty: %v", err)
	}
	got, err = s.GetSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("get after replace: %v", err)
	}
	if len(got.Turns) != 0 {
		t.Errorf("expected replaced session to be empty, got %d turns", len(got.Turns))
	}
}

func TestPutSessionHistoryLimit(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t, WithHistoryLimit(4))

	session := domain.NewSession("user-1")
	for i := 0; i < 5; i++ {
		session = session.WithExchange(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}
	if err := s.PutSession(ctx, session); err != nil {
		t.Fatalf("put: %v", err)
	}
	if len(session.Turns) != 10 {
		t.Fatalf("caller's session must not be trimmed, got %d turns", len(session.Turns))
	}

	got, err := s.GetSession(ctx, "user-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got.Turns) != 4 || got.Turns[0].Content != "q3" {
		t.Fatalf("expected last two pairs, got %+v", got.Turns)
	}
}

func TestGetSessionMalformedHistoryIsStorageError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	tests := map[string]string{
		"bad-json": `{"messages": [`,
		"bad-role": `{"messages": [{"role": "system", "content": "x"}]}`,
	}
	for userID, raw := range tests {
		if _, err := s.db.ExecContext(ctx,
			`INSERT INTO user_sessions (user_id, conversation_history, last_interaction) VALUES (?, ?, ?)`,
			userID, raw, time.Now().Unix()); err != nil {
			t.Fatalf("seed %s: %v", userID, err)
		}

		_, err := s.GetSession(ctx, userID)
		if !errors.Is(err, ErrStorage) {
			t.Errorf("%s: expected ErrStorage, got %v", userID, err)
		}
	}
}

func TestAppendAndListTickets(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	s := newTestStore(t, WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))

	for i := 1; i <= 7; i++ {
		id, err := s.AppendTicket(ctx, "user-1", fmt.Sprintf("%d", 100+i), fmt.Sprintf("issue %d", i))
		if err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
		if id <= 0 {
			t.Fatalf("expected positive id, got %d", id)
		}
	}
	if _, err := s.AppendTicket(ctx, "user-2", "999", "other user"); err != nil {
		t.Fatalf("append other: %v", err)
	}

	recent, err := s.ListTickets(ctx, "user-1", 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recent) != 5 {
		t.Fatalf("expected 5 tickets, got %d", len(recent))
	}
	for i, want := range []string{"107", "106", "105", "104", "103"} {
		if recent[i].RemoteTicketID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, recent[i].RemoteTicketID)
		}
		if recent[i].Status != domain.DefaultTicketStatus {
			t.Errorf("expected status open, got %q", recent[i].Status)
		}
	}

	all, err := s.ListTickets(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 7 {
		t.Fatalf("expected 7 tickets, got %d", len(all))
	}
}

func TestListTicketsSameSecondOrdersByID(t *testing.T) {
	ctx := context.Background()
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s := newTestStore(t, WithClock(func() time.Time { return fixed }))

	for _, id := range []string{"1", "2", "3"} {
		if _, err := s.AppendTicket(ctx, "u", id, "s"); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := s.ListTickets(ctx, "u", 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if got[0].RemoteTicketID != "3" || got[2].RemoteTicketID != "1" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}

func TestClosedStoreReturnsStorageError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	if _, err := s.GetSession(ctx, "u"); !errors.Is(err, ErrStorage) {
		t.Errorf("GetSession: expected ErrStorage, got %v", err)
	}
	if err := s.PutSession(ctx, domain.NewSession("u")); !errors.Is(err, ErrStorage) {
		t.Errorf("PutSession: expected ErrStorage, got %v", err)
	}
	if _, err := s.AppendTicket(ctx, "u", "1", "s"); !errors.Is(err, ErrStorage) {
		t.Errorf("AppendTicket: expected ErrStorage, got %v", err)
	}
	if _, err := s.ListTickets(ctx, "u", 5); !errors.Is(err, ErrStorage) {
		t.Errorf("ListTickets: expected ErrStorage, got %v", err)
	}
}
