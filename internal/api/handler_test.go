//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

type fakeAssistant struct {
	mu       sync.Mutex
	events   []domain.Event
	ignore   bool
	records  []domain.TicketRecord
	listErr  error
	lastLim  int
	statuses map[string]*domain.TicketStatus
	noteOK   bool
	notes    []string
}

func (f *fakeAssistant) HandleEvent(_ context.Context, ev domain.Event) (*domain.Reply, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	if f.ignore {
		return nil, false
	}
	return &domain.Reply{Kind: domain.ReplyText, Body: "echo: " + ev.Text}, true
}

func (f *fakeAssistant) RecentTickets(_ context.Context, _ string, limit int) ([]domain.TicketRecord, error) {
	f.lastLim = limit
	return f.records, f.listErr
}

func (f *fakeAssistant) TicketStatus(_ context.Context, id string) (*domain.TicketStatus, bool) {
	st, ok := f.statuses[id]
	return st, ok
}

func (f *fakeAssistant) AddTicketNote(_ context.Context, id, text string) bool {
	f.notes = append(f.notes, id+":"+text)
	return f.noteOK
}

func (f *fakeAssistant) seen() []domain.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Event(nil), f.events...)
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestRouter(t *testing.T, a Assistant, limiter *RateLimiter) http.Handler {
	t.Helper()
	return NewRouter(RouterConfig{
		Assistant:      a,
		Health:         NewHealthHandler(stubPinger{}, HealthOptions{}),
		Limiter:        limiter,
		AllowedOrigins: []string{"*"},
		IsDev:          true,
	})
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, http.StatusTeapot, "short and stout")

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"short and stout"}`, w.Body.String())
}

func TestPostMessage(t *testing.T) {
	a := &fakeAssistant{}
	h := newTestRouter(t, a, nil)

	w := do(t, h, http.MethodPost, "/api/messages",
		`{"user_id":"42","display_name":"Ann","channel_id":"c1","text":"my washer is leaking"}`)
	require.Equal(t, http.StatusOK, w.Code)

	var reply domain.Reply
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &reply))
	assert.Equal(t, "echo: my washer is leaking", reply.Body)

	events := a.seen()
	require.Len(t, events, 1)
	assert.Equal(t, "Ann", events[0].DisplayName)
	assert.Equal(t, "c1", events[0].ChannelID)
}

func TestPostMessageIgnored(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{ignore: true}, nil)

	w := do(t, h, http.MethodPost, "/api/messages", `{"user_id":"42","text":"hello"}`)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestPostMessageRejectsBadInput(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{}, nil)

	tests := map[string]string{
		"malformed":     `{"user_id":`,
		"unknown field": `{"user_id":"1","text":"x","shoe_size":9}`,
		"missing user":  `{"text":"hello"}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/messages", body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}

func TestPostMessageRateLimited(t *testing.T) {
	limiter := NewRateLimiter(2, time.Hour)
	t.Cleanup(limiter.Close)
	a := &fakeAssistant{}
	h := newTestRouter(t, a, limiter)

	for i := 0; i < 2; i++ {
		w := do(t, h, http.MethodPost, "/api/messages", `{"user_id":"7","text":"hi"}`)
		require.Equal(t, http.StatusOK, w.Code)
	}
	w := do(t, h, http.MethodPost, "/api/messages", `{"user_id":"7","text":"hi"}`)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Len(t, a.seen(), 2)

	// Other users have their own bucket.
	w = do(t, h, http.MethodPost, "/api/messages", `{"user_id":"8","text":"hi"}`)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestListTickets(t *testing.T) {
	a := &fakeAssistant{records: []domain.TicketRecord{{RemoteTicketID: "12", Summary: "Leak"}}}
	h := newTestRouter(t, a, nil)

	w := do(t, h, http.MethodGet, "/api/users/42/tickets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, defaultTicketLimit, a.lastLim)

	var body struct {
		Tickets []domain.TicketRecord `json:"tickets"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Tickets, 1)
	assert.Equal(t, "12", body.Tickets[0].RemoteTicketID)

	w = do(t, h, http.MethodGet, "/api/users/42/tickets?limit=500", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, maxTicketLimit, a.lastLim)

	w = do(t, h, http.MethodGet, "/api/users/42/tickets?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListTicketsEmptyAndError(t *testing.T) {
	a := &fakeAssistant{}
	h := newTestRouter(t, a, nil)

	w := do(t, h, http.MethodGet, "/api/users/42/tickets", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"tickets":[]}`, w.Body.String())

	a.listErr = errors.New("disk on fire")
	w = do(t, h, http.MethodGet, "/api/users/42/tickets", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk on fire")
}

func TestGetTicket(t *testing.T) {
	a := &fakeAssistant{statuses: map[string]*domain.TicketStatus{
		"99": {ID: "99", Summary: "Drum noise", Status: "assigned", Priority: "high", Handler: "sam"},
	}}
	h := newTestRouter(t, a, nil)

	w := do(t, h, http.MethodGet, "/api/tickets/99", "")
	require.Equal(t, http.StatusOK, w.Code)
	var st domain.TicketStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	assert.Equal(t, "Drum noise", st.Summary)

	w = do(t, h, http.MethodGet, "/api/tickets/100", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAddNote(t *testing.T) {
	a := &fakeAssistant{noteOK: true}
	h := newTestRouter(t, a, nil)

	w := do(t, h, http.MethodPost, "/api/tickets/5/notes", `{"text":"still leaking"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, []string{"5:still leaking"}, a.notes)

	w = do(t, h, http.MethodPost, "/api/tickets/5/notes", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	a.noteOK = false
	w = do(t, h, http.MethodPost, "/api/tickets/5/notes", `{"text":"again"}`)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		db         error
		backend    error
		tracker    bool
		wantCode   int
		wantStatus string
		wantChecks map[string]string
	}{
		{
			name:       "healthy",
			wantCode:   http.StatusOK,
			wantStatus: "healthy",
			wantChecks: map[string]string{"database": "ok", "classifier": "fallback", "issue_tracker": "disabled"},
		},
		{
			name:       "database down",
			db:         errors.New("locked"),
			tracker:    true,
			wantCode:   http.StatusServiceUnavailable,
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "unreachable", "issue_tracker": "configured"},
		},
		{
			name:       "backend down still serves",
			backend:    errors.New("sidecar gone"),
			wantCode:   http.StatusOK,
			wantStatus: "degraded",
			wantChecks: map[string]string{"database": "ok", "classifier_backend": "unreachable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := HealthOptions{TrackerEnabled: tt.tracker}
			if tt.backend != nil {
				err := tt.backend
				opts.BackendCheck = func(context.Context) error { return err }
			}
			h := NewHealthHandler(stubPinger{err: tt.db}, opts)

			w := httptest.NewRecorder()
			h.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
			require.Equal(t, tt.wantCode, w.Code)

			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantStatus, body.Status)
			for k, v := range tt.wantChecks {
				assert.Equal(t, v, body.Checks[k], k)
			}
		})
	}
}

func TestHeartbeat(t *testing.T) {
	h := newTestRouter(t, &fakeAssistant{}, nil)
	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
