package support

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ConversationLogConfig controls the NDJSON conversation log.
type ConversationLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// ConversationLogEvent is one line of the conversation log.
type ConversationLogEvent struct {
	Timestamp      time.Time `json:"ts"`
	UserID         string    `json:"user_id"`
	ExchangeID     string    `json:"exchange_id,omitempty"`
	Channel        string    `json:"channel,omitempty"`
	Direction      string    `json:"direction"`
	EventType      string    `json:"event_type"`
	Content        string    `json:"content"`
	ContentRaw     string    `json:"content_raw,omitempty"`
	ReplyKind      string    `json:"reply_kind,omitempty"`
	Action         string    `json:"action,omitempty"`
	DecisionSource string    `json:"decision_source,omitempty"`
	TicketID       string    `json:"ticket_id,omitempty"`
}

// Conversation log directions and event types.
const (
	DirectionInbound  = "inbound"
	DirectionOutbound = "outbound"

	EventUserMessage = "user_message"
	EventCommand     = "command"
	EventReply       = "reply"
)

// ConversationLogger records conversation events asynchronously.
type ConversationLogger interface {
	Log(event ConversationLogEvent)
	Close() error
}

type noopConversationLogger struct{}

func (noopConversationLogger) Log(ConversationLogEvent) {}
func (noopConversationLogger) Close() error             { return nil }

// FileConversationLogger appends events to <dir>/<user>/<date>.ndjson from a
// single writer goroutine. Events are dropped when the queue is full.
type FileConversationLogger struct {
	dir    string
	queue  chan ConversationLogEvent
	logger *slog.Logger

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewConversationLogger returns a no-op logger when cfg is disabled.
func NewConversationLogger(cfg ConversationLogConfig, logger *slog.Logger) (ConversationLogger, error) {
	if !cfg.Enabled {
		return noopConversationLogger{}, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create conversation log dir: %w", err)
	}

	l := &FileConversationLogger{
		dir:    cfg.Dir,
		queue:  make(chan ConversationLogEvent, cfg.QueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

// Log enqueues event without blocking.
func (l *FileConversationLogger) Log(event ConversationLogEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.ContentRaw != "" && event.Content == "" {
		event.Content = cleanForReadability(event.ContentRaw)
	}
	select {
	case l.queue <- event:
	default:
		l.logger.Warn("conversation log queue full, dropping event",
			"user_id", event.UserID,
			"event_type", event.EventType)
	}
}

// Close drains the queue and stops the writer.
func (l *FileConversationLogger) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.queue)
	l.mu.Unlock()

	<-l.done
	return nil
}

func (l *FileConversationLogger) run() {
	defer close(l.done)
	for event := range l.queue {
		if err := l.write(event); err != nil {
			l.logger.Warn("failed to write conversation log", "user_id", event.UserID, "error", err)
		}
	}
}

func (l *FileConversationLogger) write(event ConversationLogEvent) error {
	userDir := filepath.Join(l.dir, safePathComponent(event.UserID))
	if err := os.MkdirAll(userDir, 0o750); err != nil {
		return err
	}
	path := filepath.Join(userDir, event.Timestamp.UTC().Format("2006-01-02")+".ndjson")

	line, err := json.Marshal(event)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o640)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

var (
	ansiPattern   = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	unsafePathRun = regexp.MustCompile(`[^A-Za-z0-9._-]+`)
)

func cleanForReadability(s string) string {
	s = ansiPattern.ReplaceAllString(s, "")
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func safePathComponent(s string) string {
	s = unsafePathRun.ReplaceAllString(s, "_")
	s = strings.Trim(s, ".")
	if s == "" {
		return "unknown"
	}
	return s
}
