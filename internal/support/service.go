// Package support runs conversation exchanges: it loads a user's session,
// classifies the message, files tickets or answers directly, and persists
// the updated history.
package support

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
	"github.com/janhvi2806/washing-machine-bot/internal/gateway"
	"github.com/janhvi2806/washing-machine-bot/internal/store"
)

const tracerName = "github.com/janhvi2806/washing-machine-bot/internal/support"

// Classifier decides what to do with a message.
type Classifier interface {
	Classify(ctx context.Context, message string, history []domain.Turn) domain.Decision
}

// TicketGateway talks to the issue tracker.
type TicketGateway interface {
	CreateTicket(ctx context.Context, req gateway.TicketRequest) (string, bool)
	TicketStatus(ctx context.Context, remoteID string) (*domain.TicketStatus, bool)
	AddNote(ctx context.Context, remoteID, text string) bool
}

// Options controls event filtering.
type Options struct {
	CommandPrefix    string
	SupportChannelID string
	BotUserID        string
}

// Deps are the collaborators of a Service.
type Deps struct {
	Sessions   store.SessionStore
	Tickets    store.TicketStore
	Classifier Classifier
	Gateway    TicketGateway
	ConvLog    ConversationLogger
	Logger     *slog.Logger
}

// Service is the conversation orchestrator.
type Service struct {
	sessions   store.SessionStore
	tickets    store.TicketStore
	classifier Classifier
	gateway    TicketGateway
	convLog    ConversationLogger
	logger     *slog.Logger
	tracer     trace.Tracer
	locks      *userLocks
	opts       Options
	now        func() time.Time
}

// NewService validates deps and creates a Service.
func NewService(deps Deps, opts Options) (*Service, error) {
	if deps.Sessions == nil || deps.Tickets == nil {
		return nil, errors.New("session and ticket stores are required")
	}
	if deps.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if deps.Gateway == nil {
		return nil, errors.New("ticket gateway is required")
	}
	if deps.ConvLog == nil {
		deps.ConvLog = noopConversationLogger{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if opts.CommandPrefix == "" {
		opts.CommandPrefix = "!"
	}
	return &Service{
		sessions:   deps.Sessions,
		tickets:    deps.Tickets,
		classifier: deps.Classifier,
		gateway:    deps.Gateway,
		convLog:    deps.ConvLog,
		logger:     deps.Logger,
		tracer:     otel.Tracer(tracerName),
		locks:      newUserLocks(),
		opts:       opts,
		now:        time.Now,
	}, nil
}

// HandleEvent filters and routes an inbound event. It returns false when the
// event is ignored.
func (s *Service) HandleEvent(ctx context.Context, ev domain.Event) (*domain.Reply, bool) {
	if s.isSelf(ev) {
		return nil, false
	}
	ev.Text = strings.TrimSpace(ev.Text)
	if ev.Text == "" || ev.UserID == "" {
		return nil, false
	}
	if s.opts.SupportChannelID != "" && ev.ChannelID != s.opts.SupportChannelID && !ev.DirectMessage {
		return nil, false
	}
	if strings.HasPrefix(ev.Text, s.opts.CommandPrefix) {
		return s.runCommand(ctx, ev)
	}
	return s.Exchange(ctx, ev), true
}

func (s *Service) isSelf(ev domain.Event) bool {
	if ev.AuthorIsBot {
		return true
	}
	return s.opts.BotUserID != "" && ev.UserID == s.opts.BotUserID
}

// Exchange processes one natural-language message and always returns a reply.
// Failures while loading, dispatching or persisting yield the generic error
// reply and leave the stored session untouched.
func (s *Service) Exchange(ctx context.Context, ev domain.Event) (reply *domain.Reply) {
	exchangeID := uuid.NewString()
	logger := s.logger.With("user_id", ev.UserID, "exchange_id", exchangeID)

	ctx, span := s.tracer.Start(ctx, "support.exchange",
		trace.WithAttributes(
			attribute.String("user.id", ev.UserID),
			attribute.String("exchange.id", exchangeID),
		),
	)
	defer span.End()

	s.convLog.Log(ConversationLogEvent{
		UserID:     ev.UserID,
		ExchangeID: exchangeID,
		Channel:    ev.ChannelID,
		Direction:  DirectionInbound,
		EventType:  EventUserMessage,
		ContentRaw: ev.Text,
	})

	unlock, err := s.locks.Lock(ctx, ev.UserID)
	if err != nil {
		logger.Warn("exchange abandoned while waiting for user lock", "error", err)
		span.SetStatus(codes.Error, "lock wait cancelled")
		return textReply(GenericErrorText)
	}
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic during exchange",
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()))
			span.SetStatus(codes.Error, "panic")
			reply = textReply(GenericErrorText)
		}
	}()

	reply, decision, err := s.exchange(ctx, logger, ev)
	if err != nil {
		logger.Error("exchange failed", "error", err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		reply = textReply(GenericErrorText)
	}

	s.convLog.Log(ConversationLogEvent{
		UserID:         ev.UserID,
		ExchangeID:     exchangeID,
		Channel:        ev.ChannelID,
		Direction:      DirectionOutbound,
		EventType:      EventReply,
		ContentRaw:     reply.Body,
		ReplyKind:      string(reply.Kind),
		Action:         string(decision.Action),
		DecisionSource: string(decision.Source),
		TicketID:       strings.TrimPrefix(reply.Field(fieldTicketNumber), "#"),
	})
	return reply
}

func (s *Service) exchange(ctx context.Context, logger *slog.Logger, ev domain.Event) (*domain.Reply, domain.Decision, error) {
	session, err := s.sessions.GetSession(ctx, ev.UserID)
	if err != nil {
		return nil, domain.Decision{}, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		session = domain.NewSession(ev.UserID)
	}

	decision := s.classifier.Classify(ctx, ev.Text, session.Recent(domain.ContextTurns))
	logger.Info("message classified",
		"action", decision.Action,
		"category", decision.Category,
		"priority", decision.Priority,
		"source", decision.Source)

	reply, err := s.dispatch(ctx, logger, ev, decision)
	if err != nil {
		return nil, decision, err
	}

	if err := ctx.Err(); err != nil {
		return nil, decision, fmt.Errorf("exchange abandoned before persisting: %w", err)
	}
	updated := session.WithExchange(ev.Text, decision.Response)
	updated.LastInteraction = s.now()
	if err := s.sessions.PutSession(ctx, updated); err != nil {
		return nil, decision, fmt.Errorf("persist session: %w", err)
	}
	return reply, decision, nil
}

func (s *Service) dispatch(ctx context.Context, logger *slog.Logger, ev domain.Event, d domain.Decision) (*domain.Reply, error) {
	switch d.Action {
	case domain.ActionCreateTicket:
		return s.createTicket(ctx, logger, ev, d)
	case domain.ActionTroubleshoot:
		return troubleshootReply(d), nil
	default:
		return clarifyReply(d), nil
	}
}

func (s *Service) createTicket(ctx context.Context, logger *slog.Logger, ev domain.Event, d domain.Decision) (*domain.Reply, error) {
	summary := d.TicketSummary
	if strings.TrimSpace(summary) == "" {
		summary = defaultTicketSummary
	}
	category := d.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	priority := d.Priority
	if priority == 0 {
		priority = domain.PriorityNormal
	}
	reporter := ev.DisplayName
	if reporter == "" {
		reporter = ev.UserID
	}

	remoteID, ok := s.gateway.CreateTicket(ctx, gateway.TicketRequest{
		Summary:     summary,
		Description: fmt.Sprintf("Issue reported by %s:\n\n%s", reporter, ev.Text),
		Reporter:    reporter,
		Category:    category,
		Priority:    priority,
	})
	if !ok {
		logger.Warn("ticket creation failed", "category", category)
		return textReply(TicketFailedText), nil
	}

	recordID, err := s.tickets.AppendTicket(ctx, ev.UserID, remoteID, summary)
	if err != nil {
		return nil, fmt.Errorf("record ticket %s: %w", remoteID, err)
	}
	logger.Info("ticket recorded", "ticket_id", remoteID, "record_id", recordID)

	d.Category = category
	return ticketCreatedReply(d, remoteID), nil
}

// RecentTickets returns up to limit of the user's ticket records, newest first.
func (s *Service) RecentTickets(ctx context.Context, userID string, limit int) ([]domain.TicketRecord, error) {
	return s.tickets.ListTickets(ctx, userID, limit)
}

// TicketStatus looks up a ticket in the tracker.
func (s *Service) TicketStatus(ctx context.Context, remoteID string) (*domain.TicketStatus, bool) {
	return s.gateway.TicketStatus(ctx, remoteID)
}

// AddTicketNote appends a note to a ticket in the tracker.
func (s *Service) AddTicketNote(ctx context.Context, remoteID, text string) bool {
	return s.gateway.AddNote(ctx, remoteID, text)
}
