// Package gateway creates and inspects tickets in the external issue
// tracker. Expected failures are reported as absent results, never errors.
package gateway

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
	"github.com/janhvi2806/washing-machine-bot/internal/mantis"
)

const tracerName = "github.com/janhvi2806/washing-machine-bot/internal/gateway"

// Fixed issue attributes sent with every new ticket.
const (
	severityMajor          = 50
	statusNew              = 10
	reproducibilityAlways  = 10
	viewStatePublic        = 10
	defaultRemotePriority  = 40
	DefaultAttemptTimeout  = 10 * time.Second
	unknownValue           = "Unknown"
	unassignedHandlerValue = "Unassigned"
)

var priorityMap = map[int]int64{
	domain.PriorityImmediate: 60,
	domain.PriorityUrgent:    50,
	domain.PriorityHigh:      40,
	domain.PriorityNormal:    30,
	domain.PriorityLow:       20,
}

// fallbackCategories follow the requested category, in this order.
var fallbackCategories = []string{"General", "Bug", "Support", "Issue", "Default"}

// MapPriority converts the internal 10..50 scale to the tracker's scale.
// Values outside the scale map to the tracker's normal priority.
func MapPriority(p int) int64 {
	if v, ok := priorityMap[p]; ok {
		return v
	}
	return defaultRemotePriority
}

// IssueTracker is the remote tracker API. *mantis.Client implements it.
type IssueTracker interface {
	IssueAdd(ctx context.Context, issue mantis.IssueData) (string, error)
	IssueGet(ctx context.Context, issueID int64) (*mantis.IssueData, error)
	IssueNoteAdd(ctx context.Context, issueID int64, text string) (int64, error)
	ProjectsGetUserAccessible(ctx context.Context) ([]mantis.ProjectData, error)
}

// TicketRequest describes a ticket to create.
type TicketRequest struct {
	Summary     string
	Description string
	Reporter    string
	Category    string
	Priority    int
}

// Gateway wraps an IssueTracker with the bot's ticket semantics.
type Gateway struct {
	tracker   IssueTracker
	projectID int64
	timeout   time.Duration
	logger    *slog.Logger
	tracer    trace.Tracer
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithAttemptTimeout bounds each remote call.
func WithAttemptTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// New creates a gateway for projectID. A nil tracker yields a gateway whose
// operations all report absent, which is how the bot runs without a tracker.
func New(tracker IssueTracker, projectID int64, opts ...Option) *Gateway {
	g := &Gateway{
		tracker:   tracker,
		projectID: projectID,
		timeout:   DefaultAttemptTimeout,
		logger:    slog.Default(),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Enabled reports whether a tracker is configured.
func (g *Gateway) Enabled() bool { return g.tracker != nil }

// CreateTicket files a ticket, walking the category list until one attempt
// succeeds. It returns the remote id, or false once every category failed.
func (g *Gateway) CreateTicket(ctx context.Context, req TicketRequest) (string, bool) {
	ctx, span := g.tracer.Start(ctx, "gateway.create_ticket",
		trace.WithAttributes(
			attribute.String("ticket.category", req.Category),
			attribute.Int("ticket.priority", req.Priority),
		),
	)
	defer span.End()

	if g.tracker == nil {
		g.logger.Warn("ticket creation skipped, no issue tracker configured", "reporter", req.Reporter)
		span.SetStatus(codes.Error, "tracker disabled")
		return "", false
	}

	issue := mantis.IssueData{
		Project:         &mantis.ObjectRef{ID: g.projectID},
		Priority:        &mantis.ObjectRef{ID: MapPriority(req.Priority)},
		Severity:        &mantis.ObjectRef{ID: severityMajor},
		Status:          &mantis.ObjectRef{ID: statusNew},
		Reproducibility: &mantis.ObjectRef{ID: reproducibilityAlways},
		ViewState:       &mantis.ObjectRef{ID: viewStatePublic},
		Summary:         req.Summary,
		Description:     req.Description,
	}

	attempts := newCategoryAttempts(req.Category)
	for {
		category, ok := attempts.next()
		if !ok {
			break
		}
		issue.Category = category

		id, err := g.addIssue(ctx, issue)
		if err == nil && validRemoteID(id) {
			g.logger.Info("ticket created",
				"ticket_id", id,
				"category", category,
				"attempt", attempts.count())
			span.SetAttributes(
				attribute.String("ticket.id", id),
				attribute.String("ticket.accepted_category", category),
				attribute.Int("ticket.attempts", attempts.count()),
			)
			return id, true
		}
		if err == nil {
			g.logger.Warn("ticket creation returned no id", "category", category, "attempt", attempts.count())
		} else {
			g.logger.Warn("ticket creation failed for category",
				"category", category,
				"attempt", attempts.count(),
				"error", err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	g.logger.Error("all ticket category attempts failed",
		"requested_category", req.Category,
		"attempts", attempts.count())
	span.SetStatus(codes.Error, "all categories failed")
	return "", false
}

func (g *Gateway) addIssue(ctx context.Context, issue mantis.IssueData) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	ctx, span := g.tracer.Start(ctx, "mantis.mc_issue_add",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ticket.category", issue.Category)),
	)
	defer span.End()

	id, err := g.tracker.IssueAdd(ctx, issue)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return id, err
}

func validRemoteID(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && id != "0"
}

// TicketStatus fetches a ticket snapshot. Non-numeric ids and remote errors
// report false.
func (g *Gateway) TicketStatus(ctx context.Context, remoteID string) (*domain.TicketStatus, bool) {
	ctx, span := g.tracer.Start(ctx, "gateway.ticket_status",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ticket.id", remoteID)),
	)
	defer span.End()

	if g.tracker == nil {
		return nil, false
	}
	issueID, err := parseIssueID(remoteID)
	if err != nil {
		g.logger.Debug("ticket status lookup with invalid id", "ticket_id", remoteID)
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	issue, err := g.tracker.IssueGet(ctx, issueID)
	if err != nil || issue == nil {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		g.logger.Warn("ticket status lookup failed", "ticket_id", remoteID, "error", err)
		return nil, false
	}

	snapshot := &domain.TicketStatus{
		ID:       strconv.FormatInt(issue.ID, 10),
		Summary:  issue.Summary,
		Status:   refName(issue.Status, unknownValue),
		Priority: refName(issue.Priority, unknownValue),
		Handler:  unassignedHandlerValue,
	}
	if issue.ID == 0 {
		snapshot.ID = remoteID
	}
	if issue.Handler != nil && issue.Handler.Name != "" {
		snapshot.Handler = issue.Handler.Name
	}
	return snapshot, true
}

// AddNote appends a note to a ticket. It is best effort.
func (g *Gateway) AddNote(ctx context.Context, remoteID, text string) bool {
	ctx, span := g.tracer.Start(ctx, "gateway.add_note",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("ticket.id", remoteID)),
	)
	defer span.End()

	if g.tracker == nil {
		return false
	}
	issueID, err := parseIssueID(remoteID)
	if err != nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	noteID, err := g.tracker.IssueNoteAdd(ctx, issueID, text)
	if err != nil || noteID <= 0 {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		g.logger.Warn("adding ticket note failed", "ticket_id", remoteID, "error", err)
		return false
	}
	return true
}

// Projects lists the projects visible to the configured account.
func (g *Gateway) Projects(ctx context.Context) ([]domain.Project, bool) {
	ctx, span := g.tracer.Start(ctx, "gateway.projects", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	if g.tracker == nil {
		return nil, false
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()
	projects, err := g.tracker.ProjectsGetUserAccessible(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		g.logger.Warn("listing tracker projects failed", "error", err)
		return nil, false
	}

	out := make([]domain.Project, 0, len(projects))
	for _, p := range projects {
		out = append(out, domain.Project{ID: p.ID, Name: p.Name})
	}
	return out, true
}

func parseIssueID(remoteID string) (int64, error) {
	return strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(remoteID), "#"), 10, 64)
}

func refName(ref *mantis.ObjectRef, fallback string) string {
	if ref == nil || ref.Name == "" {
		return fallback
	}
	return ref.Name
}
