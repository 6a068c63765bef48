package support

import (
	"context"
	"strings"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

// Command names, without the prefix.
const (
	CommandTickets = "tickets"
	CommandStatus  = "status"
	CommandHelp    = "help_washing"
)

// runCommand handles prefixed text. Unknown commands are ignored.
func (s *Service) runCommand(ctx context.Context, ev domain.Event) (*domain.Reply, bool) {
	fields := strings.Fields(strings.TrimPrefix(ev.Text, s.opts.CommandPrefix))
	if len(fields) == 0 {
		return nil, false
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	var reply *domain.Reply
	switch name {
	case CommandTickets:
		reply = s.ticketsCommand(ctx, ev.UserID)
	case CommandStatus:
		reply = s.statusCommand(ctx, args)
	case CommandHelp:
		reply = helpReply(s.opts.CommandPrefix)
	default:
		return nil, false
	}

	s.convLog.Log(ConversationLogEvent{
		UserID:     ev.UserID,
		Channel:    ev.ChannelID,
		Direction:  DirectionInbound,
		EventType:  EventCommand,
		ContentRaw: ev.Text,
		ReplyKind:  string(reply.Kind),
	})
	return reply, true
}

func (s *Service) ticketsCommand(ctx context.Context, userID string) *domain.Reply {
	records, err := s.tickets.ListTickets(ctx, userID, ticketListLimit)
	if err != nil {
		s.logger.Error("listing tickets failed", "user_id", userID, "error", err)
		return textReply(CommandErrorText)
	}
	return ticketListReply(records, s.now())
}

func (s *Service) statusCommand(ctx context.Context, args []string) *domain.Reply {
	if len(args) == 0 {
		return textReply(StatusUsageText)
	}
	id := strings.TrimPrefix(args[0], "#")
	st, ok := s.gateway.TicketStatus(ctx, id)
	if !ok {
		return ticketNotFoundReply(id)
	}
	return ticketStatusReply(st, id)
}
