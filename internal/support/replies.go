package support

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

// Reply colors.
const (
	colorGreen  = 0x00ff00
	colorBlue   = 0x0099ff
	colorOrange = 0xffaa00
)

// User-visible texts.
const (
	TicketCreatedTitle    = "🎫 Support Ticket Created"
	TroubleshootTitle     = "🔧 Troubleshooting Steps"
	AssistantTitle        = "🤖 Support Assistant"
	TicketListTitle       = "📋 Your Support Tickets"
	HelpTitle             = "🧺 Washing Machine Support Bot"
	TicketFooter          = "You can reference this ticket number for future updates."
	TroubleshootFooter    = "If these steps don't help, let me know and I can create a support ticket for you."
	TicketFailedText      = "I apologize, but I couldn't create a support ticket at the moment. Please try again later or contact support directly."
	GenericErrorText      = "I'm sorry, I encountered an error. Please try again later."
	NoTicketsText         = "You don't have any support tickets."
	StatusUsageText       = "Usage: !status <ticket_id>"
	CommandErrorText      = "An error occurred while processing your command."
	defaultTicketSummary  = "Washing Machine Issue"
	ticketListLimit       = 5
	ticketCreatedStatus   = "New"
	fieldTicketNumber     = "Ticket Number"
	fieldStatus           = "Status"
	fieldCategory         = "Category"
	fieldSummary          = "Summary"
	fieldPriority         = "Priority"
	fieldAssignedTo       = "Assigned To"
	notAvailable          = "N/A"
	ticketNotFoundPattern = "Could not find ticket #%s or you don't have permission to view it."
)

func textReply(body string) *domain.Reply {
	return &domain.Reply{Kind: domain.ReplyText, Body: body}
}

func ticketCreatedReply(d domain.Decision, remoteID string) *domain.Reply {
	r := &domain.Reply{
		Kind:   domain.ReplyTicketCreated,
		Title:  TicketCreatedTitle,
		Body:   d.Response,
		Footer: TicketFooter,
		Color:  colorGreen,
	}
	category := d.Category
	if category == "" {
		category = domain.CategoryGeneral
	}
	return r.AddField(fieldTicketNumber, "#"+remoteID, true).
		AddField(fieldStatus, ticketCreatedStatus, true).
		AddField(fieldCategory, category, true)
}

func troubleshootReply(d domain.Decision) *domain.Reply {
	return &domain.Reply{
		Kind:   domain.ReplyTroubleshoot,
		Title:  TroubleshootTitle,
		Body:   d.Response,
		Footer: TroubleshootFooter,
		Color:  colorBlue,
	}
}

func clarifyReply(d domain.Decision) *domain.Reply {
	return &domain.Reply{
		Kind:  domain.ReplyClarify,
		Title: AssistantTitle,
		Body:  d.Response,
		Color: colorOrange,
	}
}

func ticketListReply(records []domain.TicketRecord, now time.Time) *domain.Reply {
	if len(records) == 0 {
		return textReply(NoTicketsText)
	}
	r := &domain.Reply{Kind: domain.ReplyTicketList, Title: TicketListTitle, Color: colorBlue}
	for _, rec := range records {
		value := fmt.Sprintf("**%s**\nCreated: %s (%s)\nStatus: %s",
			rec.Summary,
			rec.CreatedAt.UTC().Format("2006-01-02 15:04"),
			humanize.RelTime(rec.CreatedAt, now, "ago", "from now"),
			rec.Status)
		r.AddField("Ticket #"+rec.RemoteTicketID, value, false)
	}
	return r
}

func ticketStatusReply(st *domain.TicketStatus, requestedID string) *domain.Reply {
	summary := st.Summary
	if summary == "" {
		summary = notAvailable
	}
	r := &domain.Reply{
		Kind:  domain.ReplyTicketStatus,
		Title: fmt.Sprintf("🎫 Ticket #%s Status", requestedID),
		Color: colorGreen,
	}
	return r.AddField(fieldSummary, summary, false).
		AddField(fieldStatus, st.Status, true).
		AddField(fieldPriority, st.Priority, true).
		AddField(fieldAssignedTo, st.Handler, true)
}

func ticketNotFoundReply(id string) *domain.Reply {
	return textReply(fmt.Sprintf(ticketNotFoundPattern, id))
}

func helpReply(prefix string) *domain.Reply {
	commands := strings.Join([]string{
		fmt.Sprintf("`%stickets` - View your support tickets", prefix),
		fmt.Sprintf("`%sstatus <ticket_id>` - Check ticket status", prefix),
		fmt.Sprintf("`%shelp_washing` - Show this help message", prefix),
	}, "\n")
	examples := strings.Join([]string{
		`• "My washing machine won't drain"`,
		`• "The detergent isn't dispensing properly"`,
		`• "There's excessive noise during spin cycle"`,
		`• "My clothes aren't getting clean"`,
	}, "\n")

	r := &domain.Reply{
		Kind:  domain.ReplyHelp,
		Title: HelpTitle,
		Body:  "I'm here to help you with washing machine issues!",
		Color: colorBlue,
	}
	return r.AddField("How to get help:", "Simply describe your washing machine problem in natural language.", false).
		AddField("Available Commands:", commands, false).
		AddField("Example Questions:", examples, false)
}
