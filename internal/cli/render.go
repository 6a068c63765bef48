package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

var (
	labelStyle  = lipgloss.NewStyle().Bold(true)
	footerStyle = lipgloss.NewStyle().Faint(true).Italic(true)
	dimStyle    = lipgloss.NewStyle().Faint(true)
)

func jsonOutput() bool {
	return formatFlag == "json"
}

func writeJSON(w io.Writer, v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// renderReply formats a reply the way a chat client would show it.
func renderReply(r *domain.Reply) string {
	var lines []string
	if r.Title != "" {
		title := lipgloss.NewStyle().Bold(true)
		if r.Color != 0 {
			title = title.Foreground(lipgloss.Color(fmt.Sprintf("#%06x", r.Color)))
		}
		lines = append(lines, title.Render(r.Title))
	}
	if r.Body != "" {
		lines = append(lines, r.Body)
	}
	for _, f := range r.Fields {
		lines = append(lines, labelStyle.Render(f.Name+":")+" "+f.Value)
	}
	if r.Footer != "" {
		lines = append(lines, footerStyle.Render(r.Footer))
	}
	return strings.Join(lines, "\n")
}

func renderTickets(records []domain.TicketRecord) string {
	if len(records) == 0 {
		return dimStyle.Render("no tickets")
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s",
			labelStyle.Render("#"+rec.RemoteTicketID),
			rec.Status,
			dimStyle.Render(rec.CreatedAt.Format(time.DateTime)),
			rec.Summary))
	}
	return strings.Join(lines, "\n")
}

func renderStatus(st *domain.TicketStatus) string {
	return strings.Join([]string{
		labelStyle.Render("Ticket #" + st.ID),
		labelStyle.Render("Summary:") + " " + st.Summary,
		labelStyle.Render("Status:") + " " + st.Status,
		labelStyle.Render("Priority:") + " " + st.Priority,
		labelStyle.Render("Assigned To:") + " " + st.Handler,
	}, "\n")
}
