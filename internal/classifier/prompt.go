package classifier

import (
	"strings"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

const instruction = `You are a helpful washing machine support assistant. Your goal is to help users with washing machine problems.

For each user query, you must respond in EXACTLY this JSON format:
{
    "action": "troubleshoot" or "create_ticket" or "clarify",
    "response": "Your helpful response text to the user",
    "ticket_summary": "Brief summary for ticket (only if action is create_ticket)",
    "category": "Hardware" or "Software" or "Maintenance" or "General",
    "priority": 30
}

RULES:
- If you can provide basic troubleshooting steps, use "action": "troubleshoot"
- If the issue requires technical assistance, use "action": "create_ticket"
- If you need more information, use "action": "clarify"
- Always provide helpful, specific advice in the "response" field
- Use priority: 10=immediate, 20=urgent, 30=high, 40=normal, 50=low

Common issues you can troubleshoot:
- Detergent not dispensing
- Drainage problems
- Machine not starting
- Excessive noise
- Clothes not getting clean
- Water temperature issues

Create tickets for:
- Complex mechanical failures
- Electrical problems
- Issues needing technician visit
- Problems basic troubleshooting can't resolve`

// BuildPrompt renders the single prompt sent to the backend. Only the last
// domain.ContextTurns entries of history are included.
func BuildPrompt(message string, history []domain.Turn) string {
	if len(history) > domain.ContextTurns {
		history = history[len(history)-domain.ContextTurns:]
	}

	var b strings.Builder
	b.WriteString(instruction)
	b.WriteString("\n\n")
	if len(history) > 0 {
		b.WriteString("Previous conversation context:\n")
		for _, turn := range history {
			b.WriteString(string(turn.Role))
			b.WriteString(": ")
			b.WriteString(turn.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	b.WriteString("Current user message: ")
	b.WriteString(message)
	b.WriteString("\n\nRespond with JSON only:")
	return b.String()
}

// stripFence removes a leading ```json or ``` marker and a trailing ``` marker.
func stripFence(raw string) string {
	text := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(text, "```json"):
		text = strings.TrimPrefix(text, "```json")
	case strings.HasPrefix(text, "```"):
		text = strings.TrimPrefix(text, "```")
	default:
		return text
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
