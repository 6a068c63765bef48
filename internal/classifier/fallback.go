package classifier

import (
	"strings"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

const (
	drainageSteps = `**Drainage Issue - Try These Steps:**

🔧 **Quick Fixes:**
1. **Check the drain hose** - Ensure it's not kinked or clogged
2. **Clean the drain filter** - Usually located at bottom front of machine
3. **Remove blockages** - Check for lint, coins, or debris
4. **Verify drain height** - Hose shouldn't be higher than 96cm

If these don't work, I can create a support ticket for professional help.`

	detergentSteps = `**Detergent Dispensing Issue - Try These Steps:**

🧽 **Quick Fixes:**
1. **Clean the detergent drawer** - Remove and wash thoroughly with warm water
2. **Check water pressure** - Ensure strong water flow to machine
3. **Use correct amount** - Don't overfill compartments
4. **Right detergent type** - Use HE detergent for high-efficiency machines

If problem continues, I can create a support ticket.`

	powerResponse   = "Power and startup issues often require technical diagnosis. I'll create a support ticket so our technicians can properly assist you with this problem."
	noiseResponse   = "Unusual noises can indicate mechanical issues that need professional attention. I'll create a support ticket for a technician to diagnose the problem safely."
	defaultResponse = "I'll create a support ticket for your washing machine issue so our technical team can provide the best assistance."

	// PowerSummary and NoiseSummary are the fixed ticket summaries of the
	// keyword rules.
	PowerSummary = "Washing machine power/startup failure"
	NoiseSummary = "Washing machine making unusual noises"

	defaultSummaryPrefix = "Washing machine issue: "
	summaryRunes         = 50
)

type keywordRule struct {
	keywords []string
	decision domain.Decision
}

// Order matters: the first rule with a matching keyword wins.
var keywordRules = []keywordRule{
	{
		keywords: []string{"drain", "draining", "water won't drain", "not draining"},
		decision: domain.Decision{
			Action:   domain.ActionTroubleshoot,
			Response: drainageSteps,
			Category: domain.CategoryHardware,
			Priority: domain.PriorityHigh,
		},
	},
	{
		keywords: []string{"detergent", "soap", "dispenser", "not dispensing"},
		decision: domain.Decision{
			Action:   domain.ActionTroubleshoot,
			Response: detergentSteps,
			Category: domain.CategoryMaintenance,
			Priority: domain.PriorityHigh,
		},
	},
	{
		keywords: []string{"won't start", "not starting", "no power", "dead"},
		decision: domain.Decision{
			Action:        domain.ActionCreateTicket,
			Response:      powerResponse,
			TicketSummary: PowerSummary,
			Category:      domain.CategoryHardware,
			Priority:      domain.PriorityUrgent,
		},
	},
	{
		keywords: []string{"noise", "loud", "banging", "grinding", "squeaking"},
		decision: domain.Decision{
			Action:        domain.ActionCreateTicket,
			Response:      noiseResponse,
			TicketSummary: NoiseSummary,
			Category:      domain.CategoryHardware,
			Priority:      domain.PriorityHigh,
		},
	},
}

// Fallback classifies message with fixed keyword rules. It is used whenever
// the model is unavailable or answers with something unusable.
func Fallback(message string) domain.Decision {
	lower := strings.ToLower(message)
	for _, rule := range keywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				d := rule.decision
				d.Source = domain.SourceFallback
				return d
			}
		}
	}

	return domain.Decision{
		Action:        domain.ActionCreateTicket,
		Response:      defaultResponse,
		TicketSummary: defaultSummary(message),
		Category:      domain.CategoryGeneral,
		Priority:      domain.PriorityHigh,
		Source:        domain.SourceFallback,
	}
}

func defaultSummary(message string) string {
	runes := []rune(message)
	if len(runes) <= summaryRunes {
		return defaultSummaryPrefix + message
	}
	return defaultSummaryPrefix + string(runes[:summaryRunes]) + "..."
}
