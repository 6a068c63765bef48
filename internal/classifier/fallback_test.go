package classifier

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

func TestFallbackRules(t *testing.T) {
	tests := []struct {
		message  string
		action   domain.Action
		category string
		priority int
		summary  string
	}{
		{"My machine is NOT DRAINING", domain.ActionTroubleshoot, domain.CategoryHardware, 30, ""},
		{"soap everywhere", domain.ActionTroubleshoot, domain.CategoryMaintenance, 30, ""},
		{"the dispenser is stuck", domain.ActionTroubleshoot, domain.CategoryMaintenance, 30, ""},
		{"It won't start at all", domain.ActionCreateTicket, domain.CategoryHardware, 20, PowerSummary},
		{"screen is dead", domain.ActionCreateTicket, domain.CategoryHardware, 20, PowerSummary},
		{"grinding sound during spin", domain.ActionCreateTicket, domain.CategoryHardware, 30, NoiseSummary},
		// drainage outranks noise
		{"loud noise and it won't drain", domain.ActionTroubleshoot, domain.CategoryHardware, 30, ""},
		{"clothes smell odd", domain.ActionCreateTicket, domain.CategoryGeneral, 30, "Washing machine issue: clothes smell odd"},
	}

	for _, tt := range tests {
		t.Run(tt.message, func(t *testing.T) {
			d := Fallback(tt.message)
			assert.Equal(t, tt.action, d.Action)
			assert.Equal(t, tt.category, d.Category)
			assert.Equal(t, tt.priority, d.Priority)
			assert.Equal(t, tt.summary, d.TicketSummary)
			assert.Equal(t, domain.SourceFallback, d.Source)
			assert.NotEmpty(t, d.Response)
		})
	}
}

func TestFallbackDrainageText(t *testing.T) {
	d := Fallback("drain")
	assert.True(t, strings.HasPrefix(d.Response, "**Drainage Issue - Try These Steps:**"))
	assert.Contains(t, d.Response, "Hose shouldn't be higher than 96cm")
}

func TestFallbackDefaultSummaryTruncation(t *testing.T) {
	msg := strings.Repeat("é", 60)
	d := Fallback(msg)
	assert.Equal(t, "Washing machine issue: "+strings.Repeat("é", 50)+"...", d.TicketSummary)

	exact := strings.Repeat("x", 50)
	assert.Equal(t, "Washing machine issue: "+exact, Fallback(exact).TicketSummary)
}

func TestFallbackProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("always yields a complete decision", prop.ForAll(
		func(msg string) bool {
			d := Fallback(msg)
			return d.Response != "" && d.Category != "" && d.Priority != 0 &&
				(d.Action == domain.ActionTroubleshoot || d.Action == domain.ActionCreateTicket) &&
				d.Source == domain.SourceFallback
		},
		gen.AnyString(),
	))

	properties.Property("is deterministic", prop.ForAll(
		func(msg string) bool {
			return Fallback(msg) == Fallback(msg)
		},
		gen.AnyString(),
	))

	properties.Property("drain keyword always wins", prop.ForAll(
		func(prefix, suffix string) bool {
			d := Fallback(prefix + "DRAIN" + suffix)
			return d.Action == domain.ActionTroubleshoot &&
				d.Category == domain.CategoryHardware &&
				d.Priority == domain.PriorityHigh
		},
		gen.AlphaString(),
		gen.AlphaString(),
	))

	properties.Property("default summary is bounded", prop.ForAll(
		func(msg string) bool {
			d := Fallback(msg)
			if d.Category != domain.CategoryGeneral {
				return true
			}
			body := strings.TrimPrefix(d.TicketSummary, defaultSummaryPrefix)
			return utf8.RuneCountInString(body) <= summaryRunes+3
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
