package classifier

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/janhvi2806/washing-machine-bot/internal/domain"
)

// decisionSchema only enforces presence and JSON types. Enum values are
// normalized after decoding so that a model answering "hardware" or an
// unexpected action still yields a usable decision.
const decisionSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["action", "response", "category", "priority"],
  "properties": {
    "action": {"type": "string"},
    "response": {"type": "string"},
    "ticket_summary": {"type": "string"},
    "category": {"type": "string"},
    "priority": {"type": "number"}
  }
}`

var errInvalidDecision = errors.New("invalid decision document")

// decoder validates and decodes model output into a Decision.
type decoder struct {
	schema *jsonschema.Schema
}

func newDecoder() (*decoder, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(decisionSchema))
	if err != nil {
		return nil, fmt.Errorf("unmarshal decision schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource("decision.json", doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := c.Compile("decision.json")
	if err != nil {
		return nil, fmt.Errorf("compile decision schema: %w", err)
	}
	return &decoder{schema: schema}, nil
}

type wireDecision struct {
	Action        string  `json:"action"`
	Response      string  `json:"response"`
	TicketSummary string  `json:"ticket_summary"`
	Category      string  `json:"category"`
	Priority      float64 `json:"priority"`
}

// Decode parses raw model output. The caller falls back on any error.
func (d *decoder) Decode(raw string) (domain.Decision, error) {
	text := stripFence(raw)

	inst, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %w", errInvalidDecision, err)
	}
	if err := d.schema.Validate(inst); err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %w", errInvalidDecision, err)
	}

	var w wireDecision
	if err := json.Unmarshal([]byte(text), &w); err != nil {
		return domain.Decision{}, fmt.Errorf("%w: %w", errInvalidDecision, err)
	}

	return domain.Decision{
		Action:        normalizeAction(w.Action),
		Response:      w.Response,
		TicketSummary: w.TicketSummary,
		Category:      normalizeCategory(w.Category),
		Priority:      int(math.Round(w.Priority)),
		Source:        domain.SourceModel,
	}, nil
}

func normalizeAction(s string) domain.Action {
	switch a := domain.Action(strings.ToLower(strings.TrimSpace(s))); a {
	case domain.ActionTroubleshoot, domain.ActionCreateTicket, domain.ActionClarify:
		return a
	default:
		return domain.ActionClarify
	}
}

func normalizeCategory(s string) string {
	if strings.TrimSpace(s) == "" {
		return domain.CategoryGeneral
	}
	for _, c := range []string{domain.CategoryHardware, domain.CategorySoftware, domain.CategoryMaintenance, domain.CategoryGeneral} {
		if strings.EqualFold(strings.TrimSpace(s), c) {
			return c
		}
	}
	return strings.TrimSpace(s)
}
