package domain

// Action is what the bot decided to do with a message.
type Action string

const (
	ActionTroubleshoot Action = "troubleshoot"
	ActionCreateTicket Action = "create_ticket"
	ActionClarify      Action = "clarify"
)

// Category values understood by the classifier prompt.
const (
	CategoryHardware    = "Hardware"
	CategorySoftware    = "Software"
	CategoryMaintenance = "Maintenance"
	CategoryGeneral     = "General"
)

// Priority values on the internal scale. Lower is more urgent.
const (
	PriorityImmediate = 10
	PriorityUrgent    = 20
	PriorityHigh      = 30
	PriorityNormal    = 40
	PriorityLow       = 50
)

// DecisionSource records where a decision came from.
type DecisionSource string

const (
	SourceModel    DecisionSource = "model"
	SourceFallback DecisionSource = "fallback"
)

// Decision is the classifier's verdict for one message.
type Decision struct {
	Action        Action         `json:"action"`
	Response      string         `json:"response"`
	TicketSummary string         `json:"ticket_summary,omitempty"`
	Category      string         `json:"category"`
	Priority      int            `json:"priority"`
	Source        DecisionSource `json:"-"`
}
