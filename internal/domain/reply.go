package domain

// ReplyKind tells the transport how to style a reply.
type ReplyKind string

const (
	ReplyTicketCreated ReplyKind = "ticket_created"
	ReplyTroubleshoot  ReplyKind = "troubleshoot"
	ReplyClarify       ReplyKind = "clarify"
	ReplyTicketList    ReplyKind = "ticket_list"
	ReplyTicketStatus  ReplyKind = "ticket_status"
	ReplyHelp          ReplyKind = "help"
	ReplyText          ReplyKind = "text"
)

// Field is a key/value pair rendered alongside a reply body.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// Reply is platform-neutral outbound content. Transports render it.
type Reply struct {
	Kind   ReplyKind `json:"kind"`
	Title  string    `json:"title,omitempty"`
	Body   string    `json:"body,omitempty"`
	Footer string    `json:"footer,omitempty"`
	Color  int       `json:"color,omitempty"`
	Fields []Field   `json:"fields,omitempty"`
}

// AddField appends a field and returns the reply for chaining.
func (r *Reply) AddField(name, value string, inline bool) *Reply {
	r.Fields = append(r.Fields, Field{Name: name, Value: value, Inline: inline})
	return r
}

// Field returns the value of the named field, or "" if absent.
func (r *Reply) Field(name string) string {
	for _, f := range r.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return ""
}

// Event is an inbound chat message as delivered by a transport.
type Event struct {
	UserID        string `json:"user_id"`
	DisplayName   string `json:"display_name"`
	ChannelID     string `json:"channel_id"`
	DirectMessage bool   `json:"direct_message"`
	AuthorIsBot   bool   `json:"author_is_bot"`
	Text          string `json:"text"`
}
