package domain

import "time"

// DefaultTicketStatus is the local status assigned to every new record.
const DefaultTicketStatus = "open"

// TicketRecord is the local record of a ticket filed in the issue tracker.
type TicketRecord struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	RemoteTicketID string    `json:"remote_ticket_id"`
	Summary        string    `json:"summary"`
	CreatedAt      time.Time `json:"created_at"`
	Status         string    `json:"status"`
}

// TicketStatus is a flattened view of a remote issue.
type TicketStatus struct {
	ID       string `json:"id"`
	Summary  string `json:"summary"`
	Status   string `json:"status"`
	Priority string `json:"priority"`
	Handler  string `json:"handler"`
}

// Project is an issue tracker project visible to the bot account.
type Project struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
