package model

import "time"

type TicketStatus string

const (
	TicketStatusIssued      TicketStatus = "issued"
	TicketStatusUsed        TicketStatus = "used"
	TicketStatusAlreadyUsed TicketStatus = "already_used"
	TicketStatusRefunded    TicketStatus = "refunded"
	TicketStatusCancelled   TicketStatus = "cancelled"
)

type TicketHolder struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type TicketEvent struct {
	Name     string `json:"name"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Location string `json:"location"`
	Places   int32  `json:"places"`
}

// TicketInfo is a single admission right as the backend reports it.
// Token is the canonical server-side identifier; TicketToken is the value
// staff actually scanned or typed, retained separately for audit display.
type TicketInfo struct {
	Token       string       `json:"token"`
	TicketToken string       `json:"ticketToken,omitempty"`
	Status      TicketStatus `json:"status"`
	User        TicketHolder `json:"user"`
	Event       TicketEvent  `json:"event"`
	UsedAt      *time.Time   `json:"usedAt,omitempty"`
}

// CanValidate reports whether the ticket may still be marked as used.
func (t *TicketInfo) CanValidate() bool {
	return t != nil && t.Status == TicketStatusIssued
}

// Merge applies a partial validation response onto the ticket without
// discarding previously known holder and event fields.
func (t *TicketInfo) Merge(partial TicketInfo) {
	if partial.Status != "" {
		t.Status = partial.Status
	}

	if partial.UsedAt != nil {
		t.UsedAt = partial.UsedAt
	}

	if partial.Token != "" {
		t.Token = partial.Token
	}
}
