package model

type ErrorResponse struct {
	Error string `json:"error"`
	Data  any    `json:"data,omitempty"`
}

type ManualEntryRequest struct {
	Token string `json:"token" validate:"required,printascii,max=128"`
}

type ScanResultEventMessage struct {
	AttemptId   string `json:"attempt_id"`
	GateId      string `json:"gate_id"`
	Token       string `json:"token"`
	TicketToken string `json:"ticket_token"`
	Outcome     string `json:"outcome"`
	Status      string `json:"status,omitempty"`
	ScannedAt   string `json:"scanned_at"`
}
