package domain

import "time"

type ScanResult string

const (
	ScanValid          ScanResult = "valid"
	ScanInvalid        ScanResult = "invalid"
	ScanAlreadyScanned ScanResult = "already_scanned"
)

// ScanLog is an append-only audit row, one per scan attempt.
type ScanLog struct {
	ID        uint       `json:"id"`
	TicketID  string     `json:"ticket_id"`
	Result    ScanResult `json:"result"`
	Details   string     `json:"details"`
	ScannedBy *uint      `json:"scanned_by,omitempty"`
	ScannedAt time.Time  `json:"scanned_at"`
}

type ScanOutcome struct {
	TicketID  string        `json:"ticket_id"`
	Result    ScanResult    `json:"status"`
	Message   string        `json:"message"`
	Ticket    *TicketDetail `json:"ticket,omitempty"`
	ScannedAt *time.Time    `json:"scanned_at,omitempty"`
}

type DashboardStats struct {
	Instances      int64                   `json:"instances"`
	TicketsIssued  int64                   `json:"tickets_issued"`
	TicketsScanned int64                   `json:"tickets_scanned"`
	Payments       map[PaymentStatus]int64 `json:"payments"`
}
