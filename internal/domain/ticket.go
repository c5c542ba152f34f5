package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// RemovedInstanceName stands in for the instance of an orphaned ticket.
const RemovedInstanceName = "(removed)"

const (
	// VerifyPath prefixes the public verification link encoded in each QR.
	VerifyPath = "/ticket/verify/"

	// TicketIDLength is the length of a canonical uuid string.
	TicketIDLength = 36
)

type Ticket struct {
	ID           string     `json:"id"`
	UserID       uint       `json:"user_id"`
	InstanceID   *uint      `json:"ticket_instance_id"`
	Tier         Tier       `json:"tier"`
	QRCodeURL    string     `json:"qr_code_url"`
	QRCodeBase64 string     `json:"qr_code_base64"`
	ScannedAt    *time.Time `json:"scanned_at"`
	PDFPath      *string    `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// NewTicketID returns a globally unique id that can be embedded in a QR code
// before the row is committed.
func NewTicketID() string {
	return uuid.NewString()
}

// ScannedTicketID extracts the ticket id from what a scanner read. Scanners
// usually return the whole verification link, so anything after the last
// VerifyPath segment is taken, minus query and fragment.
func ScannedTicketID(raw string) string {
	id := strings.TrimSpace(raw)
	if i := strings.LastIndex(id, VerifyPath); i >= 0 {
		id = id[i+len(VerifyPath):]
	}
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}

	return strings.TrimRight(id, "/")
}

func (t Ticket) IsScanned() bool {
	return t.ScannedAt != nil
}

// TicketDetail is a ticket joined with what is printed on it.
type TicketDetail struct {
	Ticket
	InstanceName string `json:"instance_name"`
	Capacity     int    `json:"capacity"`
	OwnerEmail   string `json:"owner_email"`
}

func (d TicketDetail) CapacityText() string {
	return CapacityText(d.Capacity)
}
