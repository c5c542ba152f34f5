package response

import (
	"time"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
)

const TimestampLayout = "2006-01-02 15:04:05"

type AuthResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token"`
	User    domain.User `json:"user"`
}

type SuccessResponse struct {
	Success bool `json:"success"`
}

type PurchaseResponse struct {
	Success         bool                   `json:"success"`
	Reference       string                 `json:"reference"`
	Status          domain.PaymentStatus   `json:"status"`
	Amount          string                 `json:"amount"`
	GatewayResponse payhero.ChargeResponse `json:"gateway_response"`
}

type CallbackResponse struct {
	Success   bool                 `json:"success"`
	Reference string               `json:"reference"`
	Status    domain.PaymentStatus `json:"status"`
}

type CreateInstanceResponse struct {
	Success bool `json:"success"`
	ID      uint `json:"id"`
}

type Ticket struct {
	ID           string      `json:"id"`
	InstanceID   *uint       `json:"ticket_instance_id"`
	Instance     string      `json:"instance"`
	Tier         domain.Tier `json:"tier"`
	Capacity     string      `json:"capacity"`
	Email        string      `json:"email,omitempty"`
	QRCodeURL    string      `json:"qr_code_url,omitempty"`
	QRCodeBase64 string      `json:"qr_code_base64,omitempty"`
	Scanned      bool        `json:"scanned"`
	ScannedAt    string      `json:"scanned_at,omitempty"`
	CreatedAt    time.Time   `json:"created_at"`
}

func NewTicket(d domain.TicketDetail, withQR bool) Ticket {
	t := Ticket{
		ID:         d.ID,
		InstanceID: d.InstanceID,
		Instance:   d.InstanceName,
		Tier:       d.Tier,
		Capacity:   d.CapacityText(),
		Email:      d.OwnerEmail,
		Scanned:    d.IsScanned(),
		ScannedAt:  FormatTime(d.ScannedAt),
		CreatedAt:  d.CreatedAt,
	}
	if withQR {
		t.QRCodeURL = d.QRCodeURL
		t.QRCodeBase64 = d.QRCodeBase64
	}

	return t
}

type VerifyResponse struct {
	Valid   bool    `json:"valid"`
	Message string  `json:"message,omitempty"`
	Ticket  *Ticket `json:"ticket,omitempty"`
}

type ScanResponse struct {
	Success   bool              `json:"success"`
	Status    domain.ScanResult `json:"status"`
	Message   string            `json:"message"`
	TicketID  string            `json:"ticket_id"`
	ScannedAt string            `json:"scanned_at,omitempty"`
	Ticket    *Ticket           `json:"ticket,omitempty"`
}

func NewScanResponse(o domain.ScanOutcome) ScanResponse {
	resp := ScanResponse{
		Success:   o.Result == domain.ScanValid,
		Status:    o.Result,
		Message:   o.Message,
		TicketID:  o.TicketID,
		ScannedAt: FormatTime(o.ScannedAt),
	}
	if o.Ticket != nil {
		t := NewTicket(*o.Ticket, false)
		resp.Ticket = &t
	}

	return resp
}

func FormatTime(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.UTC().Format(TimestampLayout)
}
