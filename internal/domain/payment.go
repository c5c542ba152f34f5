package domain

import (
	"regexp"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentSuccess PaymentStatus = "success"
	PaymentFailed  PaymentStatus = "failed"
)

// Kenyan mobile-money numbers in international form: 254 followed by 9 digits.
var phoneExp = regexp.MustCompile(`^254\d{9}$`)

func ValidPhoneNumber(phone string) bool {
	return phoneExp.MatchString(phone)
}

type Payment struct {
	ID                 uint            `json:"id"`
	UserID             uint            `json:"user_id"`
	ExternalReference  string          `json:"reference"`
	Amount             decimal.Decimal `json:"amount"`
	PhoneNumber        string          `json:"phone_number"`
	Status             PaymentStatus   `json:"status"`
	Cart               Cart            `json:"cart"`
	GatewayReference   string          `json:"gateway_reference,omitempty"`
	ResultDescription  string          `json:"result_description,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	CallbackReceivedAt *time.Time      `json:"callback_received_at,omitempty"`
}

func (p Payment) IsPending() bool {
	return p.Status == PaymentPending
}

// PaymentCallback is the gateway's asynchronous verdict on a charge.
type PaymentCallback struct {
	ExternalReference string
	ResultCode        int
	ResultDescription string
	Status            string
	GatewayReference  string
}

// Succeeded follows the gateway contract: result code 0 and status "Success".
func (c PaymentCallback) Succeeded() bool {
	return c.ResultCode == 0 && c.Status == "Success"
}
