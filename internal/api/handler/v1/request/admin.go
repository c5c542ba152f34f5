package request

import (
	"errors"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/shopspring/decimal"

	"github.com/darkorder/ticketing-api/internal/domain"
)

var errNegativePrice = errors.New("must not be negative")

func nonNegativePrice(value interface{}) error {
	price, _ := value.(*decimal.Decimal)
	if price != nil && price.IsNegative() {
		return errNegativePrice
	}

	return nil
}

type CreateInstanceRequest struct {
	Name         string           `json:"name"`
	Capacity     int              `json:"capacity"`
	RegularPrice *decimal.Decimal `json:"regular_price"`
	VIPPrice     *decimal.Decimal `json:"vip_price"`
	VVIPPrice    *decimal.Decimal `json:"vvip_price"`
}

func (req *CreateInstanceRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&req.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&req.RegularPrice, validation.By(nonNegativePrice)),
		validation.Field(&req.VIPPrice, validation.By(nonNegativePrice)),
		validation.Field(&req.VVIPPrice, validation.By(nonNegativePrice)),
	)
}

func (req *CreateInstanceRequest) ToDomain() domain.TicketInstance {
	return domain.TicketInstance{
		Name:         req.Name,
		Capacity:     req.Capacity,
		RegularPrice: req.RegularPrice,
		VIPPrice:     req.VIPPrice,
		VVIPPrice:    req.VVIPPrice,
	}
}

type VerifyTicketRequest struct {
	TicketID string `json:"ticket_id"`
}

func (req *VerifyTicketRequest) Validate() error {
	return validation.ValidateStruct(
		req,
		validation.Field(&req.TicketID, validation.Required),
	)
}
