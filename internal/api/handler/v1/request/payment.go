package request

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/darkorder/ticketing-api/internal/domain"
)

type CartItem struct {
	InstanceID uint   `json:"instance_id"`
	Tier       string `json:"tier"`
	Quantity   int    `json:"quantity"`
}

func (item CartItem) Validate() error {
	return validation.ValidateStruct(
		&item,
		validation.Field(&item.InstanceID, validation.Required),
		validation.Field(&item.Tier, validation.Required,
			validation.In(string(domain.TierRegular), string(domain.TierVIP), string(domain.TierVVIP))),
		validation.Field(&item.Quantity, validation.Required, validation.Min(1), validation.Max(domain.MaxTicketsPerPurchase)),
	)
}

type PurchaseRequest struct {
	PhoneNumber string     `json:"phoneNumber"`
	Cart        []CartItem `json:"cart"`
}

// Validate only checks shape. Phone format and pricing are business rules
// enforced by the payment service.
func (req *PurchaseRequest) Validate() error {
	err := validation.ValidateStruct(
		req,
		validation.Field(&req.PhoneNumber, validation.Required),
		validation.Field(&req.Cart, validation.Required),
	)
	if err != nil {
		return err
	}

	for i, item := range req.Cart {
		if err = item.Validate(); err != nil {
			return fmt.Errorf("cart[%d]: %w", i, err)
		}
	}

	return nil
}

func (req *PurchaseRequest) ToCart() domain.Cart {
	cart := make(domain.Cart, len(req.Cart))
	for i, item := range req.Cart {
		cart[i] = domain.CartItem{
			InstanceID: item.InstanceID,
			Tier:       domain.Tier(item.Tier),
			Quantity:   item.Quantity,
		}
	}

	return cart
}

// PayHeroCallback is the body PayHero posts once the STK push settles.
type PayHeroCallback struct {
	Status   bool                    `json:"status"`
	Response PayHeroCallbackResponse `json:"response"`
}

type PayHeroCallbackResponse struct {
	ExternalReference  string  `json:"ExternalReference"`
	ResultCode         *int    `json:"ResultCode"`
	ResultDesc         string  `json:"ResultDesc"`
	Status             string  `json:"Status"`
	MpesaReceiptNumber string  `json:"MpesaReceiptNumber"`
	CheckoutRequestID  string  `json:"CheckoutRequestID"`
	Amount             float64 `json:"Amount"`
	Phone              string  `json:"Phone"`
}

// ToDomain treats a missing result code as a failure.
func (req *PayHeroCallback) ToDomain() domain.PaymentCallback {
	resultCode := -1
	if req.Response.ResultCode != nil {
		resultCode = *req.Response.ResultCode
	}

	gatewayRef := req.Response.MpesaReceiptNumber
	if gatewayRef == "" {
		gatewayRef = req.Response.CheckoutRequestID
	}

	return domain.PaymentCallback{
		ExternalReference: req.Response.ExternalReference,
		ResultCode:        resultCode,
		ResultDescription: req.Response.ResultDesc,
		Status:            req.Response.Status,
		GatewayReference:  gatewayRef,
	}
}
