package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrUnknownTier     = errors.New("tier must be one of regular, vip, vvip")
	ErrTierNotOnSale   = errors.New("tier has no price for this ticket instance")
	ErrInvalidQuantity = fmt.Errorf("quantity must be between 1 and %d per purchase", MaxTicketsPerPurchase)
)

// MaxTicketsPerPurchase bounds one cart. Every ticket gets its QR code
// rendered while the payment callback is being handled.
const MaxTicketsPerPurchase = 20

type Tier string

const (
	TierRegular Tier = "regular"
	TierVIP     Tier = "vip"
	TierVVIP    Tier = "vvip"
)

func (t Tier) Valid() bool {
	switch t {
	case TierRegular, TierVIP, TierVVIP:
		return true
	}

	return false
}

// TicketInstance is a sellable event or category. Each tier price is optional;
// a nil price means the tier is not on sale.
type TicketInstance struct {
	ID           uint             `json:"id"`
	Name         string           `json:"name"`
	Capacity     int              `json:"capacity"`
	RegularPrice *decimal.Decimal `json:"regular_price"`
	VIPPrice     *decimal.Decimal `json:"vip_price"`
	VVIPPrice    *decimal.Decimal `json:"vvip_price"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

func (ti TicketInstance) PriceFor(tier Tier) (decimal.Decimal, error) {
	var price *decimal.Decimal
	switch tier {
	case TierRegular:
		price = ti.RegularPrice
	case TierVIP:
		price = ti.VIPPrice
	case TierVVIP:
		price = ti.VVIPPrice
	default:
		return decimal.Zero, ErrUnknownTier
	}

	if price == nil {
		return decimal.Zero, fmt.Errorf("%s of %q: %w", tier, ti.Name, ErrTierNotOnSale)
	}

	return *price, nil
}

func (ti TicketInstance) CapacityText() string {
	return CapacityText(ti.Capacity)
}

// CapacityText renders how many people a ticket admits, e.g. "Covers 2 people".
func CapacityText(capacity int) string {
	noun := "people"
	if capacity == 1 {
		noun = "person"
	}

	return fmt.Sprintf("Covers %d %s", capacity, noun)
}
