package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInstanceNotResolved = errors.New("ticket instance not resolved")
)

type CartItem struct {
	InstanceID uint `json:"instance_id"`
	Tier       Tier `json:"tier"`
	Quantity   int  `json:"quantity"`
}

func (i CartItem) Validate() error {
	if !i.Tier.Valid() {
		return ErrUnknownTier
	}
	if i.Quantity < 1 || i.Quantity > MaxTicketsPerPurchase {
		return ErrInvalidQuantity
	}

	return nil
}

type Cart []CartItem

func (c Cart) Validate() error {
	if len(c) == 0 {
		return ErrEmptyCart
	}
	for idx, item := range c {
		if err := item.Validate(); err != nil {
			return fmt.Errorf("cart item %d: %w", idx, err)
		}
	}
	if c.TicketCount() > MaxTicketsPerPurchase {
		return ErrInvalidQuantity
	}

	return nil
}

// TicketCount is the number of tickets the cart issues once paid.
func (c Cart) TicketCount() int {
	n := 0
	for _, item := range c {
		n += item.Quantity
	}

	return n
}

// Total sums quantity x tier price. instances must hold every referenced id.
func (c Cart) Total(instances map[uint]TicketInstance) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, item := range c {
		instance, ok := instances[item.InstanceID]
		if !ok {
			return decimal.Zero, fmt.Errorf("ticket instance %d: %w", item.InstanceID, ErrInstanceNotResolved)
		}

		price, err := instance.PriceFor(item.Tier)
		if err != nil {
			return decimal.Zero, err
		}

		total = total.Add(price.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	return total, nil
}
