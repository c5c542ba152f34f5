// Package notify emails buyers. Ticket emails are best effort: failures are
// logged, never returned to the payment flow.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/metrics"
	"github.com/darkorder/ticketing-api/internal/pkg/mailer"
)

// Dispatcher sends straight through the mailer.
type Dispatcher struct {
	composer *Composer
	sender   mailer.Sender
}

func NewDispatcher(composer *Composer, sender mailer.Sender) *Dispatcher {
	return &Dispatcher{
		composer: composer,
		sender:   sender,
	}
}

func (d *Dispatcher) TicketsIssued(ctx context.Context, to string, tickets []domain.TicketDetail) {
	msg, err := d.composer.Tickets(to, tickets)
	if err != nil {
		metrics.TrackEmail(KindTickets, err)
		zap.L().Error("failed to compose tickets email", zap.String("to", to), zap.Error(err))
		return
	}

	err = d.sender.Send(ctx, msg)
	metrics.TrackEmail(KindTickets, err)
	if err != nil {
		zap.L().Error("failed to send tickets email", zap.String("to", to), zap.Error(err))
		return
	}

	zap.L().Info("tickets email sent", zap.String("to", to), zap.Int("tickets", len(tickets)))
}

func (d *Dispatcher) PINReset(ctx context.Context, to, pin string) error {
	msg, err := d.composer.PINReset(to, pin)
	if err != nil {
		return fmt.Errorf("d.composer.PINReset -> %w", err)
	}

	err = d.sender.Send(ctx, msg)
	metrics.TrackEmail(KindPINReset, err)
	if err != nil {
		return fmt.Errorf("d.sender.Send -> %w", err)
	}

	return nil
}
