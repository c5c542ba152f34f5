package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/metrics"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketqr"
	"github.com/darkorder/ticketing-api/internal/repository"
)

var (
	ErrPaymentNotFound   = repository.ErrPaymentNotFound
	ErrPaymentNotPending = repository.ErrPaymentNotPending

	ErrInvalidPhone     = errors.New("phone number must be in the format 2547XXXXXXXX")
	ErrMissingReference = errors.New("external reference is required")
	ErrGateway          = errors.New("payment gateway request failed")
)

type PaymentRepository interface {
	Create(ctx context.Context, payment domain.Payment) (domain.Payment, error)
	FindByReference(ctx context.Context, reference string) (domain.Payment, error)
	MarkFailed(ctx context.Context, reference, description string, callbackAt *time.Time) error
	Complete(ctx context.Context, callback domain.PaymentCallback, at time.Time, tickets []domain.Ticket) error
}

type InstanceFinder interface {
	FindByID(ctx context.Context, id uint) (domain.TicketInstance, error)
}

type Gateway interface {
	Charge(ctx context.Context, amount int64, phone, reference string) (payhero.ChargeResponse, error)
}

type QRGenerator interface {
	Generate(ticketID string) (ticketqr.Code, error)
}

type TicketNotifier interface {
	TicketsIssued(ctx context.Context, to string, tickets []domain.TicketDetail)
}

type PaymentService struct {
	repo      PaymentRepository
	instances InstanceFinder
	users     UserRepository
	gateway   Gateway
	qr        QRGenerator
	notifier  TicketNotifier
	now       func() time.Time
}

func NewPaymentService(
	repo PaymentRepository,
	instances InstanceFinder,
	users UserRepository,
	gateway Gateway,
	qr QRGenerator,
	notifier TicketNotifier,
) *PaymentService {
	return &PaymentService{
		repo:      repo,
		instances: instances,
		users:     users,
		gateway:   gateway,
		qr:        qr,
		notifier:  notifier,
		now:       time.Now,
	}
}

// Initiate prices the cart, records a pending payment and asks the gateway to
// push a charge to the phone. Nothing reaches the gateway unless the phone
// number and cart are valid.
func (s *PaymentService) Initiate(ctx context.Context, userID uint, phone string, cart domain.Cart) (domain.Payment, payhero.ChargeResponse, error) {
	if !domain.ValidPhoneNumber(phone) {
		return domain.Payment{}, nil, ErrInvalidPhone
	}
	if err := cart.Validate(); err != nil {
		return domain.Payment{}, nil, err
	}

	instances, err := s.resolveInstances(ctx, cart)
	if err != nil {
		return domain.Payment{}, nil, err
	}

	total, err := cart.Total(instances)
	if err != nil {
		return domain.Payment{}, nil, err
	}

	payment, err := s.repo.Create(ctx, domain.Payment{
		UserID:            userID,
		ExternalReference: uuid.NewString(),
		Amount:            total,
		PhoneNumber:       phone,
		Status:            domain.PaymentPending,
		Cart:              cart,
	})
	if err != nil {
		return domain.Payment{}, nil, fmt.Errorf("s.repo.Create -> %w", err)
	}

	resp, err := s.gateway.Charge(ctx, total.IntPart(), phone, payment.ExternalReference)
	if err != nil {
		metrics.TrackPayment(metrics.PaymentGatewayError)
		zap.L().Error("payment gateway charge failed",
			zap.String("reference", payment.ExternalReference), zap.Error(err))

		// The request may already be cancelled; the payment must not stay pending.
		markErr := s.repo.MarkFailed(context.WithoutCancel(ctx), payment.ExternalReference, err.Error(), nil)
		if markErr != nil {
			zap.L().Error("failed to mark payment failed",
				zap.String("reference", payment.ExternalReference), zap.Error(markErr))
		}

		return domain.Payment{}, nil, fmt.Errorf("s.gateway.Charge -> %w", errors.Join(ErrGateway, err))
	}

	metrics.TrackPayment(metrics.PaymentInitiated)

	return payment, resp, nil
}

// HandleCallback applies the gateway verdict. A payment leaves pending at
// most once; repeated or concurrent callbacks get ErrPaymentNotPending and
// change nothing.
func (s *PaymentService) HandleCallback(ctx context.Context, callback domain.PaymentCallback) (domain.Payment, error) {
	if callback.ExternalReference == "" {
		return domain.Payment{}, ErrMissingReference
	}

	payment, err := s.repo.FindByReference(ctx, callback.ExternalReference)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("s.repo.FindByReference -> %w", err)
	}
	if !payment.IsPending() {
		metrics.TrackPayment(metrics.PaymentReplayed)
		return domain.Payment{}, ErrPaymentNotPending
	}

	now := s.now().UTC()

	if !callback.Succeeded() {
		if err = s.repo.MarkFailed(ctx, payment.ExternalReference, callback.ResultDescription, &now); err != nil {
			return domain.Payment{}, fmt.Errorf("s.repo.MarkFailed -> %w", err)
		}
		metrics.TrackPayment(metrics.PaymentFailed)

		payment.Status = domain.PaymentFailed
		payment.ResultDescription = callback.ResultDescription
		payment.CallbackReceivedAt = &now

		return payment, nil
	}

	details, err := s.issueTickets(ctx, payment, now)
	if err != nil {
		return domain.Payment{}, err
	}

	tickets := make([]domain.Ticket, len(details))
	for i, d := range details {
		tickets[i] = d.Ticket
	}

	if err = s.repo.Complete(ctx, callback, now, tickets); err != nil {
		return domain.Payment{}, fmt.Errorf("s.repo.Complete -> %w", err)
	}
	metrics.TrackPayment(metrics.PaymentSucceeded)
	metrics.TrackTicketsIssued(len(tickets))

	zap.L().Info("payment completed",
		zap.String("reference", payment.ExternalReference), zap.Int("tickets", len(tickets)))

	if len(details) > 0 && details[0].OwnerEmail != "" {
		s.notifier.TicketsIssued(ctx, details[0].OwnerEmail, details)
	}

	payment.Status = domain.PaymentSuccess
	payment.GatewayReference = callback.GatewayReference
	payment.ResultDescription = callback.ResultDescription
	payment.CallbackReceivedAt = &now

	return payment, nil
}

// GetPayment returns the payment only to its owner.
func (s *PaymentService) GetPayment(ctx context.Context, userID uint, reference string) (domain.Payment, error) {
	payment, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("s.repo.FindByReference -> %w", err)
	}
	if payment.UserID != userID {
		return domain.Payment{}, ErrPaymentNotFound
	}

	return payment, nil
}

func (s *PaymentService) resolveInstances(ctx context.Context, cart domain.Cart) (map[uint]domain.TicketInstance, error) {
	instances := make(map[uint]domain.TicketInstance, len(cart))
	for _, item := range cart {
		if _, ok := instances[item.InstanceID]; ok {
			continue
		}

		instance, err := s.instances.FindByID(ctx, item.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("s.instances.FindByID -> %w", err)
		}
		instances[item.InstanceID] = instance
	}

	return instances, nil
}

// issueTickets builds, without persisting, quantity tickets per cart item.
// An instance deleted since purchase yields orphaned tickets.
func (s *PaymentService) issueTickets(ctx context.Context, payment domain.Payment, now time.Time) ([]domain.TicketDetail, error) {
	var ownerEmail string
	owner, err := s.users.FindByID(ctx, payment.UserID)
	switch {
	case err == nil:
		ownerEmail = owner.Email
	case errors.Is(err, repository.ErrUserNotFound):
	default:
		return nil, fmt.Errorf("s.users.FindByID -> %w", err)
	}

	details := make([]domain.TicketDetail, 0, payment.Cart.TicketCount())
	for _, item := range payment.Cart {
		var (
			instanceID *uint
			name       = domain.RemovedInstanceName
			capacity   int
		)

		instance, err := s.instances.FindByID(ctx, item.InstanceID)
		switch {
		case err == nil:
			id := instance.ID
			instanceID = &id
			name = instance.Name
			capacity = instance.Capacity
		case errors.Is(err, repository.ErrTicketInstanceNotFound):
			zap.L().Warn("issuing orphaned tickets, instance was deleted",
				zap.String("reference", payment.ExternalReference), zap.Uint("instance_id", item.InstanceID))
		default:
			return nil, fmt.Errorf("s.instances.FindByID -> %w", err)
		}

		for i := 0; i < item.Quantity; i++ {
			id := domain.NewTicketID()
			code, err := s.qr.Generate(id)
			if err != nil {
				return nil, fmt.Errorf("s.qr.Generate -> %w", err)
			}

			details = append(details, domain.TicketDetail{
				Ticket: domain.Ticket{
					ID:           id,
					UserID:       payment.UserID,
					InstanceID:   instanceID,
					Tier:         item.Tier,
					QRCodeURL:    code.VerifyURL,
					QRCodeBase64: code.Base64(),
					CreatedAt:    now,
				},
				InstanceName: name,
				Capacity:     capacity,
				OwnerEmail:   ownerEmail,
			})
		}
	}

	return details, nil
}
