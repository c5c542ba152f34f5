package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/repository/dao"
)

var (
	ErrPaymentNotFound   = dao.ErrPaymentNotFound
	ErrPaymentNotPending = dao.ErrPaymentNotPending
)

type PaymentDAO interface {
	Insert(ctx context.Context, payment dao.Payment) (dao.Payment, error)
	FindByReference(ctx context.Context, reference string) (dao.Payment, error)
	MarkFailed(ctx context.Context, reference, description string, callbackAt *time.Time) error
	Complete(ctx context.Context, reference, gatewayRef, description string, callbackAt time.Time, tickets []dao.Ticket) error
	CountByStatus(ctx context.Context) (map[dao.PaymentStatus]int64, error)
}

type PaymentRepository struct {
	dao PaymentDAO
}

func NewPaymentRepository(dao PaymentDAO) *PaymentRepository {
	return &PaymentRepository{
		dao: dao,
	}
}

func (r *PaymentRepository) Create(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	cart, err := json.Marshal(payment.Cart)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("json.Marshal -> %w", err)
	}

	created, err := r.dao.Insert(ctx, dao.Payment{
		UserID:            payment.UserID,
		ExternalReference: payment.ExternalReference,
		Amount:            payment.Amount,
		PhoneNumber:       payment.PhoneNumber,
		Status:            dao.PaymentStatus(payment.Status),
		Cart:              string(cart),
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.Insert -> %w", err)
	}

	return paymentDaoToDomain(created)
}

func (r *PaymentRepository) FindByReference(ctx context.Context, reference string) (domain.Payment, error) {
	found, err := r.dao.FindByReference(ctx, reference)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("r.dao.FindByReference -> %w", err)
	}

	return paymentDaoToDomain(found)
}

func (r *PaymentRepository) MarkFailed(ctx context.Context, reference, description string, callbackAt *time.Time) error {
	if err := r.dao.MarkFailed(ctx, reference, description, callbackAt); err != nil {
		return fmt.Errorf("r.dao.MarkFailed -> %w", err)
	}

	return nil
}

// Complete marks the payment successful and persists tickets atomically.
func (r *PaymentRepository) Complete(ctx context.Context, callback domain.PaymentCallback, at time.Time, tickets []domain.Ticket) error {
	rows := make([]dao.Ticket, len(tickets))
	for i, ticket := range tickets {
		rows[i] = ticketDomainToDao(ticket)
	}

	err := r.dao.Complete(ctx, callback.ExternalReference, callback.GatewayReference, callback.ResultDescription, at, rows)
	if err != nil {
		return fmt.Errorf("r.dao.Complete -> %w", err)
	}

	return nil
}

func (r *PaymentRepository) CountByStatus(ctx context.Context) (map[domain.PaymentStatus]int64, error) {
	found, err := r.dao.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("r.dao.CountByStatus -> %w", err)
	}

	counts := make(map[domain.PaymentStatus]int64, len(found))
	for status, n := range found {
		counts[domain.PaymentStatus(status)] = n
	}

	return counts, nil
}

func paymentDaoToDomain(p dao.Payment) (domain.Payment, error) {
	var cart domain.Cart
	if p.Cart != "" {
		if err := json.Unmarshal([]byte(p.Cart), &cart); err != nil {
			return domain.Payment{}, fmt.Errorf("json.Unmarshal -> %w", err)
		}
	}

	return domain.Payment{
		ID:                 p.ID,
		UserID:             p.UserID,
		ExternalReference:  p.ExternalReference,
		Amount:             p.Amount,
		PhoneNumber:        p.PhoneNumber,
		Status:             domain.PaymentStatus(p.Status),
		Cart:               cart,
		GatewayReference:   p.GatewayReference,
		ResultDescription:  p.ResultDescription,
		CreatedAt:          p.CreatedAt,
		CallbackReceivedAt: p.CallbackReceivedAt,
	}, nil
}
