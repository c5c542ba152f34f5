package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/repository/dao"
)

type mockPaymentDAO struct {
	mock.Mock
}

func (m *mockPaymentDAO) Insert(ctx context.Context, payment dao.Payment) (dao.Payment, error) {
	args := m.Called(ctx, payment)
	if fn, ok := args.Get(0).(func(dao.Payment) dao.Payment); ok {
		return fn(payment), args.Error(1)
	}
	return args.Get(0).(dao.Payment), args.Error(1)
}

func (m *mockPaymentDAO) FindByReference(ctx context.Context, reference string) (dao.Payment, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(dao.Payment), args.Error(1)
}

func (m *mockPaymentDAO) MarkFailed(ctx context.Context, reference, description string, callbackAt *time.Time) error {
	return m.Called(ctx, reference, description, callbackAt).Error(0)
}

func (m *mockPaymentDAO) Complete(ctx context.Context, reference, gatewayRef, description string, callbackAt time.Time, tickets []dao.Ticket) error {
	return m.Called(ctx, reference, gatewayRef, description, callbackAt, tickets).Error(0)
}

func (m *mockPaymentDAO) CountByStatus(ctx context.Context) (map[dao.PaymentStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[dao.PaymentStatus]int64), args.Error(1)
}

func TestPaymentRepository_Create_StoresCart(t *testing.T) {
	ctx := context.Background()
	cart := domain.Cart{{InstanceID: 1, Tier: domain.TierVIP, Quantity: 2}}

	var stored dao.Payment
	d := new(mockPaymentDAO)
	d.On("Insert", ctx, mock.Anything).Return(func(p dao.Payment) dao.Payment {
		stored = p
		p.ID = 11
		return p
	}, nil)

	got, err := NewPaymentRepository(d).Create(ctx, domain.Payment{
		UserID:            7,
		ExternalReference: "ref-1",
		Amount:            decimal.NewFromInt(3000),
		PhoneNumber:       "254712345678",
		Status:            domain.PaymentPending,
		Cart:              cart,
	})
	require.NoError(t, err)

	assert.Equal(t, dao.PaymentPending, stored.Status)
	assert.JSONEq(t, `[{"instance_id":1,"tier":"vip","quantity":2}]`, stored.Cart)
	assert.Equal(t, uint(11), got.ID)
	assert.Equal(t, cart, got.Cart)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(3000)))
}

func TestPaymentRepository_Complete(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 10, 31, 19, 0, 0, 0, time.UTC)
	instanceID := uint(1)

	d := new(mockPaymentDAO)
	d.On("Complete", ctx, "ref-1", "QK1", "ok", at, []dao.Ticket{{
		ID:               "t-1",
		UserID:           7,
		TicketInstanceID: &instanceID,
		Tier:             "vip",
		QRCodeURL:        "https://tickets.example.com/ticket/verify/t-1",
		QRCodeBase64:     "png",
		CreatedAt:        at,
	}}).Return(dao.ErrPaymentNotPending)

	err := NewPaymentRepository(d).Complete(ctx, domain.PaymentCallback{
		ExternalReference: "ref-1",
		GatewayReference:  "QK1",
		ResultDescription: "ok",
	}, at, []domain.Ticket{{
		ID:           "t-1",
		UserID:       7,
		InstanceID:   &instanceID,
		Tier:         domain.TierVIP,
		QRCodeURL:    "https://tickets.example.com/ticket/verify/t-1",
		QRCodeBase64: "png",
		CreatedAt:    at,
	}})

	assert.ErrorIs(t, err, ErrPaymentNotPending)
	d.AssertExpectations(t)
}

func TestPaymentRepository_CountByStatus(t *testing.T) {
	ctx := context.Background()
	d := new(mockPaymentDAO)
	d.On("CountByStatus", ctx).Return(map[dao.PaymentStatus]int64{dao.PaymentSuccess: 3, dao.PaymentFailed: 1}, nil)

	got, err := NewPaymentRepository(d).CountByStatus(ctx)
	require.NoError(t, err)

	assert.Equal(t, map[domain.PaymentStatus]int64{domain.PaymentSuccess: 3, domain.PaymentFailed: 1}, got)
}
