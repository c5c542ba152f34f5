package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketqr"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user domain.User) (domain.User, error) {
	args := m.Called(ctx, user)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByID(ctx context.Context, id uint) (domain.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (domain.User, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockUserRepo) UpdatePINHash(ctx context.Context, id uint, pinHash string) error {
	args := m.Called(ctx, id, pinHash)
	return args.Error(0)
}

func (m *mockUserRepo) UpsertAdmin(ctx context.Context, email, pinHash string) (domain.User, error) {
	args := m.Called(ctx, email, pinHash)
	return args.Get(0).(domain.User), args.Error(1)
}

type mockSessions struct {
	mock.Mock
}

func (m *mockSessions) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

func (m *mockSessions) IsRevoked(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

type mockPINNotifier struct {
	mock.Mock
}

func (m *mockPINNotifier) PINReset(ctx context.Context, to, pin string) error {
	args := m.Called(ctx, to, pin)
	return args.Error(0)
}

type mockCatalogRepo struct {
	mock.Mock
}

func (m *mockCatalogRepo) Create(ctx context.Context, instance domain.TicketInstance) (domain.TicketInstance, error) {
	args := m.Called(ctx, instance)
	return args.Get(0).(domain.TicketInstance), args.Error(1)
}

func (m *mockCatalogRepo) FindByID(ctx context.Context, id uint) (domain.TicketInstance, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.TicketInstance), args.Error(1)
}

func (m *mockCatalogRepo) FindAll(ctx context.Context) ([]domain.TicketInstance, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TicketInstance), args.Error(1)
}

func (m *mockCatalogRepo) Delete(ctx context.Context, id uint) (domain.TicketInstance, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.TicketInstance), args.Error(1)
}

func (m *mockCatalogRepo) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockPaymentRepo struct {
	mock.Mock
}

func (m *mockPaymentRepo) Create(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	args := m.Called(ctx, payment)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockPaymentRepo) FindByReference(ctx context.Context, reference string) (domain.Payment, error) {
	args := m.Called(ctx, reference)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockPaymentRepo) MarkFailed(ctx context.Context, reference, description string, callbackAt *time.Time) error {
	args := m.Called(ctx, reference, description, callbackAt)
	return args.Error(0)
}

func (m *mockPaymentRepo) Complete(ctx context.Context, callback domain.PaymentCallback, at time.Time, tickets []domain.Ticket) error {
	args := m.Called(ctx, callback, at, tickets)
	return args.Error(0)
}

func (m *mockPaymentRepo) CountByStatus(ctx context.Context) (map[domain.PaymentStatus]int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(map[domain.PaymentStatus]int64), args.Error(1)
}

type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Charge(ctx context.Context, amount int64, phone, reference string) (payhero.ChargeResponse, error) {
	args := m.Called(ctx, amount, phone, reference)
	resp, _ := args.Get(0).(payhero.ChargeResponse)
	return resp, args.Error(1)
}

type stubQR struct{}

func (stubQR) Generate(ticketID string) (ticketqr.Code, error) {
	return ticketqr.Code{
		VerifyURL: "https://tickets.test/ticket/verify/" + ticketID,
		PNG:       []byte("png-" + ticketID),
	}, nil
}

type mockTicketNotifier struct {
	mock.Mock
}

func (m *mockTicketNotifier) TicketsIssued(ctx context.Context, to string, tickets []domain.TicketDetail) {
	m.Called(ctx, to, tickets)
}

type mockTicketRepo struct {
	mock.Mock
}

func (m *mockTicketRepo) FindByID(ctx context.Context, id string) (domain.TicketDetail, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.TicketDetail), args.Error(1)
}

func (m *mockTicketRepo) FindByUserID(ctx context.Context, userID uint) ([]domain.TicketDetail, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.TicketDetail), args.Error(1)
}

func (m *mockTicketRepo) UpdatePDFPath(ctx context.Context, id, path string) error {
	args := m.Called(ctx, id, path)
	return args.Error(0)
}

func (m *mockTicketRepo) Admit(ctx context.Context, id string, log domain.ScanLog) (bool, error) {
	args := m.Called(ctx, id, log)
	return args.Bool(0), args.Error(1)
}

func (m *mockTicketRepo) CountIssued(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTicketRepo) CountScanned(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockScanLogRepo struct {
	mock.Mock
}

func (m *mockScanLogRepo) Create(ctx context.Context, log domain.ScanLog) (domain.ScanLog, error) {
	args := m.Called(ctx, log)
	return args.Get(0).(domain.ScanLog), args.Error(1)
}

type recordingBroadcaster struct {
	outcomes []domain.ScanOutcome
}

func (b *recordingBroadcaster) Broadcast(outcome domain.ScanOutcome) {
	b.outcomes = append(b.outcomes, outcome)
}

type stubRenderer struct {
	err error
}

func (r stubRenderer) Render(ticket domain.TicketDetail) ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	return []byte("%PDF-" + ticket.ID), nil
}
