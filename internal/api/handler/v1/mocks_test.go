package v1

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darkorder/ticketing-api/internal/api/middleware"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/jwthelper"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
)

const testUserID uint = 7

func init() {
	gin.SetMode(gin.TestMode)
}

// withClaims stands in for VerifyJWT.
func withClaims(userID uint, role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		claims := &jwthelper.CustomClaims{UserID: userID, Role: role}
		claims.ID = "jti-1"
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
		ctx.Set(middleware.CtxKeyUserID, userID)
		ctx.Set(middleware.CtxKeyRole, role)
		ctx.Set(middleware.CtxKeyClaims, claims)
		ctx.Next()
	}
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	return rec
}

type mockAuthService struct {
	mock.Mock
}

func (m *mockAuthService) Signup(ctx context.Context, email, pin string) (domain.User, error) {
	args := m.Called(ctx, email, pin)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockAuthService) Signin(ctx context.Context, email, pin string) (domain.User, error) {
	args := m.Called(ctx, email, pin)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockAuthService) AdminSignin(ctx context.Context, email, pin string) (domain.User, error) {
	args := m.Called(ctx, email, pin)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockAuthService) ForgotPIN(ctx context.Context, email string) error {
	args := m.Called(ctx, email)
	return args.Error(0)
}

func (m *mockAuthService) Logout(ctx context.Context, jti string, ttl time.Duration) error {
	args := m.Called(ctx, jti, ttl)
	return args.Error(0)
}

type mockCatalogService struct {
	mock.Mock
}

func (m *mockCatalogService) ListInstances(ctx context.Context) ([]domain.TicketInstance, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.TicketInstance), args.Error(1)
}

func (m *mockCatalogService) CreateInstance(ctx context.Context, instance domain.TicketInstance) (domain.TicketInstance, error) {
	args := m.Called(ctx, instance)
	return args.Get(0).(domain.TicketInstance), args.Error(1)
}

func (m *mockCatalogService) DeleteInstance(ctx context.Context, id uint) (domain.TicketInstance, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(domain.TicketInstance), args.Error(1)
}

func (m *mockCatalogService) Dashboard(ctx context.Context) (domain.DashboardStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(domain.DashboardStats), args.Error(1)
}

type mockTicketService struct {
	mock.Mock
}

func (m *mockTicketService) ListForUser(ctx context.Context, userID uint) ([]domain.TicketDetail, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.TicketDetail), args.Error(1)
}

func (m *mockTicketService) RenderForUser(ctx context.Context, userID uint, ticketID string) ([]byte, error) {
	args := m.Called(ctx, userID, ticketID)
	pdf, _ := args.Get(0).([]byte)
	return pdf, args.Error(1)
}

func (m *mockTicketService) Verify(ctx context.Context, ticketID string) (domain.TicketDetail, error) {
	args := m.Called(ctx, ticketID)
	return args.Get(0).(domain.TicketDetail), args.Error(1)
}

type mockPaymentService struct {
	mock.Mock
}

func (m *mockPaymentService) Initiate(ctx context.Context, userID uint, phone string, cart domain.Cart) (domain.Payment, payhero.ChargeResponse, error) {
	args := m.Called(ctx, userID, phone, cart)
	resp, _ := args.Get(1).(payhero.ChargeResponse)
	return args.Get(0).(domain.Payment), resp, args.Error(2)
}

func (m *mockPaymentService) HandleCallback(ctx context.Context, callback domain.PaymentCallback) (domain.Payment, error) {
	args := m.Called(ctx, callback)
	return args.Get(0).(domain.Payment), args.Error(1)
}

func (m *mockPaymentService) GetPayment(ctx context.Context, userID uint, reference string) (domain.Payment, error) {
	args := m.Called(ctx, userID, reference)
	return args.Get(0).(domain.Payment), args.Error(1)
}

type mockScanService struct {
	mock.Mock
}

func (m *mockScanService) Scan(ctx context.Context, ticketID string, staffID uint) (domain.ScanOutcome, error) {
	args := m.Called(ctx, ticketID, staffID)
	return args.Get(0).(domain.ScanOutcome), args.Error(1)
}
