package v1

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
	"github.com/darkorder/ticketing-api/internal/service"
)

func newPaymentRouter(svc PaymentService) *gin.Engine {
	h := NewPaymentHandler(svc)

	r := gin.New()
	r.POST("/api/payhero/callback", h.HandlePayHeroCallback)
	r.POST("/purchase", withClaims(testUserID, domain.RoleBuyer), h.HandlePurchase)
	r.GET("/payments/:reference", withClaims(testUserID, domain.RoleBuyer), h.HandleGetPayment)

	return r
}

func purchaseBody(phone string) map[string]interface{} {
	return map[string]interface{}{
		"phoneNumber": phone,
		"cart": []map[string]interface{}{
			{"instance_id": 1, "tier": "vip", "quantity": 2},
		},
	}
}

func TestPaymentHandler_HandlePurchase(t *testing.T) {
	cart := domain.Cart{{InstanceID: 1, Tier: domain.TierVIP, Quantity: 2}}

	tests := []struct {
		name       string
		body       interface{}
		setup      func(svc *mockPaymentService)
		wantStatus int
	}{
		{
			name: "pending",
			body: purchaseBody("254712345678"),
			setup: func(svc *mockPaymentService) {
				svc.On("Initiate", mock.Anything, testUserID, "254712345678", cart).Return(
					domain.Payment{
						ExternalReference: "ref-1",
						Status:            domain.PaymentPending,
						Amount:            decimal.NewFromInt(3000),
					},
					payhero.ChargeResponse{"success": true},
					nil,
				)
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "empty cart",
			body:       map[string]interface{}{"phoneNumber": "254712345678", "cart": []interface{}{}},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad tier",
			body: map[string]interface{}{
				"phoneNumber": "254712345678",
				"cart":        []map[string]interface{}{{"instance_id": 1, "tier": "gold", "quantity": 1}},
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "bad phone",
			body: purchaseBody("0712345678"),
			setup: func(svc *mockPaymentService) {
				svc.On("Initiate", mock.Anything, testUserID, "0712345678", cart).
					Return(domain.Payment{}, nil, service.ErrInvalidPhone)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "tier not on sale",
			body: purchaseBody("254712345678"),
			setup: func(svc *mockPaymentService) {
				svc.On("Initiate", mock.Anything, testUserID, "254712345678", cart).
					Return(domain.Payment{}, nil, fmt.Errorf("cart.Total -> %w", domain.ErrTierNotOnSale))
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "unknown instance",
			body: purchaseBody("254712345678"),
			setup: func(svc *mockPaymentService) {
				svc.On("Initiate", mock.Anything, testUserID, "254712345678", cart).
					Return(domain.Payment{}, nil, fmt.Errorf("s.instances.FindByID -> %w", service.ErrTicketInstanceNotFound))
			},
			wantStatus: http.StatusNotFound,
		},
		{
			name: "gateway down",
			body: purchaseBody("254712345678"),
			setup: func(svc *mockPaymentService) {
				svc.On("Initiate", mock.Anything, testUserID, "254712345678", cart).
					Return(domain.Payment{}, nil, errors.Join(service.ErrGateway, errors.New("502")))
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPaymentService)
			if tt.setup != nil {
				tt.setup(svc)
			}

			rec := doJSON(t, newPaymentRouter(svc), http.MethodPost, "/purchase", tt.body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_HandlePurchase_Body(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("Initiate", mock.Anything, testUserID, "254712345678", mock.Anything).Return(
		domain.Payment{ExternalReference: "ref-1", Status: domain.PaymentPending, Amount: decimal.NewFromInt(3000)},
		payhero.ChargeResponse{"CheckoutRequestID": "ws_CO_1"},
		nil,
	)

	rec := doJSON(t, newPaymentRouter(svc), http.MethodPost, "/purchase", purchaseBody("254712345678"))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp response.PurchaseResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ref-1", resp.Reference)
	assert.Equal(t, domain.PaymentPending, resp.Status)
	assert.Equal(t, "3000.00", resp.Amount)
	assert.Equal(t, "ws_CO_1", resp.GatewayResponse["CheckoutRequestID"])
}

func TestPaymentHandler_HandlePayHeroCallback(t *testing.T) {
	const body = `{"status":true,"response":{"ExternalReference":"ref-1","ResultCode":0,
		"ResultDesc":"ok","Status":"Success","MpesaReceiptNumber":"QK1"}}`
	want := domain.PaymentCallback{
		ExternalReference: "ref-1",
		ResultCode:        0,
		ResultDescription: "ok",
		Status:            "Success",
		GatewayReference:  "QK1",
	}

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "applied", wantStatus: http.StatusOK},
		{name: "unknown reference", err: fmt.Errorf("s.repo.FindByReference -> %w", service.ErrPaymentNotFound), wantStatus: http.StatusNotFound},
		{name: "replayed", err: service.ErrPaymentNotPending, wantStatus: http.StatusConflict},
		{name: "store failure", err: errors.New("db down"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockPaymentService)
			svc.On("HandleCallback", mock.Anything, want).
				Return(domain.Payment{ExternalReference: "ref-1", Status: domain.PaymentSuccess}, tt.err)

			rec := doJSON(t, newPaymentRouter(svc), http.MethodPost, "/api/payhero/callback", body)

			assert.Equal(t, tt.wantStatus, rec.Code)
			svc.AssertExpectations(t)
		})
	}
}

func TestPaymentHandler_HandlePayHeroCallback_MissingReference(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("HandleCallback", mock.Anything, mock.Anything).Return(domain.Payment{}, service.ErrMissingReference)

	rec := doJSON(t, newPaymentRouter(svc), http.MethodPost, "/api/payhero/callback", `{"status":false,"response":{}}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPaymentHandler_HandleGetPayment(t *testing.T) {
	svc := new(mockPaymentService)
	svc.On("GetPayment", mock.Anything, testUserID, "ref-1").
		Return(domain.Payment{ExternalReference: "ref-1", Status: domain.PaymentSuccess}, nil)
	svc.On("GetPayment", mock.Anything, testUserID, "ref-2").Return(domain.Payment{}, service.ErrPaymentNotFound)

	r := newPaymentRouter(svc)

	rec := doJSON(t, r, http.MethodGet, "/payments/ref-1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"success"`)

	rec = doJSON(t, r, http.MethodGet, "/payments/ref-2", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
