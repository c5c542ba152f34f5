package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/request"
	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/payhero"
	"github.com/darkorder/ticketing-api/internal/service"
)

type PaymentService interface {
	Initiate(ctx context.Context, userID uint, phone string, cart domain.Cart) (domain.Payment, payhero.ChargeResponse, error)
	HandleCallback(ctx context.Context, callback domain.PaymentCallback) (domain.Payment, error)
	GetPayment(ctx context.Context, userID uint, reference string) (domain.Payment, error)
}

type PaymentHandler struct {
	svc PaymentService
}

func NewPaymentHandler(svc PaymentService) *PaymentHandler {
	return &PaymentHandler{
		svc: svc,
	}
}

// HandlePurchase godoc
// @Summary      Buy tickets with M-Pesa
// @Description  Prices the cart and pushes an STK prompt to the phone. Tickets are issued by the gateway callback.
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request   body      request.PurchaseRequest true "request body"
// @Success      200      {object}   response.PurchaseResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /purchase [post]
// @Security     BearerAuth
func (h *PaymentHandler) HandlePurchase(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.PurchaseRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	payment, gatewayResp, err := h.svc.Initiate(ctx.Request.Context(), userID, req.PhoneNumber, req.ToCart())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTicketInstanceNotFound):
			response.RenderErr(ctx, response.ErrMissing(service.ErrTicketInstanceNotFound))
		case errors.Is(err, service.ErrInvalidPhone),
			errors.Is(err, domain.ErrEmptyCart),
			errors.Is(err, domain.ErrUnknownTier),
			errors.Is(err, domain.ErrTierNotOnSale),
			errors.Is(err, domain.ErrInvalidQuantity):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		default:
			err = fmt.Errorf("v1.HandlePurchase -> h.svc.Initiate -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.PurchaseResponse{
		Success:         true,
		Reference:       payment.ExternalReference,
		Status:          payment.Status,
		Amount:          payment.Amount.StringFixed(2),
		GatewayResponse: gatewayResp,
	})
}

// HandleGetPayment godoc
// @Summary      Poll a payment
// @Tags         payments
// @Produce      json
// @Param        reference   path      string  true  "Payment reference"
// @Success      200      {object}   domain.Payment
// @Failure      401      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /payments/{reference} [get]
// @Security     BearerAuth
func (h *PaymentHandler) HandleGetPayment(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	reference := ctx.Param("reference")
	payment, err := h.svc.GetPayment(ctx.Request.Context(), userID, reference)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("payment", "reference", reference))
			return
		}

		err = fmt.Errorf("v1.HandleGetPayment -> h.svc.GetPayment -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, payment)
}

// HandlePayHeroCallback godoc
// @Summary      PayHero payment result webhook
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request   body      request.PayHeroCallback true "request body"
// @Success      200      {object}   response.CallbackResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      409      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /api/payhero/callback [post]
func (h *PaymentHandler) HandlePayHeroCallback(ctx *gin.Context) {
	var req request.PayHeroCallback
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	callback := req.ToDomain()
	payment, err := h.svc.HandleCallback(ctx.Request.Context(), callback)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMissingReference):
			response.RenderErr(ctx, response.ErrBadRequest(err))
		case errors.Is(err, service.ErrPaymentNotFound):
			response.RenderErr(ctx, response.ErrNotFound("payment", "reference", callback.ExternalReference))
		case errors.Is(err, service.ErrPaymentNotPending):
			response.RenderErr(ctx, response.ErrConflict(service.ErrPaymentNotPending))
		default:
			err = fmt.Errorf("v1.HandlePayHeroCallback -> h.svc.HandleCallback -> %w", err)
			response.RenderErr(ctx, response.ErrInternalServerError(err))
		}
		return
	}

	ctx.JSON(http.StatusOK, response.CallbackResponse{
		Success:   true,
		Reference: payment.ExternalReference,
		Status:    payment.Status,
	})
}
