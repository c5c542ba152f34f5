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
	"github.com/darkorder/ticketing-api/internal/service"
)

type ScanService interface {
	Scan(ctx context.Context, ticketID string, staffID uint) (domain.ScanOutcome, error)
}

type ScanHandler struct {
	svc ScanService
}

func NewScanHandler(svc ScanService) *ScanHandler {
	return &ScanHandler{
		svc: svc,
	}
}

// HandleScanTicket godoc
// @Summary      Admit a ticket at the door
// @Description  A ticket is admitted once. Invalid and repeated scans are answered with 200 and success false.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request   body      request.VerifyTicketRequest true "request body"
// @Success      200      {object}   response.ScanResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/verify-ticket [post]
// @Security     BearerAuth
func (h *ScanHandler) HandleScanTicket(ctx *gin.Context) {
	staffID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	var req request.VerifyTicketRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	outcome, err := h.svc.Scan(ctx.Request.Context(), req.TicketID, staffID)
	if err != nil {
		if errors.Is(err, service.ErrMissingTicketID) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleScanTicket -> h.svc.Scan -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.NewScanResponse(outcome))
}
