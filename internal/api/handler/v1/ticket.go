package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/ticketpdf"
	"github.com/darkorder/ticketing-api/internal/service"
)

type TicketService interface {
	ListForUser(ctx context.Context, userID uint) ([]domain.TicketDetail, error)
	RenderForUser(ctx context.Context, userID uint, ticketID string) ([]byte, error)
	Verify(ctx context.Context, ticketID string) (domain.TicketDetail, error)
}

type TicketHandler struct {
	svc TicketService
}

func NewTicketHandler(svc TicketService) *TicketHandler {
	return &TicketHandler{
		svc: svc,
	}
}

// HandleMyTickets godoc
// @Summary      List the caller's tickets
// @Tags         tickets
// @Produce      json
// @Success      200      {array}    response.Ticket
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /my-tickets [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleMyTickets(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	tickets, err := h.svc.ListForUser(ctx.Request.Context(), userID)
	if err != nil {
		err = fmt.Errorf("v1.HandleMyTickets -> h.svc.ListForUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	resp := make([]response.Ticket, len(tickets))
	for i, t := range tickets {
		resp[i] = response.NewTicket(t, true)
	}

	ctx.JSON(http.StatusOK, resp)
}

// HandleDownloadTicket godoc
// @Summary      Download a ticket as PDF
// @Tags         tickets
// @Produce      application/pdf
// @Param        id   path      string  true  "Ticket ID"
// @Success      200
// @Failure      401      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /download-ticket/{id} [get]
// @Security     BearerAuth
func (h *TicketHandler) HandleDownloadTicket(ctx *gin.Context) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	ticketID := ctx.Param("id")
	pdf, err := h.svc.RenderForUser(ctx.Request.Context(), userID, ticketID)
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("ticket", "id", ticketID))
			return
		}

		err = fmt.Errorf("v1.HandleDownloadTicket -> h.svc.RenderForUser -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, ticketpdf.FileName(ticketID)))
	ctx.Data(http.StatusOK, "application/pdf", pdf)
}

// HandleVerifyTicket godoc
// @Summary      Public lookup behind the ticket QR code
// @Tags         tickets
// @Produce      json
// @Param        id   path      string  true  "Ticket ID"
// @Success      200      {object}   response.VerifyResponse
// @Failure      404      {object}   response.VerifyResponse
// @Failure      500      {object}   response.Err
// @Router       /ticket/verify/{id} [get]
func (h *TicketHandler) HandleVerifyTicket(ctx *gin.Context) {
	ticket, err := h.svc.Verify(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTicketNotFound) {
			ctx.JSON(http.StatusNotFound, response.VerifyResponse{
				Valid:   false,
				Message: service.MsgTicketInvalid,
			})
			return
		}

		err = fmt.Errorf("v1.HandleVerifyTicket -> h.svc.Verify -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	t := response.NewTicket(ticket, false)
	t.Email = ""
	ctx.JSON(http.StatusOK, response.VerifyResponse{
		Valid:  true,
		Ticket: &t,
	})
}
