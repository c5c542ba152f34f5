package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/request"
	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/service"
)

type CatalogService interface {
	ListInstances(ctx context.Context) ([]domain.TicketInstance, error)
	CreateInstance(ctx context.Context, instance domain.TicketInstance) (domain.TicketInstance, error)
	DeleteInstance(ctx context.Context, id uint) (domain.TicketInstance, error)
	Dashboard(ctx context.Context) (domain.DashboardStats, error)
}

type CatalogHandler struct {
	svc CatalogService
}

func NewCatalogHandler(svc CatalogService) *CatalogHandler {
	return &CatalogHandler{
		svc: svc,
	}
}

// HandleListInstances godoc
// @Summary      List ticket instances on sale
// @Description  Used by both the buyer catalog and the staff instance manager.
// @Tags         tickets
// @Produce      json
// @Success      200      {array}    domain.TicketInstance
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /tickets [get]
// @Security     BearerAuth
func (h *CatalogHandler) HandleListInstances(ctx *gin.Context) {
	instances, err := h.svc.ListInstances(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleListInstances -> h.svc.ListInstances -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, instances)
}

// HandleCreateInstance godoc
// @Summary      Create a ticket instance
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request   body      request.CreateInstanceRequest true "request body"
// @Success      201      {object}   response.CreateInstanceResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      403      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/create-ticket-instance [post]
// @Security     BearerAuth
func (h *CatalogHandler) HandleCreateInstance(ctx *gin.Context) {
	var req request.CreateInstanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	created, err := h.svc.CreateInstance(ctx.Request.Context(), req.ToDomain())
	if err != nil {
		err = fmt.Errorf("v1.HandleCreateInstance -> h.svc.CreateInstance -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusCreated, response.CreateInstanceResponse{
		Success: true,
		ID:      created.ID,
	})
}

// HandleDeleteInstance godoc
// @Summary      Delete a ticket instance
// @Description  Tickets already issued for the instance are kept.
// @Tags         admin
// @Produce      json
// @Param        id   path      int  true  "Instance ID"
// @Success      200      {object}   response.SuccessResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/delete-instance/{id} [post]
// @Security     BearerAuth
func (h *CatalogHandler) HandleDeleteInstance(ctx *gin.Context) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 32)
	if err != nil || id == 0 {
		response.RenderErr(ctx, response.ErrBadRequest(errors.New("invalid instance id")))
		return
	}

	if _, err = h.svc.DeleteInstance(ctx.Request.Context(), uint(id)); err != nil {
		if errors.Is(err, service.ErrTicketInstanceNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("ticket instance", "id", id))
			return
		}

		err = fmt.Errorf("v1.HandleDeleteInstance -> h.svc.DeleteInstance -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.SuccessResponse{Success: true})
}

// HandleDashboard godoc
// @Summary      Sales and admission counters
// @Tags         admin
// @Produce      json
// @Success      200      {object}   domain.DashboardStats
// @Failure      500      {object}   response.Err
// @Router       /admin/dashboard [get]
// @Security     BearerAuth
func (h *CatalogHandler) HandleDashboard(ctx *gin.Context) {
	stats, err := h.svc.Dashboard(ctx.Request.Context())
	if err != nil {
		err = fmt.Errorf("v1.HandleDashboard -> h.svc.Dashboard -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, stats)
}
