package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/request"
	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/config"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/jwthelper"
	"github.com/darkorder/ticketing-api/internal/service"
)

type AuthService interface {
	Signup(ctx context.Context, email, pin string) (domain.User, error)
	Signin(ctx context.Context, email, pin string) (domain.User, error)
	AdminSignin(ctx context.Context, email, pin string) (domain.User, error)
	ForgotPIN(ctx context.Context, email string) error
	Logout(ctx context.Context, jti string, ttl time.Duration) error
}

type AuthHandler struct {
	conf *config.APIConfig
	svc  AuthService
}

func NewAuthHandler(conf *config.APIConfig, svc AuthService) *AuthHandler {
	return &AuthHandler{
		conf: conf,
		svc:  svc,
	}
}

// HandleSignup godoc
// @Summary      Signup a new buyer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.SignupRequest true "request body"
// @Success      201      {object}   response.AuthResponse
// @Failure      400      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /signup [post]
func (h *AuthHandler) HandleSignup(ctx *gin.Context) {
	var req request.SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Signup(ctx.Request.Context(), req.Email, req.PIN)
	if err != nil {
		if errors.Is(err, service.ErrUserEmailExists) || errors.Is(err, service.ErrInvalidPIN) {
			response.RenderErr(ctx, response.ErrBadRequest(err))
			return
		}

		err = fmt.Errorf("v1.HandleSignup -> h.svc.Signup -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	h.renderToken(ctx, http.StatusCreated, user)
}

// HandleSignin godoc
// @Summary      Signin a buyer
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.SigninRequest true "request body"
// @Success      200      {object}   response.AuthResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /signin [post]
func (h *AuthHandler) HandleSignin(ctx *gin.Context) {
	var req request.SigninRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.Signin(ctx.Request.Context(), req.Email, req.PIN)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrWrongPIN) {
			response.RenderErr(ctx, response.ErrWrongCredentials(service.ErrWrongPIN))
			return
		}

		err = fmt.Errorf("v1.HandleSignin -> h.svc.Signin -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	h.renderToken(ctx, http.StatusOK, user)
}

// HandleAdminLogin godoc
// @Summary      Signin a staff member
// @Tags         admin
// @Accept       json
// @Produce      json
// @Param        request   body      request.SigninRequest true "request body"
// @Success      200      {object}   response.AuthResponse
// @Failure      400      {object}   response.Err
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /admin/login [post]
func (h *AuthHandler) HandleAdminLogin(ctx *gin.Context) {
	var req request.SigninRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	user, err := h.svc.AdminSignin(ctx.Request.Context(), req.Email, req.PIN)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) || errors.Is(err, service.ErrWrongPIN) || errors.Is(err, service.ErrNotAdmin) {
			response.RenderErr(ctx, response.ErrWrongCredentials(service.ErrWrongPIN))
			return
		}

		err = fmt.Errorf("v1.HandleAdminLogin -> h.svc.AdminSignin -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	h.renderToken(ctx, http.StatusOK, user)
}

// HandleForgotPIN godoc
// @Summary      Reset a PIN and email the new one
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request   body      request.ForgotPINRequest true "request body"
// @Success      200      {object}   response.SuccessResponse
// @Failure      400      {object}   response.Err
// @Failure      404      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /forgot-pin [post]
func (h *AuthHandler) HandleForgotPIN(ctx *gin.Context) {
	var req request.ForgotPINRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := req.Validate(); err != nil {
		response.RenderErr(ctx, response.ErrBadRequest(err))
		return
	}

	if err := h.svc.ForgotPIN(ctx.Request.Context(), req.Email); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			response.RenderErr(ctx, response.ErrNotFound("user", "email", req.Email))
			return
		}

		err = fmt.Errorf("v1.HandleForgotPIN -> h.svc.ForgotPIN -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.SuccessResponse{Success: true})
}

// HandleLogout godoc
// @Summary      Revoke the current token
// @Tags         auth
// @Produce      json
// @Success      200      {object}   response.SuccessResponse
// @Failure      401      {object}   response.Err
// @Failure      500      {object}   response.Err
// @Router       /logout [post]
// @Security     BearerAuth
func (h *AuthHandler) HandleLogout(ctx *gin.Context) {
	claims, respErr := getClaimsFromContext(ctx)
	if respErr != nil {
		response.RenderErr(ctx, respErr)
		return
	}

	if err := h.svc.Logout(ctx.Request.Context(), claims.ID, claims.TTL(time.Now())); err != nil {
		err = fmt.Errorf("v1.HandleLogout -> h.svc.Logout -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(http.StatusOK, response.SuccessResponse{Success: true})
}

func (h *AuthHandler) renderToken(ctx *gin.Context, status int, user domain.User) {
	token, err := jwthelper.GenerateToken([]byte(h.conf.JWTSigningKey), user.ID, user.Role, ctx.Request.UserAgent(), h.conf.JWTTTL)
	if err != nil {
		err = fmt.Errorf("v1.renderToken -> jwthelper.GenerateToken -> %w", err)
		response.RenderErr(ctx, response.ErrInternalServerError(err))
		return
	}

	ctx.JSON(status, response.AuthResponse{
		Success: true,
		Token:   token,
		User:    user,
	})
}
