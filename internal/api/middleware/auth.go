package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/pkg/jwthelper"
)

const (
	CtxKeyUserID = "userID"
	CtxKeyRole   = "role"
	CtxKeyClaims = "claims"
)

var (
	errMissingToken     = errors.New("missing bearer token")
	errRevokedToken     = errors.New("token has been revoked")
	errUserAgentChanged = errors.New("token was issued to a different user agent")
)

type TokenRevocationChecker interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

type Authenticator struct {
	key     []byte
	revoked TokenRevocationChecker
}

// NewAuthenticator checks HS256 tokens signed with key. revoked may be nil.
func NewAuthenticator(key string, revoked TokenRevocationChecker) *Authenticator {
	return &Authenticator{
		key:     []byte(key),
		revoked: revoked,
	}
}

// VerifyJWT reads the token from the Authorization header, or from the token
// query parameter for browser WebSocket clients that cannot set headers.
func (a *Authenticator) VerifyJWT() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token := bearerToken(ctx)
		if token == "" {
			response.RenderErr(ctx, response.ErrUnauthorized(errMissingToken))
			return
		}

		claims, err := jwthelper.ParseToken(a.key, token)
		if err != nil {
			response.RenderErr(ctx, response.ErrUnauthorized(err))
			return
		}

		if claims.UserAgent != ctx.Request.UserAgent() {
			response.RenderErr(ctx, response.ErrUnauthorized(errUserAgentChanged))
			return
		}

		if a.revoked != nil {
			revoked, err := a.revoked.IsRevoked(ctx.Request.Context(), claims.ID)
			if err != nil {
				response.RenderErr(ctx, response.ErrInternalServerError(fmt.Errorf("a.revoked.IsRevoked -> %w", err)))
				return
			}
			if revoked {
				response.RenderErr(ctx, response.ErrUnauthorized(errRevokedToken))
				return
			}
		}

		ctx.Set(CtxKeyUserID, claims.UserID)
		ctx.Set(CtxKeyRole, claims.Role)
		ctx.Set(CtxKeyClaims, claims)
		ctx.Next()
	}
}

// RequireRole must run after VerifyJWT.
func RequireRole(role string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if ctx.GetString(CtxKeyRole) != role {
			response.RenderErr(ctx, response.ErrPermissionDenied(fmt.Errorf("role %q required", role)))
			return
		}

		ctx.Next()
	}
}

func bearerToken(ctx *gin.Context) string {
	header := ctx.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}

	return ctx.Query("token")
}
