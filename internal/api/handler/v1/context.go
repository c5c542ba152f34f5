package v1

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
	"github.com/darkorder/ticketing-api/internal/api/middleware"
	"github.com/darkorder/ticketing-api/internal/domain"
	"github.com/darkorder/ticketing-api/internal/pkg/jwthelper"
	"github.com/darkorder/ticketing-api/internal/service"
)

var errNoClaims = errors.New("no token claims in context")

type UserService interface {
	GetUser(ctx context.Context, id uint) (domain.User, error)
}

func getClaimsFromContext(ctx *gin.Context) (*jwthelper.CustomClaims, *response.Err) {
	value, ok := ctx.Get(middleware.CtxKeyClaims)
	if !ok {
		return nil, response.ErrUnauthorized(errNoClaims)
	}

	claims, ok := value.(*jwthelper.CustomClaims)
	if !ok {
		return nil, response.ErrUnauthorized(errNoClaims)
	}

	return claims, nil
}

func getUserIDFromContext(ctx *gin.Context) (uint, *response.Err) {
	claims, respErr := getClaimsFromContext(ctx)
	if respErr != nil {
		return 0, respErr
	}

	return claims.UserID, nil
}

// getUserFromContext loads the account behind the token, so that a token
// outliving its user is rejected.
func getUserFromContext(ctx *gin.Context, uSvc UserService) (domain.User, *response.Err) {
	userID, respErr := getUserIDFromContext(ctx)
	if respErr != nil {
		return domain.User{}, respErr
	}

	user, err := uSvc.GetUser(ctx.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			return domain.User{}, response.ErrUnauthorized(err)
		}

		err = fmt.Errorf("getUserFromContext -> uSvc.GetUser -> %w", err)
		return domain.User{}, response.ErrInternalServerError(err)
	}

	return user, nil
}
