package response

import (
	"fmt"
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Err struct {
	Err            error  `json:"-"`
	HTTPStatusCode int    `json:"-"`
	Success        bool   `json:"success"`
	StatusText     string `json:"status_text"`
	ErrorText      string `json:"error,omitempty"`
}

func (e *Err) Error() string {
	if e.Err == nil {
		return e.StatusText
	}

	return e.Err.Error()
}

// RenderErr logs server side failures and aborts with e as JSON body.
func RenderErr(ctx *gin.Context, e *Err) {
	fields := []zap.Field{
		zap.String("request_id", requestid.Get(ctx)),
		zap.String("path", ctx.FullPath()),
		zap.Int("status", e.HTTPStatusCode),
		zap.Error(e.Err),
	}
	if e.HTTPStatusCode >= http.StatusInternalServerError {
		zap.L().Error("request failed", fields...)
	} else {
		zap.L().Debug("request rejected", fields...)
	}

	ctx.AbortWithStatusJSON(e.HTTPStatusCode, e)
}

func newErr(err error, status int, text string) *Err {
	return &Err{
		Err:            err,
		HTTPStatusCode: status,
		StatusText:     http.StatusText(status),
		ErrorText:      text,
	}
}

func ErrBadRequest(err error) *Err {
	return newErr(err, http.StatusBadRequest, err.Error())
}

func ErrWrongCredentials(err error) *Err {
	return newErr(err, http.StatusUnauthorized, err.Error())
}

func ErrUnauthorized(err error) *Err {
	return newErr(err, http.StatusUnauthorized, "authentication required")
}

func ErrPermissionDenied(err error) *Err {
	return newErr(err, http.StatusForbidden, "permission denied")
}

func ErrNotFound(entity, field string, value interface{}) *Err {
	err := fmt.Errorf("%s with %s %v not found", entity, field, value)
	return newErr(err, http.StatusNotFound, err.Error())
}

func ErrConflict(err error) *Err {
	return newErr(err, http.StatusConflict, err.Error())
}

func ErrTooManyRequests(err error) *Err {
	return newErr(err, http.StatusTooManyRequests, "too many requests")
}

// ErrInternalServerError hides err from the client; it is only logged.
func ErrInternalServerError(err error) *Err {
	return newErr(err, http.StatusInternalServerError, "internal server error")
}

// ErrMissing is ErrNotFound for errors that already name what is missing.
func ErrMissing(err error) *Err {
	return newErr(err, http.StatusNotFound, err.Error())
}
