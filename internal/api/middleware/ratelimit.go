package middleware

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/darkorder/ticketing-api/internal/api/handler/v1/response"
)

const rateLimitKeyPrefix = "ticketing:ratelimit:"

var errRateLimited = errors.New("rate limit exceeded")

// RateLimit allows limit requests per window per client IP and route, using
// a fixed window counter in redis. It is a no-op without redis, and fails
// open when redis errors.
func RateLimit(rdb redis.Cmdable, limit int, window time.Duration) gin.HandlerFunc {
	if rdb == nil || limit <= 0 || window <= 0 {
		return func(ctx *gin.Context) { ctx.Next() }
	}

	return func(ctx *gin.Context) {
		bucket := time.Now().UnixNano() / int64(window)
		key := fmt.Sprintf("%s%s:%s:%d", rateLimitKeyPrefix, ctx.FullPath(), ctx.ClientIP(), bucket)

		n, err := rdb.Incr(ctx.Request.Context(), key).Result()
		if err != nil {
			zap.L().Warn("rate limiter unavailable", zap.Error(err))
			ctx.Next()
			return
		}
		if n == 1 {
			if err = rdb.Expire(ctx.Request.Context(), key, window).Err(); err != nil {
				zap.L().Warn("rate limiter failed to set expiry", zap.String("key", key), zap.Error(err))
			}
		}

		if n > int64(limit) {
			response.RenderErr(ctx, response.ErrTooManyRequests(errRateLimited))
			return
		}

		ctx.Next()
	}
}
