package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "ticketing:revoked:"

// SessionRepository keeps a denylist of signed-out token ids. A nil client
// disables it: Revoke is a no-op and nothing is ever revoked.
type SessionRepository struct {
	rdb redis.Cmdable
}

func NewSessionRepository(rdb redis.Cmdable) *SessionRepository {
	return &SessionRepository{
		rdb: rdb,
	}
}

// Revoke remembers jti until the token would have expired anyway.
func (r *SessionRepository) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if r.rdb == nil || jti == "" || ttl <= 0 {
		return nil
	}

	if err := r.rdb.Set(ctx, revokedKeyPrefix+jti, 1, ttl).Err(); err != nil {
		return fmt.Errorf("r.rdb.Set -> %w", err)
	}

	return nil
}

func (r *SessionRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if r.rdb == nil || jti == "" {
		return false, nil
	}

	err := r.rdb.Get(ctx, revokedKeyPrefix+jti).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("r.rdb.Get -> %w", err)
	}

	return true, nil
}
