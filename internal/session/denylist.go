package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/taskmaster-dev/task-master/backend/internal/config"
)

// Denylist remembers tokens that were logged out before they expired. An
// entry lives exactly as long as the token it revokes would have.
type Denylist struct {
	rdb     *redis.Client
	timeout time.Duration
}

func NewDenylist(cfg *config.Config, rdb *redis.Client) *Denylist {
	return &Denylist{
		rdb:     rdb,
		timeout: time.Duration(cfg.Redis.OperationExpiration) * time.Second,
	}
}

func revokedKey(jti string) string {
	return fmt.Sprintf("revoked_token_%s", jti)
}

func (d *Denylist) Revoke(jti string, until time.Time) error {
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	return d.rdb.Set(ctx, revokedKey(jti), 1, ttl).Err()
}

func (d *Denylist) IsRevoked(jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	err := d.rdb.Get(ctx, revokedKey(jti)).Err()
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, redis.Nil):
		return false, nil
	default:
		return false, err
	}
}
