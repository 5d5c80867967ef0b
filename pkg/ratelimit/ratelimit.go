package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	extratelimit "github.com/vnmchuo/ratelimiter"
)

// Limiter throttles job submissions per client by characters of text
// submitted per minute. It is a thin wrapper around github.com/vnmchuo/ratelimiter.
type Limiter struct {
	store extratelimit.Limiter
}

func NewLimiter(rdb *redis.Client, charsPerMinute int64) *Limiter {
	store := extratelimit.NewRedisStore(rdb,
		extratelimit.WithLimit(int(charsPerMinute)),
		extratelimit.WithWindow(time.Minute),
	)
	return &Limiter{store: store}
}

func NewTestLimiter(store extratelimit.Limiter) *Limiter {
	return &Limiter{store: store}
}

func key(clientID string) string {
	return fmt.Sprintf("ratelimit:submit:%s", clientID)
}

// Allow reports whether clientID may submit a text of chars characters.
func (l *Limiter) Allow(ctx context.Context, clientID string, chars int) (bool, error) {
	res, err := l.store.AllowN(ctx, key(clientID), chars)
	if err != nil {
		return false, err
	}
	return res.Allowed, nil
}
