// Package ratelimit implements a Redis fixed-window request limiter.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyPrefix namespaces limiter counters.
const keyPrefix = "storefront:ratelimit:"

// fixedWindowScript increments the counter and arms its expiry on first use,
// atomically. Returns 1 when the request is allowed, 0 otherwise.
const fixedWindowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
	return 0
end
return 1
`

// evaler is the subset of the Redis client used by the limiter.
type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Limiter allows at most limit requests per key in each window.
type Limiter struct {
	rdb    evaler
	limit  int
	window time.Duration
}

// New creates a fixed-window limiter. Windows shorter than a second are
// rounded up to one second.
func New(rdb evaler, limit int, window time.Duration) *Limiter {
	if window < time.Second {
		window = time.Second
	}
	return &Limiter{rdb: rdb, limit: limit, window: window}
}

// Allow counts a request for key and reports whether it is within the limit.
func (l *Limiter) Allow(ctx context.Context, key string) (bool, error) {
	res, err := l.rdb.Eval(ctx, fixedWindowScript, []string{keyPrefix + key}, l.limit, int(l.window.Seconds())).Int()
	if err != nil {
		return false, fmt.Errorf("ratelimit: eval %s: %w", key, err)
	}
	return res == 1, nil
}
