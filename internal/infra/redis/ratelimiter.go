package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"bookline/internal/domain"
	"bookline/internal/ratelimit"
)

const (
	defaultLimitPerSec int64 = 100
	backoffStep              = 10 * time.Millisecond
	backoffMax               = 50 * time.Millisecond
	windowSeconds            = 1
)

var allowScript = goredis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[2])
end
if current > tonumber(ARGV[1]) then
  return 0
end
return 1
`)

var _ ratelimit.RateLimiter = (*RedisRateLimiter)(nil)

// RedisRateLimiter enforces per-second send budgets per delivery channel,
// shared across all worker instances through Redis. Each channel can carry
// its own budget since the downstream providers rate-limit independently.
type RedisRateLimiter struct {
	client       *goredis.Client
	defaultLimit int64
	limits       map[string]int64
	now          func() time.Time
	sleep        func(ctx context.Context, d time.Duration) error
	script       *goredis.Script
}

// NewRedisRateLimiter builds a limiter with one budget for every channel and
// optional per-channel overrides. An override of zero or less falls back to
// the default budget.
func NewRedisRateLimiter(client *goredis.Client, defaultPerSec int, overrides map[domain.Channel]int) (*RedisRateLimiter, error) {
	return newRedisRateLimiter(
		client,
		int64(defaultPerSec),
		overrides,
		time.Now,
		sleepWithContext,
	)
}

func newRedisRateLimiter(
	client *goredis.Client,
	defaultPerSec int64,
	overrides map[domain.Channel]int,
	nowFn func() time.Time,
	sleepFn func(ctx context.Context, d time.Duration) error,
) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if defaultPerSec <= 0 {
		defaultPerSec = defaultLimitPerSec
	}
	if nowFn == nil {
		nowFn = time.Now
	}
	if sleepFn == nil {
		sleepFn = sleepWithContext
	}

	limits := make(map[string]int64, len(overrides))
	for channel, limit := range overrides {
		if limit <= 0 {
			continue
		}
		limits[normalizeChannel(channel.String())] = int64(limit)
	}

	return &RedisRateLimiter{
		client:       client,
		defaultLimit: defaultPerSec,
		limits:       limits,
		now:          nowFn,
		sleep:        sleepFn,
		script:       allowScript,
	}, nil
}

func (r *RedisRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	if r == nil || r.client == nil || r.script == nil {
		return false, fmt.Errorf("rate limiter is not initialized")
	}

	normalized := normalizeChannel(channel)
	if normalized == "" {
		return false, fmt.Errorf("channel is required")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	limit := r.defaultLimit
	if override, ok := r.limits[normalized]; ok {
		limit = override
	}

	key := fmt.Sprintf("notify:ratelimit:%s:%d", normalized, r.now().UTC().Unix())
	result, err := r.script.Run(ctx, r.client, []string{key}, limit, windowSeconds).Int()
	if err != nil {
		return false, fmt.Errorf("failed to evaluate rate limit: %w", err)
	}

	return result == 1, nil
}

func (r *RedisRateLimiter) Wait(ctx context.Context, channel string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	backoff := backoffStep
	for {
		allowed, err := r.Allow(ctx, channel)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}

		backoff += backoffStep
		if backoff > backoffMax {
			backoff = backoffMax
		}
	}
}

func normalizeChannel(channel string) string {
	return strings.ToLower(strings.TrimSpace(channel))
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
