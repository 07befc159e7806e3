package middleware

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appErrors "github.com/noah-isme/clinic-agenda-api/pkg/errors"
	"github.com/noah-isme/clinic-agenda-api/pkg/response"
)

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("PTTL", KEYS[1])}
`)

const maxLocalVisitors = 4096

type rateLimitObserver interface {
	RecordRateLimited()
}

// RateLimiter is a fixed-window limiter backed by Redis with an in-process fallback.
type RateLimiter struct {
	rdb     *redis.Client
	limit   int
	window  time.Duration
	prefix  string
	metrics rateLimitObserver
	logger  *zap.Logger

	mu       sync.Mutex
	visitors map[string]*visitor
	now      func() time.Time
}

type visitor struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter builds a limiter allowing limit hits per window for each client key.
// A nil Redis client keeps every counter in process memory.
func NewRateLimiter(rdb *redis.Client, limit int, window time.Duration, prefix string, metrics rateLimitObserver, logger *zap.Logger) *RateLimiter {
	if limit <= 0 {
		limit = 5
	}
	if window <= 0 {
		window = 15 * time.Minute
	}
	if prefix == "" {
		prefix = "rl"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateLimiter{
		rdb:      rdb,
		limit:    limit,
		window:   window,
		prefix:   prefix,
		metrics:  metrics,
		logger:   logger,
		visitors: map[string]*visitor{},
		now:      time.Now,
	}
}

// Middleware rejects a client once it exceeds the window budget.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := rl.prefix + ":" + c.ClientIP()
		count, retryAfter := rl.hit(c.Request.Context(), key)
		if count > int64(rl.limit) {
			if rl.metrics != nil {
				rl.metrics.RecordRateLimited()
			}
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(retryAfter.Seconds()))))
			response.Abort(c, appErrors.ErrRateLimited)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) hit(ctx context.Context, key string) (int64, time.Duration) {
	if rl.rdb != nil {
		count, ttl, err := rl.incrRedis(ctx, key)
		if err == nil {
			return count, ttl
		}
		rl.logger.Warn("redis rate limiter unavailable, using local counter", zap.Error(err))
	}
	return rl.incrLocal(key)
}

func (rl *RateLimiter) incrRedis(ctx context.Context, key string) (int64, time.Duration, error) {
	res, err := fixedWindowScript.Run(ctx, rl.rdb, []string{key}, rl.window.Milliseconds()).Result()
	if err != nil {
		return 0, 0, err
	}
	values, ok := res.([]interface{})
	if !ok || len(values) != 2 {
		return 0, 0, fmt.Errorf("unexpected rate limit script result %T", res)
	}
	count, err := toInt64(values[0])
	if err != nil {
		return 0, 0, err
	}
	ttl, err := toInt64(values[1])
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		ttl = rl.window.Milliseconds()
	}
	return count, time.Duration(ttl) * time.Millisecond, nil
}

func (rl *RateLimiter) incrLocal(key string) (int64, time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	v := rl.visitors[key]
	if v == nil || !now.Before(v.resetTime) {
		if len(rl.visitors) >= maxLocalVisitors {
			rl.sweep(now)
		}
		v = &visitor{resetTime: now.Add(rl.window)}
		rl.visitors[key] = v
	}
	v.count++
	return int64(v.count), v.resetTime.Sub(now)
}

func (rl *RateLimiter) sweep(now time.Time) {
	for key, v := range rl.visitors {
		if !now.Before(v.resetTime) {
			delete(rl.visitors, key)
		}
	}
}

func toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case string:
		return strconv.ParseInt(v, 10, 64)
	default:
		return 0, fmt.Errorf("unexpected rate limit value %T", value)
	}
}
