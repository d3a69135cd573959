package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"book-review-service/internal/adapter/gin/response"
	"book-review-service/pkg/logger"
	"book-review-service/pkg/metrics"
)

// bucketTTLSeconds is how long an idle bucket survives in Redis
const bucketTTLSeconds = 60

// tokenBucket refills at ARGV[1] tokens/second up to ARGV[2] and takes one
// token per call. Returns 1 when the request is allowed.
var tokenBucket = redis.NewScript(`
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'last_refill', 'tokens')
local last_refill = tonumber(bucket[1]) or now
local tokens = tonumber(bucket[2]) or capacity

local elapsed = math.max(0, now - last_refill)
tokens = math.min(capacity, tokens + elapsed * rate)

local allowed = 0
if tokens >= 1 then
	tokens = tokens - 1
	allowed = 1
end

redis.call('HSET', key, 'last_refill', tostring(now), 'tokens', tostring(tokens))
redis.call('EXPIRE', key, ttl)
return allowed
`)

// RateLimiterConfig holds token bucket settings.
type RateLimiterConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	BurstCapacity     int
}

// RateLimiter throttles clients with a Redis-backed token bucket per
// client IP and route.
type RateLimiter struct {
	client redis.Scripter
	clock  func(ctx context.Context) (time.Time, error)
	config RateLimiterConfig
	log    *zap.Logger
}

// NewRateLimiter creates a rate limiter. Bucket time comes from the Redis
// server clock so all replicas agree.
func NewRateLimiter(client *redis.Client, config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	return &RateLimiter{
		client: client,
		clock: func(ctx context.Context) (time.Time, error) {
			return client.Time(ctx).Result()
		},
		config: config,
		log:    log,
	}
}

// Middleware returns the gin handler. Redis failures let the request through.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl == nil || !rl.config.Enabled {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := fmt.Sprintf("ratelimit:tb:%s:%s:%s", c.Request.Method, route, c.ClientIP())

		allowed, err := rl.allow(ctx, key)
		if err != nil {
			logger.WithContext(ctx, rl.log).Warn("rate limiter redis error, allowing request",
				zap.String("key", key),
				zap.Error(err),
			)
			c.Next()
			return
		}

		if !allowed {
			metrics.IncrementRateLimited()
			c.Header("Retry-After", strconv.Itoa(rl.retryAfterSeconds()))
			response.Abort(c, http.StatusTooManyRequests, "rate_limit_exceeded",
				fmt.Sprintf("Rate limit exceeded: %.2f requests/second (burst capacity: %d)",
					rl.config.RequestsPerSecond, rl.config.BurstCapacity))
			return
		}

		c.Next()
	}
}

func (rl *RateLimiter) allow(ctx context.Context, key string) (bool, error) {
	now, err := rl.clock(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to read redis time: %w", err)
	}

	seconds := float64(now.UnixMicro()) / 1e6
	res, err := tokenBucket.Run(ctx, rl.client, []string{key},
		rl.config.RequestsPerSecond,
		rl.config.BurstCapacity,
		strconv.FormatFloat(seconds, 'f', 6, 64),
		bucketTTLSeconds,
	).Int64()
	if err != nil {
		return false, fmt.Errorf("failed to run token bucket: %w", err)
	}
	return res == 1, nil
}

func (rl *RateLimiter) retryAfterSeconds() int {
	if rl.config.RequestsPerSecond <= 0 {
		return bucketTTLSeconds
	}
	secs := int(1 / rl.config.RequestsPerSecond)
	if secs < 1 {
		secs = 1
	}
	return secs
}
