package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/TheBreeze12/lifehub-backend-sub000/internal/api/response"
	"github.com/TheBreeze12/lifehub-backend-sub000/internal/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	// Per-user limits
	UserRequestsPerMinute int64
	UserRequestsPerHour   int64

	// Per-IP limits
	IPRequestsPerMinute int64

	// AI generation endpoint limits (stricter)
	AIGenerationPerMinute int64
}

// DefaultRateLimitConfig returns default rate limit configuration
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		UserRequestsPerMinute: 60,
		UserRequestsPerHour:   1000,
		IPRequestsPerMinute:   100,
		AIGenerationPerMinute: 5,
	}
}

// RateLimiter enforces windowed request counters backed by Redis
type RateLimiter struct {
	client *redis.Client
	config *RateLimitConfig
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(client *redis.Client, config *RateLimitConfig) *RateLimiter {
	if config == nil {
		config = DefaultRateLimitConfig()
	}
	return &RateLimiter{
		client: client,
		config: config,
	}
}

// quota is one counter to enforce: a Redis key, its ceiling and its window.
type quota struct {
	key    string
	limit  int64
	window time.Duration
}

// enforce walks the quotas in order and aborts with 429 on the first one
// exceeded. Redis failures fail open so an outage never blocks traffic.
func (rl *RateLimiter) enforce(c *gin.Context, quotas []quota, message string) bool {
	ctx := c.Request.Context()
	for _, q := range quotas {
		allowed, retryAfter, err := rl.take(ctx, q)
		if err != nil {
			logger.Error("限流检查失败", zap.Error(err), zap.String("key", q.key))
			continue
		}
		if !allowed {
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, response.Error(4290, message))
			return false
		}
	}
	return true
}

// RateLimitMiddleware applies the per-IP and, when authenticated, per-user
// request quotas.
func (rl *RateLimiter) RateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		quotas := []quota{
			{fmt.Sprintf("ratelimit:ip:%s:minute", c.ClientIP()), rl.config.IPRequestsPerMinute, time.Minute},
		}
		if userID, ok := GetUserID(c); ok {
			quotas = append(quotas,
				quota{fmt.Sprintf("ratelimit:user:%d:minute", userID), rl.config.UserRequestsPerMinute, time.Minute},
				quota{fmt.Sprintf("ratelimit:user:%d:hour", userID), rl.config.UserRequestsPerHour, time.Hour},
			)
		}

		if rl.enforce(c, quotas, "请求过于频繁，请稍后再试") {
			c.Next()
		}
	}
}

// AIGenerationRateLimitMiddleware applies the stricter AI quota. Anonymous
// callers (the optional-auth analysis endpoints) are limited per IP instead
// of per user.
func (rl *RateLimiter) AIGenerationRateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var key string
		if userID, ok := GetUserID(c); ok {
			key = fmt.Sprintf("ratelimit:ai:user:%d:minute", userID)
		} else {
			key = fmt.Sprintf("ratelimit:ai:ip:%s:minute", c.ClientIP())
		}

		quotas := []quota{{key, rl.config.AIGenerationPerMinute, time.Minute}}
		if rl.enforce(c, quotas, "AI生成请求过于频繁，请稍后再试") {
			c.Next()
		}
	}
}

// take increments the counter behind q and reports whether the request fits
// the window. Returns (allowed, retryAfterSeconds, error).
func (rl *RateLimiter) take(ctx context.Context, q quota) (bool, int64, error) {
	pipe := rl.client.Pipeline()
	incrCmd := pipe.Incr(ctx, q.key)
	ttlCmd := pipe.TTL(ctx, q.key)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, fmt.Errorf("限流管道执行失败: %w", err)
	}

	count := incrCmd.Val()
	ttl := ttlCmd.Val()

	// TTL < 0 means the key is fresh (or lost its expiry); (re)arm the window.
	if ttl < 0 {
		if err := rl.client.Expire(ctx, q.key, q.window).Err(); err != nil {
			logger.Warn("设置限流键过期时间失败", zap.Error(err), zap.String("key", q.key))
		}
		ttl = q.window
	}

	if count > q.limit {
		retryAfter := int64(ttl.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		return false, retryAfter, nil
	}
	return true, 0, nil
}

// Remaining returns how many requests are left on a key within its window.
func (rl *RateLimiter) Remaining(ctx context.Context, key string, limit int64) (int64, error) {
	count, err := rl.client.Get(ctx, key).Int64()
	if err == redis.Nil {
		return limit, nil
	}
	if err != nil {
		return 0, err
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
