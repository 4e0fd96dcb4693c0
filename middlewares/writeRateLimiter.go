package middlewares

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRateLimitPrefix namespaces the per-caller counters in Redis.
const DefaultRateLimitPrefix = "hrcases:ratelimit:write"

// WriteRateLimiter allows each caller at most limit requests per window.
// Callers are identified by the authenticated user_id when present and by
// client IP otherwise. Redis failures let the request through.
func WriteRateLimiter(client *redis.Client, prefix string, limit int, window time.Duration, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := c.ClientIP()
		if userID, ok := c.Get("user_id"); ok {
			if s, ok := userID.(string); ok && s != "" {
				caller = "user:" + s
			}
		}
		key := prefix + ":" + caller
		ctx := c.Request.Context()

		count, err := client.Incr(ctx, key).Result()
		if err != nil {
			logger.Warn("rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}

		// Set TTL only for the first increment (when count = 1)
		if count == 1 {
			if err := client.Expire(ctx, key, window).Err(); err != nil {
				logger.Warn("rate limiter could not set window", zap.String("key", key), zap.Error(err))
			}
		}

		if count > int64(limit) {
			retryAfter, _ := client.TTL(ctx, key).Result()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"retry_after": retryAfter.Seconds(),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
