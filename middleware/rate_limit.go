package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/sweetdelights/bakery-api/logger"
)

// Login attempts allowed per client address per window.
const (
	LoginRateLimit  = 5
	LoginRateWindow = time.Minute
)

// RateLimit counts requests per client IP in a fixed redis window and
// answers 429 once limit is exceeded. A nil client disables limiting and
// redis errors let the request through.
func RateLimit(client *redis.Client, scope string, limit int64, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := rateLimitKey(scope, c.ClientIP(), time.Now(), window)

		pipe := client.TxPipeline()
		incr := pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, window)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn(ctx, "rate limiter unavailable", "scope", scope, "error", err)
			c.Next()
			return
		}

		count := incr.Val()
		remaining := limit - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > limit {
			logger.Warn(ctx, "rate limit exceeded", "scope", scope, "client_ip", c.ClientIP())
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "RATE_LIMITED",
					"message": "Too many attempts, please try again later",
				},
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// rateLimitKey buckets requests into fixed windows.
func rateLimitKey(scope, clientIP string, now time.Time, window time.Duration) string {
	bucket := now.Unix() / int64(window.Seconds())
	return fmt.Sprintf("ratelimit:%s:%s:%d", scope, clientIP, bucket)
}
