package middlewares

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

// RateLimitMiddleware counts requests per client IP in a fixed window.
func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "RateLimit:" + c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if exists == 0 {
		err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err()
		if err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}

	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"error": fmt.Sprintf("Rate limit exceeded. Try again in %d seconds", int(rl.window.Seconds())),
		})
		return
	}

	c.Next()
}
