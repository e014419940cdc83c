package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// KeyFunc extracts the rate-limiting key from a request, usually the
// client IP or a trusted forwarding header.
type KeyFunc func(c *gin.Context) string

// ClientIPKey keys the limiter by gin's resolved client IP, or by the
// named header when one is configured.
func ClientIPKey(header string) KeyFunc {
	return func(c *gin.Context) string {
		if header != "" {
			if v := c.GetHeader(header); v != "" {
				return v
			}
		}
		return c.ClientIP()
	}
}

// keyedLimiter stores one token bucket per key.
type keyedLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.Mutex
	r        rate.Limit
	b        int
}

func (k *keyedLimiter) get(key string) *rate.Limiter {
	k.mu.Lock()
	defer k.mu.Unlock()

	limiter, ok := k.limiters[key]
	if !ok {
		limiter = rate.NewLimiter(k.r, k.b)
		k.limiters[key] = limiter
	}
	return limiter
}

// RateLimiter is a middleware limiting each key to r requests per
// second with a burst of b.
func RateLimiter(r rate.Limit, b int, key KeyFunc) gin.HandlerFunc {
	kl := &keyedLimiter{limiters: make(map[string]*rate.Limiter), r: r, b: b}
	return func(c *gin.Context) {
		if !kl.get(key(c)).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}
