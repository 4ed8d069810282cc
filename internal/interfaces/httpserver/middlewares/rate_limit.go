package middlewares

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// ipLimiter keeps one token bucket per client IP. Buckets refill
// continuously at the configured per-minute rate and cap at one
// minute's worth of tokens.
type ipLimiter struct {
	mu       sync.Mutex
	buckets  map[string]*tokenBucket
	capacity float64
	perSec   float64
}

type tokenBucket struct {
	tokens   float64
	refilled time.Time
}

func (l *ipLimiter) allow(key string, now time.Time) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, ok := l.buckets[key]
	if !ok {
		bucket = &tokenBucket{tokens: l.capacity, refilled: now}
		l.buckets[key] = bucket
	}

	bucket.tokens += now.Sub(bucket.refilled).Seconds() * l.perSec
	if bucket.tokens > l.capacity {
		bucket.tokens = l.capacity
	}
	bucket.refilled = now

	if bucket.tokens < 1 {
		return false
	}
	bucket.tokens--
	return true
}

// RateLimitMiddleware rejects requests beyond limitPerMinute per client
// IP with 429 and a Retry-After hint.
func RateLimitMiddleware(limitPerMinute float64) gin.HandlerFunc {
	limiter := &ipLimiter{
		buckets:  make(map[string]*tokenBucket),
		capacity: limitPerMinute,
		perSec:   limitPerMinute / 60.0,
	}

	return func(c *gin.Context) {
		if !limiter.allow(rateKey(c), time.Now()) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "too many requests",
				"kind":  "rate_limited",
			})
			return
		}
		c.Next()
	}
}

func rateKey(c *gin.Context) string {
	raw := c.ClientIP()
	if raw == "" {
		return "anonymous"
	}
	// Normalizes IPv6-mapped IPv4 addresses.
	if ip := net.ParseIP(raw); ip != nil {
		return ip.String()
	}
	return raw
}
