package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/blake-osondu/jobdroid-service/pkg/logger"
)

// RateLimiter counts requests per client inside a fixed window. It
// guards the API against a runaway client; pacing of outbound
// applications is the scheduler's job, not this limiter's.
type RateLimiter struct {
	mu        sync.Mutex
	counts    map[string]int
	windowEnd time.Time
	rate      int
	window    time.Duration
}

// NewRateLimiter creates a limiter allowing rate requests per window.
func NewRateLimiter(rate int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		counts:    make(map[string]int),
		windowEnd: time.Now().Add(window),
		rate:      rate,
		window:    window,
	}
}

// allow records one request for the client and reports whether it still
// fits in the current window.
func (l *RateLimiter) allow(client string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now()
	if now.After(l.windowEnd) {
		l.counts = make(map[string]int)
		l.windowEnd = now.Add(l.window)
	}

	if l.counts[client] >= l.rate {
		return false
	}
	l.counts[client]++
	return true
}

// RateLimit rejects clients exceeding rate requests per window with a
// 429 and a Retry-After hint.
func RateLimit(rate int, window time.Duration) gin.HandlerFunc {
	limiter := NewRateLimiter(rate, window)

	return func(c *gin.Context) {
		client := c.ClientIP()
		if !limiter.allow(client) {
			logger.Warn(c.Request.Context(), "rate limit exceeded", "client_ip", client)

			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}

		c.Next()
	}
}
