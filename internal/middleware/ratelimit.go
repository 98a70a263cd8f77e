package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/volunteerhub/pkg/errors"
	"github.com/charlesng35/volunteerhub/pkg/response"
)

// RateLimiter counts requests per key within fixed windows. It is process-local.
type RateLimiter struct {
	mu     sync.Mutex
	data   map[string]*rateCounter
	limit  int
	window time.Duration
	clock  func() time.Time
}

type rateCounter struct {
	count     int
	windowEnd time.Time
}

// NewRateLimiter constructs a limiter allowing limit requests per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		data:   make(map[string]*rateCounter),
		limit:  limit,
		window: window,
		clock:  time.Now,
	}
}

// Allow records a hit for key and reports whether it is within the limit along
// with the remaining quota and the time until the window resets.
func (l *RateLimiter) Allow(key string) (bool, int, time.Duration) {
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Expired windows are swept lazily.
	if len(l.data) > 1024 {
		for k, v := range l.data {
			if now.After(v.windowEnd) {
				delete(l.data, k)
			}
		}
	}

	ct, ok := l.data[key]
	if !ok || now.After(ct.windowEnd) {
		ct = &rateCounter{windowEnd: now.Add(l.window)}
		l.data[key] = ct
	}
	ct.count++
	return ct.count <= l.limit, max(0, l.limit-ct.count), ct.windowEnd.Sub(now)
}

// RateLimit limits requests per (client IP, route) within a fixed window. A
// non-positive limit or window disables the check.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := NewRateLimiter(maxRequests, window)

	return func(c *gin.Context) {
		allowed, remaining, resetIn := limiter.Allow(c.ClientIP() + "|" + c.FullPath())

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if !allowed {
			response.Error(c, errors.ErrTooManyRequests)
			c.Abort()
			return
		}
		c.Next()
	}
}
