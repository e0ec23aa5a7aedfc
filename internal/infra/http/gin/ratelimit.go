package ginserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	gin "github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// ipLimiter hands out one token bucket per client IP. Buckets idle for longer than idle
// are swept on access.
type ipLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	idle     time.Duration
	lastSeen map[string]time.Time
	limiters map[string]*rate.Limiter
	swept    time.Time
}

func newIPLimiter(perMinute int) *ipLimiter {
	burst := perMinute / 4
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
		idle:     10 * time.Minute,
		lastSeen: make(map[string]time.Time),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.swept) > l.idle {
		for key, seen := range l.lastSeen {
			if now.Sub(seen) > l.idle {
				delete(l.lastSeen, key)
				delete(l.limiters, key)
			}
		}
		l.swept = now
	}
	limiter, ok := l.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = limiter
	}
	l.lastSeen[ip] = now
	return limiter
}

// RateLimit throttles requests per client IP. A non-positive perMinute disables it.
func RateLimit(perMinute int, logger *slog.Logger) gin.HandlerFunc {
	if perMinute <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	limiter := newIPLimiter(perMinute)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if !limiter.get(ip, time.Now()).Allow() {
			if logger != nil {
				logger.WarnContext(c.Request.Context(), "rate limit exceeded", "ip", ip)
			}
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, try again later", "code": "rate_limited"})
			return
		}
		c.Next()
	}
}
