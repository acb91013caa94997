package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type clientInfo struct {
	last  time.Time
	count int
}

// localLimiter is a fixed window counter per key, kept in memory. Expired
// windows are swept once per window so idle clients don't pile up.
type localLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientInfo
	max       int
	window    time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func newLocalLimiter(maxRequests int, window time.Duration) *localLimiter {
	return &localLimiter{
		clients: make(map[string]*clientInfo),
		max:     maxRequests,
		window:  window,
		now:     time.Now,
	}
}

// allow counts a request for key and reports whether it fits the window.
func (l *localLimiter) allow(key string) bool {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.Sub(l.lastSweep) > l.window {
		for k, ci := range l.clients {
			if now.Sub(ci.last) > l.window {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	ci, ok := l.clients[key]
	if !ok || now.Sub(ci.last) > l.window {
		l.clients[key] = &clientInfo{last: now, count: 1}
		return true
	}
	ci.count++
	return ci.count <= l.max
}

func (l *localLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

// SimpleRateLimit is the in-process limiter used when Redis isn't configured.
// It blocks clients that send more than maxRequests per window.
func SimpleRateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	return newLocalLimiter(maxRequests, window).handler()
}

func (l *localLimiter) handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			RLBlocked.WithLabelValues(c.FullPath()).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		RLRequests.WithLabelValues(c.FullPath()).Inc()
		c.Next()
	}
}

// APIRateLimit picks the Redis limiter when available, the in-process one otherwise.
func APIRateLimit(l *RateLimiter, maxRequests int, window time.Duration) gin.HandlerFunc {
	if l.Enabled() {
		return l.ByIP(maxRequests, window)
	}
	return SimpleRateLimit(maxRequests, window)
}
