package middleware

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sniperok/internal/domain"
)

func redisLimiter(t *testing.T) *RateLimiter {
	t.Helper()
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
	}
	db := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}
	client := NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"), db)
	require.NotNil(t, client, "redis at %s not reachable", addr)
	t.Cleanup(func() { _ = client.Close() })
	return NewRateLimiter(client)
}

// Integration-style test: runs only if REDIS_ADDR env is set.
func TestRedisRateLimitIntegration(t *testing.T) {
	l := redisLimiter(t)

	// odd window so parallel runs don't share keys
	w := 3 * time.Second
	limit := 2

	r := gin.New()
	r.GET("/test", l.ByIP(limit, w), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	srv := httptest.NewServer(r)
	defer srv.Close()

	for i := 0; i < limit; i++ {
		res, err := http.Get(srv.URL + "/test")
		require.NoError(t, err)
		res.Body.Close()
		require.Equal(t, http.StatusOK, res.StatusCode)
	}

	res, err := http.Get(srv.URL + "/test")
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTooManyRequests, res.StatusCode)
}

func TestRedisGameRateLimitIntegration(t *testing.T) {
	l := redisLimiter(t)
	id := domain.Identity{UserID: uuid.NewString(), Username: "limited"}

	r := gin.New()
	r.POST("/play", func(c *gin.Context) { SetIdentity(c, id) }, l.ByUser(1, time.Minute), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/play", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "0", w.Header().Get("X-GameRateLimit-Remaining"))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/play", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}
