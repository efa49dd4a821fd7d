package api

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	rateWindow = time.Minute
	// maxTrackedClients bounds the in-process limiter table; it is reset when full.
	maxTrackedClients = 4096
)

// WindowCounter counts hits for a key within a fixed window.
type WindowCounter interface {
	IncrWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

// clientLimiters is the per-IP token bucket used when no shared counter is
// configured. Budgets are per process.
type clientLimiters struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*rate.Limiter
}

func newClientLimiters(perMinute int) *clientLimiters {
	return &clientLimiters{
		limit:    rate.Every(rateWindow / time.Duration(perMinute)),
		burst:    perMinute,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (l *clientLimiters) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.limiters[ip]
	if !ok {
		if len(l.limiters) >= maxTrackedClients {
			l.limiters = make(map[string]*rate.Limiter)
		}
		lim = rate.NewLimiter(l.limit, l.burst)
		l.limiters[ip] = lim
	}
	return lim.Allow()
}

// rateLimit caps generation requests per client IP. With a shared counter
// (redis) it uses fixed one-minute windows and lets the request through on
// counter errors; otherwise it falls back to an in-process token bucket.
func (h *Handler) rateLimit() gin.HandlerFunc {
	if h.opts.RateLimit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if h.counter == nil {
		local := newClientLimiters(h.opts.RateLimit)
		return func(c *gin.Context) {
			if !local.allow(c.ClientIP()) {
				h.rejectRateLimited(c)
				return
			}
			c.Next()
		}
	}
	return func(c *gin.Context) {
		window := time.Now().Truncate(rateWindow).Unix()
		key := "chartgen:ratelimit:" + c.ClientIP() + ":" + strconv.FormatInt(window, 10)
		n, err := h.counter.IncrWindow(c.Request.Context(), key, rateWindow)
		if err != nil {
			h.logger.Warn("rate limit check failed", "error", err)
			c.Next()
			return
		}
		if n > int64(h.opts.RateLimit) {
			h.rejectRateLimited(c)
			return
		}
		c.Next()
	}
}

func (h *Handler) rejectRateLimited(c *gin.Context) {
	h.logger.Warn("rate limit exceeded", "path", c.Request.URL.Path, "client", c.ClientIP())
	h.metrics.rateLimited.Inc()
	c.Header("Retry-After", "60")
	if c.FullPath() == "/upload" {
		h.renderError(c, http.StatusTooManyRequests, "Too many requests, please retry later.")
		c.Abort()
		return
	}
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, please retry"})
}
