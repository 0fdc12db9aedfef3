package ratelimit

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"mediareport/pkg/metrics"
)

type RateLimitConfig struct {
	RPS             float64
	Burst           int
	CleanupInterval time.Duration
	MaxAge          time.Duration
	// Paths restricts limiting to these route patterns. Empty limits every route.
	Paths []string
}

func DefaultConfig() RateLimitConfig {
	return RateLimitConfig{
		RPS:             5.0,
		Burst:           10,
		CleanupInterval: 5 * time.Minute,
		MaxAge:          10 * time.Minute,
	}
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// clients holds one token bucket per remote address.
type clients struct {
	mu    sync.Mutex
	byIP  map[string]*client
	limit rate.Limit
	burst int
}

func newClients(cfg RateLimitConfig) *clients {
	return &clients{
		byIP:  make(map[string]*client),
		limit: rate.Limit(cfg.RPS),
		burst: cfg.Burst,
	}
}

func (s *clients) get(ip string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.byIP[ip]
	if !ok {
		c = &client{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.byIP[ip] = c
	}
	c.lastSeen = now
	return c.limiter
}

func (s *clients) sweep(now time.Time, maxAge time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for ip, c := range s.byIP {
		if now.Sub(c.lastSeen) > maxAge {
			delete(s.byIP, ip)
		}
	}
}

// RateLimitMiddleware limits requests per client IP. The sweeper goroutine
// stops when ctx is done.
func RateLimitMiddleware(ctx context.Context, config RateLimitConfig) gin.HandlerFunc {
	defaults := DefaultConfig()
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = defaults.CleanupInterval
	}
	if config.MaxAge <= 0 {
		config.MaxAge = defaults.MaxAge
	}

	set := newClients(config)
	limited := make(map[string]struct{}, len(config.Paths))
	for _, p := range config.Paths {
		limited[p] = struct{}{}
	}

	go func() {
		ticker := time.NewTicker(config.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				set.sweep(now, config.MaxAge)
			}
		}
	}()

	return func(c *gin.Context) {
		if len(limited) > 0 {
			if _, ok := limited[c.FullPath()]; !ok {
				c.Next()
				return
			}
		}

		ip := c.ClientIP()
		if ip == "" {
			ip = c.RemoteIP()
		}

		now := time.Now()
		limiter := set.get(ip, now)
		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Burst))

		r := limiter.ReserveN(now, 1)
		delay := r.DelayFrom(now)
		if !r.OK() {
			delay = time.Second
		}
		if !r.OK() || delay > 0 {
			r.CancelAt(now)
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(delay.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"status":  "error",
				"message": "rate limit exceeded",
				"error":   "too many requests",
			})
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		c.Header("X-RateLimit-Remaining", strconv.Itoa(int(math.Max(0, limiter.TokensAt(now)))))
		c.Next()
	}
}
