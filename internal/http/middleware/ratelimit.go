// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds the in-memory token-bucket rate limiter. One bucket per
// caller identity (authenticated admin ID, otherwise client IP), buckets
// built on golang.org/x/time/rate, idle entries garbage collected
// opportunistically during lookups.
//
// The limiter is process-local. A single container is the deployment target
// here; a horizontally scaled fleet would need a Redis-backed limiter
// instead. It exists for abuse control on the public storefront routes, not
// as an authorization layer, and webhook deliveries bypass it entirely
// because the messaging platform disables a subscription that keeps
// answering 429.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// keyFunc maps a request to the identity string that keys its bucket. The
// result must be stable for the duration of the request.
type keyFunc func(*gin.Context) string

// KeyByUserOrIP keys buckets by the authenticated user when the JWT
// middleware has set "userID", falling back to the client IP. Keys are
// prefixed ("user:", "ip:") so the two namespaces cannot collide.
func KeyByUserOrIP() keyFunc {
	return func(c *gin.Context) string {
		if v, ok := c.Get("userID"); ok {
			if s, ok := v.(string); ok && s != "" {
				return "user:" + s
			}
		}
		return "ip:" + c.ClientIP()
	}
}

// visitor pairs a bucket with its last-seen time for idle eviction.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-key token-bucket limits. Buckets are created on
// demand in a mutex-guarded map and evicted after sitting idle for the TTL.
// Safe for concurrent use.
type RateLimiter struct {
	rps      rate.Limit
	burst    int
	keyFn    keyFunc
	mu       sync.Mutex
	visitors map[string]*visitor

	ttl      time.Duration
	cleanupN uint64
}

// NewRateLimiter builds a limiter replenishing rps tokens per second with
// the given burst capacity. A burst <= 0 is coerced to 1; an rps of 0
// admits nothing, so configuration validation rejects it upstream.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      10 * time.Minute,
	}
}

// getVisitor returns the bucket for key, creating it if absent, and runs
// the idle sweep every ~5000 lookups.
//
// The sweep must run BEFORE the requested visitor is touched, otherwise a
// stale bucket gets its lastSeen refreshed right when it was due for
// eviction.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	rl.cleanupN++
	if rl.cleanupN >= 5000 {
		for k, vv := range rl.visitors {
			if now.Sub(vv.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.cleanupN = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		lim := v.limiter
		rl.mu.Unlock()
		return lim
	}

	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	rl.mu.Unlock()
	return lim
}

// ctxKeyRateBypass marks a request as exempt from rate limiting.
const ctxKeyRateBypass = "rate_bypass"

// MarkRateBypass exempts the current request from rate limiting. The router
// applies it to webhook deliveries before the limiter runs: a throttled
// webhook is a retried then dropped customer message.
func MarkRateBypass(c *gin.Context) {
	c.Set(ctxKeyRateBypass, true)
	c.Next()
}

// IsRateBypass reports whether MarkRateBypass ran for this request.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler returns the enforcement middleware. Bypassed requests pass
// through untouched; everyone else draws a token from their bucket or gets
// a 429 with Retry-After: 1 and the standard error envelope:
//
//	{"request_id": "...", "code": "rate_limited", "message": "rate limit exceeded"}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		lim := rl.getVisitor(rl.keyFn(c))
		if lim.Allow() {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get("X-Request-ID"),
			"code":       "rate_limited",
			"message":    "rate limit exceeded",
		})
	}
}
