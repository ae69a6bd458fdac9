package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// visitorTTL is how long an idle client bucket survives.
	visitorTTL = 10 * time.Minute
	// sweepEvery is the number of lookups between idle-bucket sweeps.
	sweepEvery = 5000
)

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByIP buckets requests by client address ("ip:203.0.113.7"). Everyone
// behind the shared-password gate looks alike, so the address is the only
// stable identity.
func KeyByIP() keyFunc {
	return func(c *gin.Context) string {
		return "ip:" + c.ClientIP()
	}
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a process-local, per-key token bucket guarding the routes
// that call the model provider (create-egg, analyze-image, hatch-creature).
// It is cost protection, not access control. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc

	mu       sync.Mutex
	visitors map[string]*visitor
	ttl      time.Duration
	lookups  uint64
}

// NewRateLimiter builds a limiter refilling rps tokens per second up to burst.
// rps <= 0 turns the limiter off; burst <= 0 is coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		rps:      rate.Limit(rps),
		burst:    burst,
		keyFn:    keyFn,
		visitors: make(map[string]*visitor),
		ttl:      visitorTTL,
	}
}

// getVisitor returns the bucket for key, creating it if absent. Every
// sweepEvery lookups idle buckets are dropped first, so a stale bucket is
// evicted even when it is the one being requested.
func (rl *RateLimiter) getVisitor(key string) *rate.Limiter {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	rl.lookups++
	if rl.lookups >= sweepEvery {
		for k, v := range rl.visitors {
			if now.Sub(v.lastSeen) >= rl.ttl {
				delete(rl.visitors, k)
			}
		}
		rl.lookups = 0
	}

	if v, ok := rl.visitors[key]; ok {
		v.lastSeen = now
		return v.limiter
	}
	lim := rate.NewLimiter(rl.rps, rl.burst)
	rl.visitors[key] = &visitor{limiter: lim, lastSeen: now}
	return lim
}

// retryAfter reports how many whole seconds until lim has a token, without
// consuming it. Never less than 1.
func retryAfter(lim *rate.Limiter) int {
	r := lim.Reserve()
	defer r.Cancel()
	if !r.OK() {
		return 1
	}
	secs := int(math.Ceil(r.Delay().Seconds()))
	if secs < 1 {
		secs = 1
	}
	return secs
}

// Handler enforces the per-key limit. Throttled requests get
//
//	HTTP/1.1 429 Too Many Requests
//	Retry-After: <seconds>
//	{"success":false,"request_id":"...","code":"rate_limited",
//	 "error":"rate limit exceeded","message":"Too many requests, slow down"}
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	if rl.rps <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		key := rl.keyFn(c)
		lim := rl.getVisitor(key)
		if lim.Allow() {
			c.Next()
			return
		}

		wait := retryAfter(lim)
		LoggerFrom(c).Debug().Str("key", key).Int("retry_after", wait).Msg("rate limited")
		c.Header("Retry-After", strconv.Itoa(wait))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success":    false,
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "rate_limited",
			"error":      "rate limit exceeded",
			"message":    "Too many requests, slow down",
		})
	}
}
