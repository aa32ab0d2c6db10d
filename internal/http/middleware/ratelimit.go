// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements a process-local token-bucket limiter keyed by caller.
// Buckets come from golang.org/x/time/rate; idle buckets are swept lazily so
// memory stays proportional to recently active callers. Rejections use the
// same envelope as every other response, with Retry-After derived from the
// bucket's actual refill delay.
//
// Replays flagged by IdempotencyValidator skip limiting entirely.
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

// msgRateLimited is the envelope message for rejected requests.
const msgRateLimited = "Too many requests"

// KeyFunc maps a request to the identity whose bucket it draws from.
type KeyFunc func(*gin.Context) string

// KeyByCaller keys buckets by the X-User-ID resolved by Identity, falling back
// to the client IP. Anonymous callers are never pooled under "demo-user".
func KeyByCaller() KeyFunc {
	return func(c *gin.Context) string {
		if uid, ok := userIDFromCtx(c); ok && uid != anonymousUser {
			return "user:" + uid
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// RateLimiter holds one token bucket per key. It is safe for concurrent use.
type RateLimiter struct {
	limit rate.Limit
	burst int
	keyFn KeyFunc

	mu        sync.Mutex
	buckets   map[string]*bucket
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

// NewRateLimiter returns a limiter refilling rps tokens per second with room
// for burst tokens. burst <= 0 is treated as 1; a nil keyFn uses KeyByCaller.
func NewRateLimiter(rps float64, burst int, keyFn KeyFunc) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	if keyFn == nil {
		keyFn = KeyByCaller()
	}
	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		keyFn:   keyFn,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
		now:     time.Now,
	}
}

// limiterFor returns the bucket for key, creating it on first use. At most
// once per idleTTL it evicts buckets idle for idleTTL or longer; the sweep
// runs before key is touched so a stale bucket for key is replaced too.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if now.Sub(rl.lastSweep) >= rl.idleTTL {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) >= rl.idleTTL {
				delete(rl.buckets, k)
			}
		}
		rl.lastSweep = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{lim: rate.NewLimiter(rl.limit, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.lim
}

// size reports the number of live buckets.
func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.buckets)
}

// IsRateBypass reports whether IdempotencyValidator marked the request as a
// replay that must not consume tokens.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// retryAfter renders a wait as whole seconds, never less than 1.
func retryAfter(d time.Duration) string {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		secs = 1
	}
	return strconv.Itoa(secs)
}

// Handler enforces the limit. A request that would have to wait for a token
// is rejected with a 429 envelope and the reservation is returned to the
// bucket.
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}

		key := rl.keyFn(c)
		res := rl.limiterFor(key).ReserveN(rl.now(), 1)
		if !res.OK() {
			rl.reject(c, key, time.Second)
			return
		}
		if delay := res.DelayFrom(rl.now()); delay > 0 {
			res.CancelAt(rl.now())
			// A zero-rate bucket never refills; there is no real wait to report.
			if delay == rate.InfDuration {
				delay = time.Second
			}
			rl.reject(c, key, delay)
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) reject(c *gin.Context, key string, wait time.Duration) {
	LoggerFrom(c).Debug().
		Str("rate_key", key).
		Dur("retry_after", wait).
		Msg("rate limited")

	c.Header("Retry-After", retryAfter(wait))
	BuilderFrom(c).
		RespondCustomError(msgRateLimited, http.StatusTooManyRequests, nil).
		Abort(c)
}
