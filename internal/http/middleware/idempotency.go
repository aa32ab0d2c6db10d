// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file validates the Idempotency-Key header on unsafe requests. A valid
// key is stashed for handlers (GetIdempotencyKey); when the lookup reports a
// completed request for the same owner and key, the request is flagged as a
// replay (IsReplay) and excused from rate limiting. Serving the stored result
// stays with the handler and service.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-response/response"
)

// HeaderIdempotencyKey is the request header carrying the client's key.
const HeaderIdempotencyKey = "Idempotency-Key"

const (
	ctxKeyIdem       = "idem.state"
	ctxKeyRateBypass = "rate.bypass" // bool, read by RateLimiter
)

// defaultKeyPattern accepts token characters plus ':' for namespaced keys.
var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

var errInvalidIdempotencyKey = response.NewError(response.KindMalformedRequest, "invalid Idempotency-Key")

type idemState struct {
	key    string
	replay bool
}

func idemFrom(c *gin.Context) idemState {
	if v, ok := c.Get(ctxKeyIdem); ok {
		if st, ok := v.(idemState); ok {
			return st
		}
	}
	return idemState{}
}

// GetIdempotencyKey returns the validated key, if the request carried one.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	st := idemFrom(c)
	return st.key, st.key != ""
}

// IsReplay reports whether the lookup found a completed request for this
// owner and key.
func IsReplay(c *gin.Context) bool { return idemFrom(c).replay }

// IdempotencyOptions configures IdempotencyValidator.
type IdempotencyOptions struct {
	// MaxLen caps key length; <= 0 means 200.
	MaxLen int
	// Pattern restricts key characters; nil means defaultKeyPattern.
	Pattern *regexp.Regexp
	// Methods the header is honoured on; empty means POST, PUT, PATCH, DELETE.
	// On other methods the header is ignored.
	Methods []string
	// Now is the clock passed to the lookup; nil means time.Now in UTC.
	Now func() time.Time
}

// IdempotencyLookup reports whether a still-valid record exists for
// (ownerID, key) at now. TTL is the lookup's concern. A lookup error is
// logged and the request proceeds as a first attempt.
type IdempotencyLookup func(ctx context.Context, ownerID, key string, now time.Time) (exists bool, err error)

// IdempotencyValidator returns the middleware. Keys are trimmed before
// validation; an invalid key fails the request as a malformed request
// (400 "Bad request" under the default rules).
func IdempotencyValidator(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}
	now := opts.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	methods := opts.Methods
	if len(methods) == 0 {
		methods = []string{http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete}
	}
	honoured := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		honoured[strings.ToUpper(m)] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := honoured[c.Request.Method]; !ok {
			c.Next()
			return
		}
		key := strings.TrimSpace(c.GetHeader(HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			Fail(c, errInvalidIdempotencyKey)
			return
		}

		st := idemState{key: key}
		if lookup != nil {
			exists, err := lookup(c.Request.Context(), UserID(c), key, now())
			switch {
			case err != nil:
				LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
			case exists:
				st.replay = true
				c.Set(ctxKeyRateBypass, true)
			}
		}
		c.Set(ctxKeyIdem, st)
		c.Next()
	}
}
