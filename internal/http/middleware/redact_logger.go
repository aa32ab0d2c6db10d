// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, the access logger of the API. It
// attaches the request-scoped logger returned by LoggerFrom and, once the
// handler chain is done, writes one "http_request" line with PII scrubbed
// from the path, query and header values. Bodies are never logged.
//
// Contact payloads are full of emails and phone numbers, and contact IDs are
// UUIDs, so all three are replaced by typed placeholders such as
// "[REDACTED:email]". Credentials in Authorization, Cookie and Set-Cookie
// (plus RedactOptions.MaskHeaders) are replaced wholesale.
package middleware

import (
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-api-response/internal/observability"
	"github.com/tbourn/go-api-response/response"
)

// maxQueryLogLength caps the bytes of raw query logged per request.
const maxQueryLogLength = 2048

// piiRules run in order. UUIDs go first so the phone rule never sees their
// digit groups; phone goes last as the loosest pattern.
var piiRules = []struct {
	re          *regexp.Regexp
	placeholder string
}{
	{regexp.MustCompile(`(?i)\b[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}\b`), "[REDACTED:id]"},
	{regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`), "[REDACTED:email]"},
	{regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`), "[REDACTED:phone]"},
}

// scrubPII replaces every UUID, email address and phone number in s.
func scrubPII(s string) string {
	for _, r := range piiRules {
		if s == "" {
			return s
		}
		s = r.re.ReplaceAllString(s, r.placeholder)
	}
	return s
}

// truncate cuts s to max bytes plus an ellipsis; max <= 0 disables it.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}

// RedactOptions configures RedactingLogger.
type RedactOptions struct {
	// MaskHeaders are extra header names (case-insensitive) logged as
	// "[REDACTED]".
	MaskHeaders []string
	// SkipPaths are raw URL paths (e.g. "/health") whose access line is not
	// written. The scoped logger is still attached.
	SkipPaths []string
}

// headerMask is the set of lower-cased header names that are never logged.
type headerMask map[string]struct{}

func newHeaderMask(extra []string) headerMask {
	m := headerMask{"authorization": {}, "cookie": {}, "set-cookie": {}}
	for _, h := range extra {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			m[h] = struct{}{}
		}
	}
	return m
}

// dict renders h as a zerolog dictionary with masked or scrubbed values.
func (m headerMask) dict(h http.Header) *zerolog.Event {
	d := zerolog.Dict()
	for k, vv := range h {
		if _, masked := m[strings.ToLower(k)]; masked {
			d.Str(k, "[REDACTED]")
			continue
		}
		d.Str(k, scrubPII(strings.Join(vv, ", ")))
	}
	return d
}

// RedactingLogger returns the access-log middleware. The access line is
// logged at info, warn for 4xx and error for 5xx, and carries error_kind when
// the chain recorded an error with Fail.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	mask := newHeaderMask(opts.MaskHeaders)
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()

		reqID := c.Writer.Header().Get(requestIDHeader)
		if reqID == "" {
			reqID = c.GetHeader(requestIDHeader)
		}
		uid, _ := userIDFromCtx(c)
		traceID, spanID := observability.TraceIDs(c.Request.Context())

		l := log.With().
			Str("request_id", reqID).
			Str("user_id", uid).
			Str("trace_id", traceID).
			Str("span_id", spanID).
			Logger()
		c.Set(loggerKey, &l)
		// Code below the handlers (GORM's logger) finds it via zerolog.Ctx.
		c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))

		c.Next()

		if _, ok := skip[c.Request.URL.Path]; ok {
			return
		}

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		if last := c.Errors.Last(); last != nil {
			ev = ev.Str("error_kind", response.KindOf(last.Err).String())
		}

		ev.
			Str("method", c.Request.Method).
			Str("route", c.FullPath()).
			Str("path", scrubPII(c.Request.URL.Path)).
			Str("query", truncate(scrubPII(c.Request.URL.RawQuery), maxQueryLogLength)).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Dict("headers", mask.dict(c.Request.Header)).
			Msg("http_request")
	}
}
