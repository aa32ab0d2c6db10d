// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file is the error boundary of the API. Handlers and middleware report
// failures with Fail(c, err); ErrorHandler classifies the last recorded error
// through the request's response.Builder and renders the canonical envelope.
// Every classified error is logged, counted in api_errors_total and recorded
// on the active span.
package middleware

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-api-response/internal/observability"
	"github.com/tbourn/go-api-response/response"
)

// ctxKeyBuilder is the Gin context key holding the request's base builder.
const ctxKeyBuilder = "response.builder"

// Responder stores a base response.Builder in the Gin context. debug decides
// whether error envelopes may carry the "debug" key; a nil classifier selects
// response.DefaultClassifier.
func Responder(debug bool, classifier *response.Classifier) gin.HandlerFunc {
	base := response.New(response.WithDebug(debug), response.WithClassifier(classifier))
	return func(c *gin.Context) {
		c.Set(ctxKeyBuilder, base)
		c.Next()
	}
}

// BuilderFrom returns the request's builder with X-Request-ID attached as a
// response header. Without Responder it falls back to response.New().
func BuilderFrom(c *gin.Context) response.Builder {
	b := response.New()
	if v, ok := c.Get(ctxKeyBuilder); ok {
		if bb, ok := v.(response.Builder); ok {
			b = bb
		}
	}
	if rid := c.Writer.Header().Get(requestIDHeader); rid != "" {
		b = b.WithHeaders(map[string]string{requestIDHeader: rid})
	}
	return b
}

// errNilFailure stands in for a nil error passed to Fail.
var errNilFailure = errors.New("failure without error")

// Fail records err on the context and aborts the chain. ErrorHandler renders
// the response once control returns to it.
func Fail(c *gin.Context, err error) {
	if err == nil {
		err = errNilFailure
	}
	_ = c.Error(err)
	c.Abort()
}

// ErrorHandler renders the last error recorded with Fail (or c.Error) when
// the handler chain finished without writing a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		renderError(c, c.Errors.Last().Err)
	}
}

// renderError classifies err, emits logs, metrics and span data, and writes
// the envelope.
func renderError(c *gin.Context, err error) {
	b := BuilderFrom(c)
	rule := b.Classifier().Classify(err)
	kind := rule.Kind.String()

	apiErrors.WithLabelValues(kind, strconv.Itoa(rule.Status)).Inc()
	observability.RecordClassifiedError(c.Request.Context(), err, kind, rule.Status)

	lg := LoggerFrom(c)
	ev := lg.Warn()
	if rule.Status >= 500 {
		ev = lg.Error()
	}
	ev.Err(err).
		Str("kind", kind).
		Int("status", rule.Status).
		Msg("api error")

	b.HandleError(err).Abort(c)
}
