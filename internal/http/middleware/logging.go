// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file holds request correlation and panic recovery:
//
//   - RequestID() gives every request an X-Request-ID, reusing a well-formed
//     inbound value and minting a UUID otherwise.
//   - Recovery() turns a panic into the fallback 500 envelope.
//   - LoggerFrom() returns the request-scoped logger set by RedactingLogger.
//
// Mount order: RequestID, Responder, Identity, RedactingLogger, Recovery,
// ErrorHandler. Panics and classified errors then log with the request id.
package middleware

import (
	"fmt"
	"regexp"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	requestIDKey    = "requestID"
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"
)

// requestIDPattern bounds inbound ids so they are safe to echo and log.
var requestIDPattern = regexp.MustCompile(`^[A-Za-z0-9._:\-]{1,128}$`)

// RequestID stores the correlation id under "requestID" and echoes it in the
// X-Request-ID response header. Inbound ids that are empty, longer than 128
// bytes or contain anything beyond [A-Za-z0-9._:-] are replaced.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(requestIDHeader)
		if !requestIDPattern.MatchString(rid) {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// Recovery logs the panic with its stack on the request's logger and renders
// the fallback envelope through the error boundary. Under debug the envelope
// carries "panic: <value>". A response that already started is left as is.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			LoggerFrom(c).Error().
				Interface("panic", rec).
				Str("stack", string(debug.Stack())).
				Msg("panic recovered")

			if c.Writer.Written() {
				c.Abort()
				return
			}
			err := fmt.Errorf("panic: %v", rec)
			_ = c.Error(err)
			renderError(c, err)
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped logger. Without RedactingLogger it
// returns the global logger, so the result is never nil.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}
