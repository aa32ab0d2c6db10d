package response

import (
	"io"
	"maps"
	"net/http"
)

// Builder carries the status code, headers and debug flag used when a
// response is finalized. The zero value is not ready for use; call New.
type Builder struct {
	status     int
	headers    map[string]string
	debug      bool
	classifier *Classifier
}

// Option configures a Builder at construction time.
type Option func(*Builder)

// WithDebug enables the "debug" envelope key for error responses.
// Hosts derive it from configuration (see config.Config.DebugEnabled).
func WithDebug(enabled bool) Option {
	return func(b *Builder) { b.debug = enabled }
}

// WithClassifier replaces the default error classifier used by HandleError.
func WithClassifier(c *Classifier) Option {
	return func(b *Builder) {
		if c != nil {
			b.classifier = c
		}
	}
}

// New returns a Builder with status 200, no headers and debug disabled.
func New(opts ...Option) Builder {
	b := Builder{status: http.StatusOK}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// StatusCode returns the status used by the next Respond* call.
func (b Builder) StatusCode() int { return b.status }

// Headers returns a copy of the configured headers.
func (b Builder) Headers() map[string]string { return maps.Clone(b.headers) }

// Debug reports whether debug detail may be surfaced.
func (b Builder) Debug() bool { return b.debug }

// WithStatusCode returns a copy of b using code. No validation is performed.
func (b Builder) WithStatusCode(code int) Builder {
	b.status = code
	return b
}

// WithHeaders returns a copy of b whose headers are replaced by h.
func (b Builder) WithHeaders(h map[string]string) Builder {
	b.headers = maps.Clone(h)
	return b
}

// WithDebug returns a copy of b with the debug flag set.
func (b Builder) WithDebug(enabled bool) Builder {
	b.debug = enabled
	return b
}

// Respond serializes data as JSON with the current status code and headers.
func (b Builder) Respond(data any) *Response {
	return &Response{
		StatusCode: b.status,
		Headers:    maps.Clone(b.headers),
		Body:       data,
	}
}

// RespondWithData responds with success=true, an empty message and data as payload.
func (b Builder) RespondWithData(data any) *Response {
	return b.Respond(BuildEnvelope(true, data, "", nil))
}

// RespondWithMessage responds with success=true and no payload.
// The message defaults to "Ok" when omitted.
func (b Builder) RespondWithMessage(message ...string) *Response {
	return b.Respond(BuildEnvelope(true, nil, messageOr("Ok", message), nil))
}

// RespondWithMessageAndPayload responds with success=true, payload and message
// (default "Ok").
func (b Builder) RespondWithMessageAndPayload(payload any, message ...string) *Response {
	return b.Respond(BuildEnvelope(true, payload, messageOr("Ok", message), nil))
}

// RespondWithError responds with success=false. An empty message becomes
// "Error". detail is attached as "debug" only when the builder runs in
// debug mode and detail is non-nil.
func (b Builder) RespondWithError(message string, detail, payload any) *Response {
	if message == "" {
		message = "Error"
	}
	var debug any
	if b.debug {
		debug = detail
	}
	return b.Respond(BuildEnvelope(false, payload, message, debug))
}

// RespondExceptionError builds an envelope with an explicit status code,
// leaving the builder's own status untouched.
func (b Builder) RespondExceptionError(success bool, message string, statusCode int, payload any) *Response {
	return b.WithStatusCode(statusCode).Respond(BuildEnvelope(success, payload, message, nil))
}

// RespondWithFile returns content verbatim with status 200 and the given
// Content-Type. The JSON envelope and builder headers are not applied.
func (b Builder) RespondWithFile(content io.Reader, mimeType string) *Response {
	return &Response{
		StatusCode:  http.StatusOK,
		Headers:     map[string]string{"Content-Type": mimeType},
		ContentType: mimeType,
		Content:     content,
	}
}

// Classifier returns the classifier used by HandleError.
func (b Builder) Classifier() *Classifier {
	if b.classifier == nil {
		return DefaultClassifier()
	}
	return b.classifier
}

// HandleError maps err to a canonical error response using the builder's
// classifier (DefaultClassifier when none was configured).
func (b Builder) HandleError(err error) *Response {
	return b.Classifier().Handle(b, err)
}

// messageOr returns the first optional message, or def when none was given.
// An explicit empty string is returned as-is.
func messageOr(def string, message []string) string {
	if len(message) == 0 {
		return def
	}
	return message[0]
}
