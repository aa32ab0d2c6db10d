package response

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/render"
)

// Response is a finalized HTTP response: a status code, headers and either a
// JSON body or raw content (RespondWithFile).
type Response struct {
	StatusCode int
	Headers    map[string]string
	// Body is serialized as JSON when Content is nil.
	Body any
	// ContentType and Content are set for raw responses only.
	ContentType string
	Content     io.Reader
}

// Envelope returns the JSON envelope carried by r, if any.
func (r *Response) Envelope() (Envelope, bool) {
	env, ok := r.Body.(Envelope)
	return env, ok
}

// IsRaw reports whether r bypasses the JSON envelope.
func (r *Response) IsRaw() bool { return r.Content != nil }

// renderer picks the gin renderer for r.
func (r *Response) renderer() render.Render {
	if r.Content != nil {
		return render.Reader{
			ContentType:   r.ContentType,
			ContentLength: -1,
			Reader:        r.Content,
		}
	}
	return render.JSON{Data: r.Body}
}

// Render writes r through gin. Headers are applied before the body.
// Statuses that do not allow a body (e.g. 204) get neither a body nor a
// Content-Type.
func (r *Response) Render(c *gin.Context) {
	for k, v := range r.Headers {
		c.Header(k, v)
	}
	if !bodyAllowedForStatus(r.StatusCode) {
		c.Status(r.StatusCode)
		c.Writer.WriteHeaderNow()
		return
	}
	c.Render(r.StatusCode, r.renderer())
}

// Abort is Render followed by c.Abort, for middleware that must stop the chain.
func (r *Response) Abort(c *gin.Context) {
	c.Abort()
	r.Render(c)
}

// Write writes r to any http.ResponseWriter, for hosts not using gin.
func (r *Response) Write(w http.ResponseWriter) error {
	h := w.Header()
	for k, v := range r.Headers {
		h.Set(k, v)
	}
	if !bodyAllowedForStatus(r.StatusCode) {
		w.WriteHeader(r.StatusCode)
		return nil
	}
	rr := r.renderer()
	rr.WriteContentType(w)
	w.WriteHeader(r.StatusCode)
	return rr.Render(w)
}

// bodyAllowedForStatus mirrors net/http: 1xx, 204 and 304 carry no body.
func bodyAllowedForStatus(status int) bool {
	switch {
	case status >= 100 && status <= 199:
		return false
	case status == http.StatusNoContent, status == http.StatusNotModified:
		return false
	}
	return true
}
