package response

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvenienceWrappers_StatusAndMessage(t *testing.T) {
	b := New()
	cases := []struct {
		name    string
		resp    *Response
		status  int
		success bool
		message string
	}{
		{"ok", b.RespondOk(), http.StatusOK, true, "Ok"},
		{"created", b.RespondCreated(), http.StatusCreated, true, "Created"},
		{"created payload", b.RespondCreatedWithPayload(1), http.StatusCreated, true, "Created"},
		{"updated", b.RespondUpdated(), http.StatusAccepted, true, "Updated"},
		{"updated payload", b.RespondUpdatedWithPayload(1), http.StatusAccepted, true, "Updated"},
		{"deleted", b.RespondDeleted(), http.StatusAccepted, true, "Deleted"},
		{"deleted payload", b.RespondDeletedWithPayload(1), http.StatusAccepted, true, "Deleted"},
		{"no content", b.RespondNoContent("gone"), http.StatusNoContent, true, "gone"},
		{"unauthorized", b.RespondUnauthorized(), http.StatusUnauthorized, false, "Unauthorized"},
		{"forbidden", b.RespondForbidden(), http.StatusForbidden, false, "Forbidden"},
		{"not found", b.RespondNotFound(), http.StatusNotFound, false, "Not Found"},
		{"bad request", b.RespondBadRequest(), http.StatusBadRequest, false, "Bad Request"},
		{"not acceptable", b.RespondHTTPNotAcceptable(), http.StatusNotAcceptable, false, "HTTP Not Acceptable"},
		{"validation", b.RespondValidationError("", nil), http.StatusUnprocessableEntity, false, "Validation Error"},
		{"internal", b.RespondInternalError("", nil), http.StatusInternalServerError, false, "Internal Error"},
		{"unavailable", b.RespondServiceUnavailable("", nil), http.StatusServiceUnavailable, false, "Service Unavailable"},
		{"not implemented", b.RespondNotImplemented(), http.StatusNotImplemented, false, "Internal Error"},
		{"conflict", b.RespondResourceConflict(), http.StatusConflict, false, "Resource Already Exists"},
		{"custom", b.RespondCustomError("", http.StatusTooManyRequests, nil), http.StatusTooManyRequests, false, "Internal Error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.status, tc.resp.StatusCode)
			env, ok := tc.resp.Envelope()
			require.True(t, ok)
			assert.Equal(t, tc.success, env.Success)
			assert.Equal(t, tc.message, env.Message)
			assert.False(t, env.HasDebug())
		})
	}
}

func TestRespondOk_KeepsMessage(t *testing.T) {
	for _, msg := range []string{"fine", "", "ünïcode"} {
		r := New().RespondOk(msg)
		assert.Equal(t, http.StatusOK, r.StatusCode)
		assert.JSONEq(t, `{"success":true,"message":`+quote(msg)+`,"payload":null}`, bodyJSON(t, r))
	}
}

func TestRespondCreatedWithPayload(t *testing.T) {
	r := New().RespondCreatedWithPayload(map[string]int{"id": 1}, "done")
	assert.Equal(t, http.StatusCreated, r.StatusCode)
	assert.JSONEq(t, `{"success":true,"message":"done","payload":{"id":1}}`, bodyJSON(t, r))
}

func TestRespondResourceConflictWithData_SuccessStaysTrue(t *testing.T) {
	r := New().RespondResourceConflictWithData(map[string]string{"id": "x"}, "exists", http.StatusConflict)
	assert.Equal(t, http.StatusConflict, r.StatusCode)
	assert.JSONEq(t, `{"success":true,"message":"exists","payload":{"id":"x"}}`, bodyJSON(t, r))

	r = New().RespondResourceConflictWithData(nil, "")
	assert.Equal(t, http.StatusConflict, r.StatusCode)
	env, _ := r.Envelope()
	assert.Equal(t, "Resource Already Exists", env.Message)

	r = New().RespondResourceConflictWithData(nil, "x", http.StatusOK)
	assert.Equal(t, http.StatusOK, r.StatusCode)
}

func TestErrorWrappers_DebugDetail(t *testing.T) {
	dbg := New(WithDebug(true))
	env, _ := dbg.RespondInternalError("down", "db offline").Envelope()
	assert.Equal(t, "db offline", env.Debug)

	env, _ = dbg.RespondServiceUnavailable("", []string{"upstream"}).Envelope()
	assert.Equal(t, []string{"upstream"}, env.Debug)

	env, _ = dbg.RespondCustomError("teapot", http.StatusTeapot, "brewing").Envelope()
	assert.Equal(t, "brewing", env.Debug)

	// Explicit-message wrappers never pass detail.
	env, _ = dbg.RespondNotFound().Envelope()
	assert.False(t, env.HasDebug())

	// Production builder never leaks.
	env, _ = New().RespondInternalError("down", "db offline").Envelope()
	assert.False(t, env.HasDebug())
}

func TestRespondValidationError_Payload(t *testing.T) {
	fields := []map[string]string{{"field": "email", "message": "required"}}
	r := New().RespondValidationError("invalid", fields)
	assert.JSONEq(t,
		`{"success":false,"message":"invalid","payload":[{"field":"email","message":"required"}]}`,
		bodyJSON(t, r))
}

func quote(s string) string {
	return `"` + s + `"`
}
