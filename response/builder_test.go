package response

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bodyJSON marshals the response body the way the wire will see it.
func bodyJSON(t *testing.T, r *Response) string {
	t.Helper()
	b, err := json.Marshal(r.Body)
	require.NoError(t, err)
	return string(b)
}

func TestBuildEnvelope_DebugOnlyWhenNonNil(t *testing.T) {
	env := BuildEnvelope(true, nil, "Ok", nil)
	assert.False(t, env.HasDebug())

	b, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":true,"message":"Ok","payload":null}`, string(b))

	var nilErr error
	var nilSlice []string
	assert.False(t, BuildEnvelope(false, nil, "", nilErr).HasDebug())
	assert.False(t, BuildEnvelope(false, nil, "", nilSlice).HasDebug())

	env = BuildEnvelope(false, nil, "Error", "detail")
	b, err = json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"success":false,"message":"Error","payload":null,"debug":"detail"}`, string(b))
}

func TestNew_Defaults(t *testing.T) {
	b := New()
	assert.Equal(t, http.StatusOK, b.StatusCode())
	assert.Empty(t, b.Headers())
	assert.False(t, b.Debug())
	assert.True(t, New(WithDebug(true)).Debug())
}

func TestBuilder_IsImmutable(t *testing.T) {
	base := New()
	created := base.WithStatusCode(http.StatusCreated)
	assert.Equal(t, http.StatusOK, base.StatusCode())
	assert.Equal(t, http.StatusCreated, created.StatusCode())

	h := map[string]string{"X-Trace": "a"}
	withH := base.WithHeaders(h)
	h["X-Trace"] = "mutated"
	assert.Equal(t, "a", withH.Headers()["X-Trace"])
	assert.Empty(t, base.Headers())

	// Respond* on a derived builder does not leak into the base.
	_ = base.RespondCreated()
	assert.Equal(t, http.StatusOK, base.StatusCode())
}

func TestBuilder_WithStatusCode_NoValidation(t *testing.T) {
	r := New().WithStatusCode(799).Respond(map[string]int{"n": 1})
	assert.Equal(t, 799, r.StatusCode)
	assert.JSONEq(t, `{"n":1}`, bodyJSON(t, r))
}

func TestRespond_UsesStatusAndHeaders(t *testing.T) {
	r := New().
		WithStatusCode(http.StatusTeapot).
		WithHeaders(map[string]string{"X-Custom": "1"}).
		Respond([]int{1, 2})
	assert.Equal(t, http.StatusTeapot, r.StatusCode)
	assert.Equal(t, map[string]string{"X-Custom": "1"}, r.Headers)
	assert.False(t, r.IsRaw())
}

func TestRespondWithData(t *testing.T) {
	for _, payload := range []any{
		map[string]any{"id": 1},
		[]string{"a", "b"},
		"plain",
		nil,
	} {
		r := New().RespondWithData(payload)
		assert.Equal(t, http.StatusOK, r.StatusCode)

		env, ok := r.Envelope()
		require.True(t, ok)
		assert.True(t, env.Success)
		assert.Equal(t, "", env.Message)
		assert.Equal(t, payload, env.Payload)
		assert.False(t, env.HasDebug())
	}
}

func TestRespondWithMessage_Defaults(t *testing.T) {
	assert.JSONEq(t, `{"success":true,"message":"Ok","payload":null}`,
		bodyJSON(t, New().RespondWithMessage()))
	assert.JSONEq(t, `{"success":true,"message":"hi","payload":null}`,
		bodyJSON(t, New().RespondWithMessage("hi")))
	// An explicit empty message is kept.
	assert.JSONEq(t, `{"success":true,"message":"","payload":null}`,
		bodyJSON(t, New().RespondWithMessage("")))
}

func TestRespondWithMessageAndPayload(t *testing.T) {
	r := New().RespondWithMessageAndPayload(map[string]int{"id": 7})
	assert.JSONEq(t, `{"success":true,"message":"Ok","payload":{"id":7}}`, bodyJSON(t, r))
}

func TestRespondWithError_DebugGate(t *testing.T) {
	t.Run("debug enabled with detail", func(t *testing.T) {
		r := New(WithDebug(true)).RespondWithError("X", "stack", nil)
		assert.JSONEq(t, `{"success":false,"message":"X","payload":null,"debug":"stack"}`, bodyJSON(t, r))
	})
	t.Run("debug enabled without detail", func(t *testing.T) {
		r := New(WithDebug(true)).RespondWithError("X", nil, nil)
		env, _ := r.Envelope()
		assert.False(t, env.HasDebug())
	})
	t.Run("debug disabled drops detail", func(t *testing.T) {
		r := New().RespondWithError("X", "stack", []int{1})
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(bodyJSON(t, r)), &m))
		_, has := m["debug"]
		assert.False(t, has, "debug key must be absent, not null")
		assert.Equal(t, false, m["success"])
		assert.Equal(t, []any{float64(1)}, m["payload"])
	})
	t.Run("empty message defaults", func(t *testing.T) {
		env, _ := New().RespondWithError("", nil, nil).Envelope()
		assert.Equal(t, "Error", env.Message)
	})
}

func TestRespondExceptionError_ExplicitStatus(t *testing.T) {
	b := New().WithHeaders(map[string]string{"X-A": "b"})
	r := b.RespondExceptionError(false, "boom", http.StatusBadGateway, map[string]string{"k": "v"})
	assert.Equal(t, http.StatusBadGateway, r.StatusCode)
	assert.Equal(t, "b", r.Headers["X-A"])
	assert.JSONEq(t, `{"success":false,"message":"boom","payload":{"k":"v"}}`, bodyJSON(t, r))
	assert.Equal(t, http.StatusOK, b.StatusCode())
}
