// Package response builds the standard JSON envelope returned by every API
// endpoint and maps errors raised by handlers, services and the framework to
// canonical HTTP responses.
//
// Every JSON body produced by this package has the same shape:
//
//	HTTP/1.1 201 Created
//	{
//	  "success": true,
//	  "message": "Created",
//	  "payload": { "id": "8d1c…" }
//	}
//
// Error responses set success to false. A "debug" key carrying internal
// detail is added only when the Builder runs with debug enabled AND the
// caller supplied a detail; otherwise the key is absent (never null).
//
// Conventions:
//   - Builder is a value type. WithStatusCode/WithHeaders/WithDebug return a
//     modified copy, so a Builder can be shared across goroutines safely.
//   - Respond* helpers return a *Response; the host decides how to write it
//     (Render for gin, Write for any http.ResponseWriter).
//   - HandleError classifies an error through an ordered rule table (see
//     classify.go) and never fails: unknown errors become a generic 500.
package response

import "reflect"

// Envelope is the standard wrapper returned by every JSON endpoint.
type Envelope struct {
	// Success is true for deliberate success responses.
	Success bool `json:"success" example:"true"`
	// Message is a human-readable summary, safe to show to users.
	Message string `json:"message" example:"Ok"`
	// Payload is the response data; serialized as null when absent.
	Payload any `json:"payload"`
	// Debug carries internal error detail in debug-enabled environments only.
	Debug any `json:"debug,omitempty" swaggertype:"object"`
}

// BuildEnvelope assembles an Envelope. Debug is attached only when debug is
// non-nil; a typed nil (e.g. a nil error or nil slice) counts as absent.
func BuildEnvelope(success bool, payload any, message string, debug any) Envelope {
	env := Envelope{
		Success: success,
		Message: message,
		Payload: payload,
	}
	if !isNil(debug) {
		env.Debug = debug
	}
	return env
}

// HasDebug reports whether the envelope will serialize a "debug" key.
func (e Envelope) HasDebug() bool { return e.Debug != nil }

// isNil treats untyped nil and nil pointers/maps/slices/interfaces/funcs/chans as nil.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
