// Package transformers reshapes framework output into payloads that fit the
// response envelope.
//
// Validation flattens field → messages validation results into an ordered
// list of {field, message} records, one per field:
//
//	[
//	  { "field": "email", "message": "required" },
//	  { "field": "age",   "message": "must be numeric" }
//	]
package transformers

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldMessages is one field and all messages reported for it.
type FieldMessages struct {
	Field    string
	Messages []string
}

// FieldError is a single flattened validation record.
type FieldError struct {
	Field   string `json:"field" example:"email"`
	Message string `json:"message" example:"required"`
}

// MessageOverride lets a caller replace the per-field message. When set on
// Validation, it is called for every field instead of taking the first
// listed message.
type MessageOverride interface {
	Message(field string, messages []string) string
}

// MessageFunc adapts a function to MessageOverride.
type MessageFunc func(field string, messages []string) string

// Message implements MessageOverride.
func (f MessageFunc) Message(field string, messages []string) string { return f(field, messages) }

// Validation flattens validation errors. The zero value uses the first
// message of each field.
type Validation struct {
	Override MessageOverride
}

// Response flattens errs into one FieldError per field, preserving order.
// A field with no messages yields an empty message.
func (v Validation) Response(errs []FieldMessages) []FieldError {
	out := make([]FieldError, 0, len(errs))
	for _, fe := range errs {
		msg := ""
		switch {
		case v.Override != nil:
			msg = v.Override.Message(fe.Field, fe.Messages)
		case len(fe.Messages) > 0:
			msg = fe.Messages[0]
		}
		out = append(out, FieldError{Field: fe.Field, Message: msg})
	}
	return out
}

// FromValidator groups go-playground validator errors by field, keeping the
// order in which fields first appear. Field names use the validator's
// Field() (the json tag name when a tag name func is registered).
func FromValidator(err error) []FieldMessages {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return nil
	}
	idx := make(map[string]int, len(ve))
	var out []FieldMessages
	for _, fe := range ve {
		name := fe.Field()
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, FieldMessages{Field: name})
		}
		out[i].Messages = append(out[i].Messages, TagMessage(fe))
	}
	return out
}

// TagMessage renders a short English message for a validator failure.
func TagMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "email":
		return "must be a valid email address"
	case "numeric", "number":
		return "must be numeric"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "lte":
		return "must be less than or equal to " + fe.Param()
	case "oneof":
		return "must be one of: " + strings.Join(strings.Fields(fe.Param()), ", ")
	}
	return "failed on " + fe.Tag()
}
