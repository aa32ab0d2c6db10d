package response

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an error for the purpose of picking a response rule.
type ErrorKind int

// Known error kinds. KindUnknown is the zero value and always falls through
// to the generic 500 rule.
const (
	KindUnknown ErrorKind = iota
	KindRecordNotFound
	KindRouteNotFound
	KindAccessDenied
	KindMalformedRequest
	KindBadMethodCall
	KindMethodNotAllowed
	KindQuery
	KindHTTP
	KindAuthentication
	KindValidation
	KindNotAcceptable
	KindAuthorization
)

var kindNames = map[ErrorKind]string{
	KindUnknown:          "unknown",
	KindRecordNotFound:   "record_not_found",
	KindRouteNotFound:    "route_not_found",
	KindAccessDenied:     "access_denied",
	KindMalformedRequest: "malformed_request",
	KindBadMethodCall:    "bad_method_call",
	KindMethodNotAllowed: "method_not_allowed",
	KindQuery:            "query",
	KindHTTP:             "http",
	KindAuthentication:   "authentication",
	KindValidation:       "validation",
	KindNotAcceptable:    "not_acceptable",
	KindAuthorization:    "authorization",
}

// String returns a stable snake_case name, suitable for logs and metric labels.
func (k ErrorKind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Sentinel errors, one per kind. Match them with errors.Is; wrap them with
// fmt.Errorf("...: %w", ErrX) or Wrap to add context.
var (
	ErrRecordNotFound   = &Error{Kind: KindRecordNotFound, Msg: "record not found"}
	ErrRouteNotFound    = &Error{Kind: KindRouteNotFound, Msg: "route not found"}
	ErrAccessDenied     = &Error{Kind: KindAccessDenied, Msg: "access denied"}
	ErrMalformedRequest = &Error{Kind: KindMalformedRequest, Msg: "malformed request"}
	ErrBadMethodCall    = &Error{Kind: KindBadMethodCall, Msg: "bad method call"}
	ErrMethodNotAllowed = &Error{Kind: KindMethodNotAllowed, Msg: "method not allowed"}
	ErrQuery            = &Error{Kind: KindQuery, Msg: "query failed"}
	ErrHTTP             = &Error{Kind: KindHTTP, Msg: "http error"}
	ErrUnauthenticated  = &Error{Kind: KindAuthentication, Msg: "unauthenticated"}
	ErrValidation       = &Error{Kind: KindValidation, Msg: "validation failed"}
	ErrNotAcceptable    = &Error{Kind: KindNotAcceptable, Msg: "not acceptable"}
	ErrUnauthorized     = &Error{Kind: KindAuthorization, Msg: "unauthorized"}
)

// Error is an error tagged with an ErrorKind. Cause, when set, is exposed
// through Unwrap so errors.Is/As keep working on the underlying error.
type Error struct {
	Kind  ErrorKind
	Msg   string
	Cause error
}

// NewError returns an *Error of the given kind with a message.
func NewError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap tags cause with kind. A nil cause yields nil.
func Wrap(kind ErrorKind, cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, Cause: cause}
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Msg != "" && e.Cause != nil:
		return e.Msg + ": " + e.Cause.Error()
	case e.Cause != nil:
		return e.Cause.Error()
	case e.Msg != "":
		return e.Msg
	}
	return e.Kind.String()
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error { return e.Cause }

// Is matches any *Error of the same kind, so a service error such as
// NewError(KindRecordNotFound, "contact not found") satisfies
// errors.Is(err, ErrRecordNotFound).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Kind != KindUnknown
}

// KindOf returns the kind of the outermost *Error in err's chain, or
// KindUnknown when there is none.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
