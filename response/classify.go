package response

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Rule maps one error kind to a canonical response.
//
// Match decides whether the rule applies; when nil, the rule matches any
// error whose KindOf equals Kind. WithDebug attaches err.Error() as the
// envelope's debug detail (subject to the builder's debug flag).
type Rule struct {
	Kind      ErrorKind
	Status    int
	Message   string
	WithDebug bool
	Match     func(error) bool
}

// matches reports whether r applies to err.
func (r Rule) matches(err error) bool {
	if r.Match != nil {
		return r.Match(err)
	}
	return errors.Is(err, &Error{Kind: r.Kind})
}

// Classifier evaluates an ordered rule list, first match wins. Errors no
// rule matches use the fallback rule. Safe for concurrent use.
type Classifier struct {
	rules    []Rule
	fallback Rule
}

// FallbackRule is applied to errors no other rule matches (and to nil).
var FallbackRule = Rule{
	Kind:      KindUnknown,
	Status:    http.StatusInternalServerError,
	Message:   "Something went wrong with our system",
	WithDebug: true,
}

// DefaultRules returns the built-in mapping table in evaluation order.
//
// Besides this package's own kinds, the table recognizes errors raised by
// the host stack: gorm/database-sql for persistence, encoding/json and
// http.MaxBytesReader for request decoding, go-playground/validator for
// binding validation, and *gin.Error for framework-wrapped errors.
//
// The not-acceptable rule answers 401 "Unauthorized request", kept
// bit-for-bit with the mapping clients already depend on; pass a custom
// table to NewClassifier to answer 406 instead.
func DefaultRules() []Rule {
	return []Rule{
		{
			Kind: KindRecordNotFound, Status: http.StatusNotFound, Message: "Record not found",
			Match: anyOf(isKind(KindRecordNotFound), isErr(gorm.ErrRecordNotFound), isErr(sql.ErrNoRows)),
		},
		{Kind: KindRouteNotFound, Status: http.StatusNotFound, Message: "Not found"},
		{Kind: KindAccessDenied, Status: http.StatusForbidden, Message: "Access denied"},
		{
			Kind: KindMalformedRequest, Status: http.StatusBadRequest, Message: "Bad request",
			Match: anyOf(isKind(KindMalformedRequest), isMalformedBody),
		},
		{Kind: KindBadMethodCall, Status: http.StatusBadRequest, Message: "Bad method Call"},
		{Kind: KindMethodNotAllowed, Status: http.StatusForbidden, Message: "Method not found"},
		{
			Kind: KindQuery, Status: http.StatusUnprocessableEntity, Message: "Something went wrong with your query",
			WithDebug: true,
			Match:     anyOf(isKind(KindQuery), isQueryError),
		},
		{
			Kind: KindHTTP, Status: http.StatusInternalServerError, Message: "Something went wrong with our system",
			WithDebug: true,
			Match:     anyOf(isKind(KindHTTP), isGinError),
		},
		{Kind: KindAuthentication, Status: http.StatusUnauthorized, Message: "Unauthorized request"},
		{
			Kind: KindValidation, Status: http.StatusUnprocessableEntity, Message: "In valid request",
			WithDebug: true,
			Match:     anyOf(isKind(KindValidation), isValidationErrors),
		},
		{Kind: KindNotAcceptable, Status: http.StatusUnauthorized, Message: "Unauthorized request"},
		{Kind: KindAuthorization, Status: http.StatusUnauthorized, Message: "Unauthorized request", WithDebug: true},
	}
}

// NewClassifier builds a Classifier from rules, evaluated in slice order.
func NewClassifier(rules []Rule) *Classifier {
	return &Classifier{
		rules:    append([]Rule(nil), rules...),
		fallback: FallbackRule,
	}
}

var defaultClassifier = NewClassifier(DefaultRules())

// DefaultClassifier returns the shared classifier built from DefaultRules.
func DefaultClassifier() *Classifier { return defaultClassifier }

// Rules returns a copy of the rule table.
func (c *Classifier) Rules() []Rule { return append([]Rule(nil), c.rules...) }

// Classify returns the first rule matching err, or the fallback rule.
func (c *Classifier) Classify(err error) Rule {
	if err == nil {
		return c.fallback
	}
	for _, r := range c.rules {
		if r.matches(err) {
			return r
		}
	}
	return c.fallback
}

// Handle classifies err and builds the error response with b's headers and
// debug flag. The rule's message always replaces err's own text.
func (c *Classifier) Handle(b Builder, err error) *Response {
	r := c.Classify(err)
	var detail any
	if r.WithDebug && err != nil {
		detail = err.Error()
	}
	return b.WithStatusCode(r.Status).RespondWithError(r.Message, detail, nil)
}

// --- matchers ---

func anyOf(ms ...func(error) bool) func(error) bool {
	return func(err error) bool {
		for _, m := range ms {
			if m(err) {
				return true
			}
		}
		return false
	}
}

func isKind(k ErrorKind) func(error) bool {
	return func(err error) bool { return errors.Is(err, &Error{Kind: k}) }
}

func isErr(target error) func(error) bool {
	return func(err error) bool { return errors.Is(err, target) }
}

func isMalformedBody(err error) bool {
	var syn *json.SyntaxError
	var typ *json.UnmarshalTypeError
	var tooBig *http.MaxBytesError
	return errors.As(err, &syn) || errors.As(err, &typ) || errors.As(err, &tooBig)
}

// queryErrors are gorm/database-sql failures that reflect a bad query or
// constraint rather than a missing row.
var queryErrors = []error{
	gorm.ErrInvalidTransaction,
	gorm.ErrMissingWhereClause,
	gorm.ErrPrimaryKeyRequired,
	gorm.ErrInvalidData,
	gorm.ErrInvalidField,
	gorm.ErrDuplicatedKey,
	gorm.ErrForeignKeyViolated,
	sql.ErrConnDone,
	sql.ErrTxDone,
}

func isQueryError(err error) bool {
	for _, target := range queryErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// isGinError matches framework-wrapped errors whose cause no other rule
// claims. gin.Error unwraps, so a wrapped authentication or validation
// failure keeps its own rule.
func isGinError(err error) bool {
	var ge *gin.Error
	if !errors.As(err, &ge) {
		return false
	}
	return ge.Err == nil || !hasSpecificCause(ge.Err)
}

// hasSpecificCause reports whether err carries a kind or a foreign error
// type recognized by a rule other than the framework one.
func hasSpecificCause(err error) bool {
	if k := KindOf(err); k != KindUnknown && k != KindHTTP {
		return true
	}
	return errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, sql.ErrNoRows) ||
		isMalformedBody(err) || isQueryError(err) || isValidationErrors(err)
}

func isValidationErrors(err error) bool {
	var ve validator.ValidationErrors
	return errors.As(err, &ve)
}
