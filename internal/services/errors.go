// Package services defines the business logic for contacts. This file
// centralizes service-level error values. Each carries a response.ErrorKind
// so the HTTP layer can classify it into a status code and envelope without
// a hand-written mapping.
package services

import (
	"errors"

	"github.com/tbourn/go-api-response/internal/domain"
	"github.com/tbourn/go-api-response/response"
)

// Contact-related errors.
var (
	// ErrContactNotFound indicates that no contact exists with the given ID.
	ErrContactNotFound = response.NewError(response.KindRecordNotFound, "contact not found")

	// ErrContactForbidden is returned when the contact exists but belongs to
	// another owner.
	ErrContactForbidden = response.NewError(response.KindAccessDenied, "contact belongs to another owner")

	// ErrInvalidContact is returned when name or email is empty after
	// normalization.
	ErrInvalidContact = response.NewError(response.KindValidation, "contact name and email are required")

	// ErrDuplicateEmail matches any *DuplicateEmailError via errors.Is.
	ErrDuplicateEmail = errors.New("email already registered")
)

// DuplicateEmailError reports that the owner already has a contact with the
// requested email. Existing is that contact.
type DuplicateEmailError struct {
	Existing *domain.Contact
}

func (e *DuplicateEmailError) Error() string { return ErrDuplicateEmail.Error() }

// Is reports ErrDuplicateEmail as a match.
func (e *DuplicateEmailError) Is(target error) bool { return target == ErrDuplicateEmail }

// queryErr tags a raw persistence error as a query failure unless it already
// carries a kind.
func queryErr(err error) error {
	if err == nil || response.KindOf(err) != response.KindUnknown {
		return err
	}
	return response.Wrap(response.KindQuery, err)
}
