// Package repo implements the data persistence layer for the contacts API,
// backed by GORM. This file provides repository functions for the Contact
// model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - When a contact is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound).
//   - Inserts and updates that collide with the (owner_id, email) unique
//     index return ErrDuplicate.
//   - Other DB errors are propagated unchanged; the service layer decides
//     how they surface to clients.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-api-response/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = gorm.ErrRecordNotFound

// ContactFields carries the mutable columns of a contact.
type ContactFields struct {
	Name  string
	Email string
	Age   *int
}

// CreateContact inserts a new Contact owned by ownerID. The ID is a random
// UUID and timestamps are set to UTC.
func CreateContact(ctx context.Context, db *gorm.DB, ownerID string, f ContactFields) (*domain.Contact, error) {
	now := time.Now().UTC()
	c := &domain.Contact{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      f.Name,
		Email:     f.Email,
		Age:       f.Age,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return c, nil
}

// GetContact fetches a contact by ID regardless of owner so callers can tell
// a missing row from a foreign one.
func GetContact(ctx context.Context, db *gorm.DB, id string) (*domain.Contact, error) {
	var c domain.Contact
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// FindContactByEmail returns the owner's contact with the given email, or
// ErrNotFound.
func FindContactByEmail(ctx context.Context, db *gorm.DB, ownerID, email string) (*domain.Contact, error) {
	var c domain.Contact
	err := db.WithContext(ctx).
		Where("owner_id = ? AND email = ?", ownerID, email).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CountContacts returns the number of contacts owned by ownerID.
func CountContacts(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("owner_id = ?", ownerID).
		Count(&n).Error
	return n, err
}

// ListContactsPage returns a page of the owner's contacts, newest first.
func ListContactsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Contact, error) {
	var out []domain.Contact
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// ListContactsForExport returns up to max contacts ordered by name, the
// order used for CSV export.
func ListContactsForExport(ctx context.Context, db *gorm.DB, ownerID string, max int) ([]domain.Contact, error) {
	var out []domain.Contact
	err := db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("name ASC, id ASC").
		Limit(max).
		Find(&out).Error
	return out, err
}

// UpdateContact overwrites the mutable fields of the owner's contact.
// Returns ErrNotFound when no row matched.
func UpdateContact(ctx context.Context, db *gorm.DB, id, ownerID string, f ContactFields) error {
	res := db.WithContext(ctx).
		Model(&domain.Contact{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Updates(map[string]any{
			"name":       f.Name,
			"email":      f.Email,
			"age":        f.Age,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		if isUniqueViolation(res.Error) {
			return ErrDuplicate
		}
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteContact hard-deletes the owner's contact. Returns ErrNotFound when
// no row matched.
func DeleteContact(ctx context.Context, db *gorm.DB, id, ownerID string) error {
	res := db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Delete(&domain.Contact{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// isUniqueViolation reports whether err is a UNIQUE constraint failure.
// glebarez/sqlite often returns plain-text errors for these.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique")
}

// Contacts exposes the contact functions as methods so the service layer can
// depend on an interface and tests can swap in fakes.
type Contacts struct{}

func (Contacts) CreateContact(ctx context.Context, db *gorm.DB, ownerID string, f ContactFields) (*domain.Contact, error) {
	return CreateContact(ctx, db, ownerID, f)
}

func (Contacts) GetContact(ctx context.Context, db *gorm.DB, id string) (*domain.Contact, error) {
	return GetContact(ctx, db, id)
}

func (Contacts) FindContactByEmail(ctx context.Context, db *gorm.DB, ownerID, email string) (*domain.Contact, error) {
	return FindContactByEmail(ctx, db, ownerID, email)
}

func (Contacts) CountContacts(ctx context.Context, db *gorm.DB, ownerID string) (int64, error) {
	return CountContacts(ctx, db, ownerID)
}

func (Contacts) ListContactsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Contact, error) {
	return ListContactsPage(ctx, db, ownerID, offset, limit)
}

func (Contacts) ListContactsForExport(ctx context.Context, db *gorm.DB, ownerID string, max int) ([]domain.Contact, error) {
	return ListContactsForExport(ctx, db, ownerID, max)
}

func (Contacts) UpdateContact(ctx context.Context, db *gorm.DB, id, ownerID string, f ContactFields) error {
	return UpdateContact(ctx, db, id, ownerID, f)
}

func (Contacts) DeleteContact(ctx context.Context, db *gorm.DB, id, ownerID string) error {
	return DeleteContact(ctx, db, id, ownerID)
}
