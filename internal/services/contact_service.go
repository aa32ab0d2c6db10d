// Package services – ContactService
//
// This file implements the ContactService, which manages the lifecycle of
// address-book contacts. It normalizes names and emails, enforces ownership,
// surfaces duplicate emails together with the existing record, and makes
// creation idempotent when the caller supplies a key.
//
// Errors returned here carry a response.ErrorKind (see errors.go), so
// handlers pass them straight to the response classifier.
package services

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gorm.io/gorm"

	"github.com/tbourn/go-api-response/internal/domain"
	"github.com/tbourn/go-api-response/internal/observability"
	"github.com/tbourn/go-api-response/internal/repo"
	"github.com/tbourn/go-api-response/internal/utils"
)

// ContactRepo defines the repository contract required by ContactService.
// Every method takes the handle to run on so calls compose inside a
// transaction.
type ContactRepo interface {
	CreateContact(ctx context.Context, db *gorm.DB, ownerID string, f repo.ContactFields) (*domain.Contact, error)
	GetContact(ctx context.Context, db *gorm.DB, id string) (*domain.Contact, error)
	FindContactByEmail(ctx context.Context, db *gorm.DB, ownerID, email string) (*domain.Contact, error)
	CountContacts(ctx context.Context, db *gorm.DB, ownerID string) (int64, error)
	ListContactsPage(ctx context.Context, db *gorm.DB, ownerID string, offset, limit int) ([]domain.Contact, error)
	ListContactsForExport(ctx context.Context, db *gorm.DB, ownerID string, max int) ([]domain.Contact, error)
	UpdateContact(ctx context.Context, db *gorm.DB, id, ownerID string, f repo.ContactFields) error
	DeleteContact(ctx context.Context, db *gorm.DB, id, ownerID string) error
}

// ContactInput is the caller-supplied part of a contact.
type ContactInput struct {
	Name  string
	Email string
	Age   *int
}

// ContactService provides create, read, update, delete and export of
// contacts scoped to an owner.
type ContactService struct {
	DB   *gorm.DB
	Repo ContactRepo

	// NameMaxLen caps stored names by rune length.
	NameMaxLen int
	// NameLocale drives title casing of names.
	NameLocale language.Tag
	// ExportMaxRows caps Export.
	ExportMaxRows int
	// IdempotencyTTL is how long a create key replays its contact.
	IdempotencyTTL time.Duration
}

// NewContactService constructs a ContactService with defaults.
func NewContactService(db *gorm.DB, r ContactRepo) *ContactService {
	return &ContactService{
		DB:             db,
		Repo:           r,
		NameMaxLen:     120,
		NameLocale:     language.English,
		ExportMaxRows:  10000,
		IdempotencyTTL: 24 * time.Hour,
	}
}

// Create inserts a contact for ownerID. A clash on (owner, email) yields a
// *DuplicateEmailError holding the existing contact.
func (s *ContactService) Create(ctx context.Context, ownerID string, in ContactInput) (*domain.Contact, error) {
	f, err := s.fields(in)
	if err != nil {
		return nil, err
	}
	c, err := s.Repo.CreateContact(ctx, s.DB, ownerID, f)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, s.duplicate(ctx, ownerID, f.Email)
	}
	if err != nil {
		return nil, queryErr(err)
	}
	return c, nil
}

// CreateIdempotent behaves like Create, except that a repeated key from the
// same owner returns the contact created by the first call with
// replayed=true. An empty key disables replay.
func (s *ContactService) CreateIdempotent(ctx context.Context, ownerID, key string, in ContactInput) (c *domain.Contact, replayed bool, err error) {
	key = strings.TrimSpace(key)
	ctx, span := observability.StartSpan(ctx, "contacts.create",
		attribute.Bool("contacts.idempotent", key != ""))
	defer func() {
		span.SetAttributes(attribute.Bool("contacts.replayed", replayed))
		observability.EndSpan(span, err)
	}()
	if key == "" {
		c, err = s.Create(ctx, ownerID, in)
		return c, false, err
	}
	if c, err = s.replay(ctx, s.DB, ownerID, key); c != nil || err != nil {
		return c, c != nil, err
	}

	f, err := s.fields(in)
	if err != nil {
		return nil, false, err
	}

	var dupKey bool
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created, err := s.Repo.CreateContact(ctx, tx, ownerID, f)
		if err != nil {
			return err
		}
		if _, err := repo.CreateIdempotency(ctx, tx, ownerID, key, created.ID, 201, s.IdempotencyTTL); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				dupKey = true
			}
			return err
		}
		c = created
		return nil
	})
	switch {
	case err == nil:
		return c, false, nil
	case dupKey:
		// A concurrent request with the same key won the race.
		c, err = s.replay(ctx, s.DB, ownerID, key)
		if c == nil && err == nil {
			err = ErrContactNotFound
		}
		return c, c != nil, err
	case errors.Is(err, repo.ErrDuplicate):
		return nil, false, s.duplicate(ctx, ownerID, f.Email)
	default:
		return nil, false, queryErr(err)
	}
}

// Get returns the owner's contact. A contact owned by someone else yields
// ErrContactForbidden.
func (s *ContactService) Get(ctx context.Context, ownerID, id string) (*domain.Contact, error) {
	c, err := s.Repo.GetContact(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, queryErr(err)
	}
	if c.OwnerID != ownerID {
		return nil, ErrContactForbidden
	}
	return c, nil
}

// ListPage returns a page of the owner's contacts and the total count.
// page and pageSize are bounded by utils.NewPage.
func (s *ContactService) ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Contact, int64, error) {
	pg := utils.NewPage(page, pageSize)

	total, err := s.Repo.CountContacts(ctx, s.DB, ownerID)
	if err != nil {
		return nil, 0, queryErr(err)
	}
	if total == 0 {
		return []domain.Contact{}, 0, nil
	}

	items, err := s.Repo.ListContactsPage(ctx, s.DB, ownerID, pg.Offset(), pg.Size)
	if err != nil {
		return nil, 0, queryErr(err)
	}
	return items, total, nil
}

// Update replaces name, email and age of the owner's contact and returns the
// stored result.
func (s *ContactService) Update(ctx context.Context, ownerID, id string, in ContactInput) (*domain.Contact, error) {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return nil, err
	}
	f, err := s.fields(in)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateContact(ctx, s.DB, id, ownerID, f); err != nil {
		switch {
		case errors.Is(err, repo.ErrDuplicate):
			return nil, s.duplicate(ctx, ownerID, f.Email)
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrContactNotFound
		}
		return nil, queryErr(err)
	}
	return s.Get(ctx, ownerID, id)
}

// Delete removes the owner's contact.
func (s *ContactService) Delete(ctx context.Context, ownerID, id string) error {
	if _, err := s.Get(ctx, ownerID, id); err != nil {
		return err
	}
	if err := s.Repo.DeleteContact(ctx, s.DB, id, ownerID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrContactNotFound
		}
		return queryErr(err)
	}
	return nil
}

// Snapshot reports the owner's contact count and newest modification time.
// Handlers derive list ETags from it.
func (s *ContactService) Snapshot(ctx context.Context, ownerID string) (repo.Snapshot, error) {
	snap, err := repo.ContactsSnapshot(ctx, s.DB, ownerID)
	if err != nil {
		return repo.Snapshot{}, queryErr(err)
	}
	return snap, nil
}

// Export returns up to ExportMaxRows of the owner's contacts ordered by name.
func (s *ContactService) Export(ctx context.Context, ownerID string) (out []domain.Contact, err error) {
	max := s.ExportMaxRows
	if max <= 0 {
		max = 10000
	}
	ctx, span := observability.StartSpan(ctx, "contacts.export", attribute.Int("contacts.export.max_rows", max))
	defer func() {
		span.SetAttributes(attribute.Int("contacts.export.rows", len(out)))
		observability.EndSpan(span, err)
	}()

	out, err = s.Repo.ListContactsForExport(ctx, s.DB, ownerID, max)
	if err != nil {
		return nil, queryErr(err)
	}
	return out, nil
}

// replay returns the contact recorded under (ownerID, key), or (nil, nil)
// when the key is unknown or expired.
func (s *ContactService) replay(ctx context.Context, db *gorm.DB, ownerID, key string) (*domain.Contact, error) {
	rec, err := repo.GetIdempotency(ctx, db, ownerID, key, time.Now().UTC())
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, queryErr(err)
	}
	c, err := s.Repo.GetContact(ctx, db, rec.ContactID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			// Contact deleted after the first call.
			return nil, ErrContactNotFound
		}
		return nil, queryErr(err)
	}
	return c, nil
}

// duplicate loads the contact that already holds email. If that contact is
// deleted before it can be loaded, the clash is reported as not found.
func (s *ContactService) duplicate(ctx context.Context, ownerID, email string) error {
	existing, err := s.Repo.FindContactByEmail(ctx, s.DB, ownerID, email)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return ErrContactNotFound
	case err != nil:
		return queryErr(err)
	}
	return &DuplicateEmailError{Existing: existing}
}

// fields normalizes in into repository columns.
func (s *ContactService) fields(in ContactInput) (repo.ContactFields, error) {
	f := repo.ContactFields{
		Name:  s.normalizeName(in.Name),
		Email: normalizeEmail(in.Email),
		Age:   in.Age,
	}
	if f.Name == "" || f.Email == "" {
		return repo.ContactFields{}, ErrInvalidContact
	}
	return f, nil
}

// normalizeName collapses whitespace, title-cases and clips by runes.
func (s *ContactService) normalizeName(name string) string {
	name = whitespaceRE.ReplaceAllString(strings.TrimSpace(name), " ")
	if name == "" {
		return ""
	}
	loc := s.NameLocale
	if loc == language.Und {
		loc = language.English
	}
	// Caser is stateful; one per call.
	name = cases.Title(loc).String(name)
	if s.NameMaxLen > 0 && utf8.RuneCountInString(name) > s.NameMaxLen {
		name = strings.TrimSpace(string([]rune(name)[:s.NameMaxLen]))
	}
	return name
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// whitespaceRE collapses consecutive whitespace to a single space.
var whitespaceRE = regexp.MustCompile(`\s+`)
