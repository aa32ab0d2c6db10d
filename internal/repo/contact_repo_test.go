package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-api-response/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestCreateContact_AndGet(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	ctx := context.Background()

	c, err := CreateContact(ctx, db, "u1", ContactFields{Name: "Ada", Email: "ada@example.com", Age: intPtr(36)})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if c.ID == "" || c.OwnerID != "u1" || c.CreatedAt.IsZero() {
		t.Fatalf("unexpected contact: %+v", c)
	}

	got, err := GetContact(ctx, db, c.ID)
	if err != nil {
		t.Fatalf("GetContact: %v", err)
	}
	if got.Email != "ada@example.com" || got.Age == nil || *got.Age != 36 {
		t.Fatalf("readback mismatch: %+v", got)
	}
}

func TestGetContact_NotFound(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	if _, err := GetContact(context.Background(), db, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateContact_DuplicateEmailPerOwner(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	ctx := context.Background()

	if _, err := CreateContact(ctx, db, "u1", ContactFields{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := CreateContact(ctx, db, "u1", ContactFields{Name: "Ada L", Email: "ada@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if _, err := CreateContact(ctx, db, "u2", ContactFields{Name: "Ada", Email: "ada@example.com"}); err != nil {
		t.Fatalf("other owner may reuse email: %v", err)
	}
}

func TestCreateContact_NoTable(t *testing.T) {
	db := newTestDB(t /* no migrations */)
	_, err := CreateContact(context.Background(), db, "u1", ContactFields{Name: "Ada", Email: "a@b.c"})
	if err == nil || errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected raw DB error, got %v", err)
	}
}

func TestFindContactByEmail(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	now := time.Now().UTC()
	seedContact(t, db, "c1", "u1", "Ada", "ada@example.com", now)

	got, err := FindContactByEmail(context.Background(), db, "u1", "ada@example.com")
	if err != nil || got.ID != "c1" {
		t.Fatalf("FindContactByEmail: got=%+v err=%v", got, err)
	}
	if _, err := FindContactByEmail(context.Background(), db, "u2", "ada@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for other owner, got %v", err)
	}
}

func TestCountAndListContactsPage(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	seedContact(t, db, "c1", "u1", "Ada", "a@example.com", base)
	seedContact(t, db, "c2", "u1", "Bob", "b@example.com", base.Add(time.Minute))
	seedContact(t, db, "c3", "u1", "Cy", "c@example.com", base.Add(2*time.Minute))
	seedContact(t, db, "c4", "u2", "Dee", "d@example.com", base)

	n, err := CountContacts(ctx, db, "u1")
	if err != nil || n != 3 {
		t.Fatalf("CountContacts: n=%d err=%v", n, err)
	}

	page, err := ListContactsPage(ctx, db, "u1", 0, 2)
	if err != nil {
		t.Fatalf("ListContactsPage: %v", err)
	}
	if len(page) != 2 || page[0].ID != "c3" || page[1].ID != "c2" {
		t.Fatalf("expected [c3 c2], got %+v", page)
	}

	page, err = ListContactsPage(ctx, db, "u1", 2, 2)
	if err != nil {
		t.Fatalf("ListContactsPage offset: %v", err)
	}
	if len(page) != 1 || page[0].ID != "c1" {
		t.Fatalf("expected [c1], got %+v", page)
	}
}

func TestListContactsForExport_OrderAndLimit(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	now := time.Now().UTC()
	seedContact(t, db, "c1", "u1", "Zoe", "z@example.com", now)
	seedContact(t, db, "c2", "u1", "Ada", "a@example.com", now)
	seedContact(t, db, "c3", "u1", "Max", "m@example.com", now)

	out, err := ListContactsForExport(context.Background(), db, "u1", 2)
	if err != nil {
		t.Fatalf("ListContactsForExport: %v", err)
	}
	if len(out) != 2 || out[0].Name != "Ada" || out[1].Name != "Max" {
		t.Fatalf("expected [Ada Max], got %+v", out)
	}
}

func TestUpdateContact(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	ctx := context.Background()
	now := time.Now().UTC()
	seedContact(t, db, "c1", "u1", "Ada", "ada@example.com", now)
	seedContact(t, db, "c2", "u1", "Bob", "bob@example.com", now)

	if err := UpdateContact(ctx, db, "c1", "u1", ContactFields{Name: "Ada L", Email: "ada.l@example.com", Age: intPtr(40)}); err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	got, _ := GetContact(ctx, db, "c1")
	if got.Name != "Ada L" || got.Email != "ada.l@example.com" || got.Age == nil || *got.Age != 40 {
		t.Fatalf("update not applied: %+v", got)
	}

	if err := UpdateContact(ctx, db, "c1", "u2", ContactFields{Name: "x", Email: "x@example.com"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign owner: expected ErrNotFound, got %v", err)
	}
	if err := UpdateContact(ctx, db, "c1", "u1", ContactFields{Name: "Ada", Email: "bob@example.com"}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("email collision: expected ErrDuplicate, got %v", err)
	}
}

func TestDeleteContact(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	ctx := context.Background()
	seedContact(t, db, "c1", "u1", "Ada", "ada@example.com", time.Now().UTC())

	if err := DeleteContact(ctx, db, "c1", "u2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign owner: expected ErrNotFound, got %v", err)
	}
	if err := DeleteContact(ctx, db, "c1", "u1"); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	if _, err := GetContact(ctx, db, "c1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected row gone, got %v", err)
	}
	if err := DeleteContact(ctx, db, "c1", "u1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete: expected ErrNotFound, got %v", err)
	}
}

func TestContacts_Adapter(t *testing.T) {
	db := newTestDB(t, &domain.Contact{})
	ctx := context.Background()
	var r Contacts

	ada, err := r.CreateContact(ctx, db, "u1", ContactFields{Name: "Ada", Email: "ada@example.com"})
	if err != nil {
		t.Fatalf("CreateContact: %v", err)
	}
	if _, err := r.CreateContact(ctx, db, "u1", ContactFields{Name: "Bob", Email: "bob@example.com"}); err != nil {
		t.Fatalf("CreateContact bob: %v", err)
	}
	if got, err := r.GetContact(ctx, db, ada.ID); err != nil || got.Email != "ada@example.com" {
		t.Fatalf("GetContact: %+v %v", got, err)
	}
	if got, err := r.FindContactByEmail(ctx, db, "u1", "ada@example.com"); err != nil || got.ID != ada.ID {
		t.Fatalf("FindContactByEmail: %+v %v", got, err)
	}
	if n, err := r.CountContacts(ctx, db, "u1"); err != nil || n != 2 {
		t.Fatalf("CountContacts: %d %v", n, err)
	}
	if page, err := r.ListContactsPage(ctx, db, "u1", 1, 10); err != nil || len(page) != 1 {
		t.Fatalf("ListContactsPage: %v %v", page, err)
	}
	if all, err := r.ListContactsForExport(ctx, db, "u1", 10); err != nil || len(all) != 2 || all[0].Name != "Ada" {
		t.Fatalf("ListContactsForExport: %v %v", all, err)
	}
	if err := r.UpdateContact(ctx, db, ada.ID, "u1", ContactFields{Name: "Ada L", Email: "ada@example.com"}); err != nil {
		t.Fatalf("UpdateContact: %v", err)
	}
	if err := r.DeleteContact(ctx, db, ada.ID, "u1"); err != nil {
		t.Fatalf("DeleteContact: %v", err)
	}
	if _, err := r.GetContact(ctx, db, ada.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted contact still readable: %v", err)
	}
}
