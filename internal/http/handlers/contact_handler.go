// Contact HTTP handlers.
//
// This file exposes REST endpoints for contact resources:
//   - POST   /contacts               (create, idempotent with Idempotency-Key)
//   - GET    /contacts               (list, paginated, ETag support)
//   - GET    /contacts/export        (CSV or JSON export)
//   - GET    /contacts/{id}          (read)
//   - PUT    /contacts/{id}          (update)
//   - DELETE /contacts/{id}          (delete)
//   - POST   /contacts/{id}/restore  (not implemented)
//
// Handlers are transport-thin: they validate input, call the contact service,
// and translate results into envelopes. Errors go to the error boundary
// unchanged; the classifier decides their status.
package handlers

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tbourn/go-api-response/internal/domain"
	"github.com/tbourn/go-api-response/internal/http/middleware"
	"github.com/tbourn/go-api-response/internal/repo"
	"github.com/tbourn/go-api-response/internal/services"
	"github.com/tbourn/go-api-response/internal/utils"
)

// ContactService defines contact operations consumed by HTTP handlers.
//
// Implementations should be safe for concurrent use and must honor the
// provided context for cancellation and timeouts.
type ContactService interface {
	// CreateIdempotent creates a contact; a repeated key replays the first result.
	CreateIdempotent(ctx context.Context, ownerID, key string, in services.ContactInput) (*domain.Contact, bool, error)
	// Get returns a single contact owned by ownerID.
	Get(ctx context.Context, ownerID, id string) (*domain.Contact, error)
	// ListPage returns a page of contacts and the total count.
	ListPage(ctx context.Context, ownerID string, page, pageSize int) ([]domain.Contact, int64, error)
	// Update replaces a contact's fields and returns the stored result.
	Update(ctx context.Context, ownerID, id string, in services.ContactInput) (*domain.Contact, error)
	// Delete removes a contact.
	Delete(ctx context.Context, ownerID, id string) error
	// Export returns the owner's contacts for download.
	Export(ctx context.Context, ownerID string) ([]domain.Contact, error)
	// Snapshot summarises the owner's contacts for conditional GETs.
	Snapshot(ctx context.Context, ownerID string) (repo.Snapshot, error)
}

// Handlers groups HTTP endpoints for contacts.
type Handlers struct {
	contactSvc ContactService
}

// New constructs and returns a Handlers instance bound to the given service.
func New(contactSvc ContactService) *Handlers {
	return &Handlers{contactSvc: contactSvc}
}

//
// DTOs
//

// ContactRequest is the JSON payload for creating or updating a contact.
type ContactRequest struct {
	Name  string `json:"name" binding:"required,max=255" example:"Ada Lovelace"`
	Email string `json:"email" binding:"required,email,max=255" example:"ada@example.com"`
	Age   *int   `json:"age" binding:"omitempty,gte=0,lte=150" example:"36"`
}

func (r ContactRequest) input() services.ContactInput {
	return services.ContactInput{Name: r.Name, Email: r.Email, Age: r.Age}
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListContactsResponse is the payload of GET /contacts.
type ListContactsResponse struct {
	Contacts   []domain.Contact `json:"contacts"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// clampPagination reads page and page_size from the query, bounded by
// utils.NewPage.
func clampPagination(c *gin.Context) utils.Page {
	return utils.ParsePage(c.Query("page"), c.Query("page_size"))
}

// listETag is a weak validator over everything that shapes a list page: the
// caller, the owner's snapshot and the requested window.
func listETag(uid string, snap repo.Snapshot, pg utils.Page) string {
	var ts int64
	if !snap.LastModified.IsZero() {
		ts = snap.LastModified.UnixNano()
	}
	return fmt.Sprintf(`W/"contacts:%s:%d:%d:%d:%d"`, uid, snap.Count, ts, pg.Number, pg.Size)
}

// etagMatches implements the If-None-Match comparison: "*" or any listed
// tag equal to etag.
func etagMatches(header, etag string) bool {
	for _, tag := range strings.Split(header, ",") {
		if tag = strings.TrimSpace(tag); tag == "*" || tag == etag {
			return true
		}
	}
	return false
}

// contactID returns the :id path param, failing the request when it is not
// a UUID.
func contactID(c *gin.Context) (string, bool) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, errInvalidContactID)
		return "", false
	}
	return id, true
}

//
// Handlers
//

// CreateContact godoc
// @ID          createContact
// @Summary     Create a contact
// @Description Creates a contact for the current user. Repeating a request with the same Idempotency-Key returns the first result with Idempotent-Replayed: true. A duplicate email answers 409 with the existing contact as payload.
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID        header  string  false "User ID"                                         example(user123)
// @Param       Idempotency-Key  header  string  false "Idempotency key for safe retries (UUID recommended)"  example(7a8d9f4c-1b2a-4c3d-8e9f-0123456789ab)
// @Param       body             body    handlers.ContactRequest  true  "Contact"
//
// @Success     201  {object}  response.Envelope{payload=domain.Contact}
// @Header      201  {string}  Idempotent-Replayed  "true when the response replays an earlier request"
// @Failure     400  {object}  response.Envelope  "Bad request"
// @Failure     409  {object}  response.Envelope{payload=domain.Contact}  "Contact already exists"
// @Failure     422  {object}  response.Envelope{payload=[]transformers.FieldError}  "In valid request"
// @Failure     500  {object}  response.Envelope  "Something went wrong with our system"
// @Router      /contacts [post]
func (h *Handlers) CreateContact(c *gin.Context) {
	var req ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	key, _ := middleware.GetIdempotencyKey(c)

	ct, replayed, err := h.contactSvc.CreateIdempotent(c.Request.Context(), middleware.UserID(c), key, req.input())
	if err != nil {
		var dup *services.DuplicateEmailError
		if errors.As(err, &dup) {
			respond(c).RespondResourceConflictWithData(dup.Existing, msgContactExists).Render(c)
			return
		}
		fail(c, err)
		return
	}
	if replayed {
		c.Header("Idempotent-Replayed", "true")
	}
	respond(c).RespondCreatedWithPayload(ct).Render(c)
}

// ListContacts godoc
// @ID          listContacts
// @Summary     List contacts (paginated)
// @Description Returns a page of the user's contacts. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Contacts
// @Produce     json
//
// @Param       X-User-ID      header  string  false "User ID"                      example(user123)
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"  example(W/\"abc123\")
// @Param       page           query   int     false "Page number"                  minimum(1) default(1)
// @Param       page_size      query   int     false "Items per page"               minimum(1) maximum(100) default(20)
//
// @Success     200  {object} response.Envelope{payload=handlers.ListContactsResponse}
// @Header      200  {string} ETag  "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     422  {object} response.Envelope "Something went wrong with your query"
// @Router      /contacts [get]
func (h *Handlers) ListContacts(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.UserID(c)
	pg := clampPagination(c)

	// Conditional GET is best effort: without a snapshot the page is served.
	if snap, err := h.contactSvc.Snapshot(ctx, uid); err == nil {
		etag := listETag(uid, snap, pg)
		c.Header("ETag", etag)
		if etagMatches(c.GetHeader("If-None-Match"), etag) {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.contactSvc.ListPage(ctx, uid, pg.Number, pg.Size)
	if err != nil {
		fail(c, err)
		return
	}

	respond(c).RespondWithMessageAndPayload(ListContactsResponse{
		Contacts: items,
		Pagination: Pagination{
			Page:       pg.Number,
			PageSize:   pg.Size,
			Total:      total,
			TotalPages: pg.TotalPages(total),
			HasNext:    pg.HasNext(total),
		},
	}, msgContactsListed).Render(c)
}

// GetContact godoc
// @ID          getContact
// @Summary     Get a contact
// @Tags        Contacts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID"         example(user123)
// @Param       id         path    string  true  "Contact ID (UUID)" format(uuid)
//
// @Success     200  {object} response.Envelope{payload=domain.Contact}
// @Failure     400  {object} response.Envelope "Bad request"
// @Failure     403  {object} response.Envelope "Access denied"
// @Failure     404  {object} response.Envelope "Record not found"
// @Router      /contacts/{id} [get]
func (h *Handlers) GetContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	ct, err := h.contactSvc.Get(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c).RespondWithData(ct).Render(c)
}

// UpdateContact godoc
// @ID          updateContact
// @Summary     Update a contact
// @Tags        Contacts
// @Accept      json
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID"         example(user123)
// @Param       id         path    string  true  "Contact ID (UUID)" format(uuid)
// @Param       body       body    handlers.ContactRequest  true  "Contact"
//
// @Success     202  {object} response.Envelope{payload=domain.Contact}
// @Failure     400  {object} response.Envelope "Bad request"
// @Failure     403  {object} response.Envelope "Access denied"
// @Failure     404  {object} response.Envelope "Record not found"
// @Failure     409  {object} response.Envelope{payload=domain.Contact} "Contact already exists"
// @Failure     422  {object} response.Envelope{payload=[]transformers.FieldError} "In valid request"
// @Router      /contacts/{id} [put]
func (h *Handlers) UpdateContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	var req ContactRequest
	if !bindJSON(c, &req) {
		return
	}
	ct, err := h.contactSvc.Update(c.Request.Context(), middleware.UserID(c), id, req.input())
	if err != nil {
		var dup *services.DuplicateEmailError
		if errors.As(err, &dup) {
			respond(c).RespondResourceConflictWithData(dup.Existing, msgContactExists).Render(c)
			return
		}
		fail(c, err)
		return
	}
	respond(c).RespondUpdatedWithPayload(ct).Render(c)
}

// DeleteContact godoc
// @ID          deleteContact
// @Summary     Delete a contact
// @Tags        Contacts
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID"         example(user123)
// @Param       id         path    string  true  "Contact ID (UUID)" format(uuid)
//
// @Success     202  {object} response.Envelope "Deleted"
// @Failure     403  {object} response.Envelope "Access denied"
// @Failure     404  {object} response.Envelope "Record not found"
// @Router      /contacts/{id} [delete]
func (h *Handlers) DeleteContact(c *gin.Context) {
	id, ok := contactID(c)
	if !ok {
		return
	}
	if err := h.contactSvc.Delete(c.Request.Context(), middleware.UserID(c), id); err != nil {
		fail(c, err)
		return
	}
	respond(c).RespondDeleted().Render(c)
}

// ExportContacts godoc
// @ID          exportContacts
// @Summary     Export contacts
// @Description Streams the user's contacts as CSV, or as a JSON envelope when the client prefers application/json.
// @Tags        Contacts
// @Produce     text/csv
// @Produce     json
//
// @Param       X-User-ID  header  string  false "User ID"  example(user123)
//
// @Success     200  {file}   file "contacts.csv"
// @Failure     401  {object} response.Envelope "Unauthorized request"
// @Router      /contacts/export [get]
func (h *Handlers) ExportContacts(c *gin.Context) {
	items, err := h.contactSvc.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		fail(c, err)
		return
	}

	if c.NegotiateFormat("text/csv", "application/json") == "application/json" {
		respond(c).RespondWithData(items).Render(c)
		return
	}

	var buf bytes.Buffer
	if err := writeContactsCSV(&buf, items); err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="contacts.csv"`)
	respond(c).RespondWithFile(&buf, "text/csv; charset=utf-8").Render(c)
}

// RestoreContact godoc
// @ID          restoreContact
// @Summary     Restore a deleted contact
// @Tags        Contacts
// @Produce     json
// @Param       id  path  string  true  "Contact ID (UUID)" format(uuid)
// @Failure     501  {object} response.Envelope "Not implemented"
// @Router      /contacts/{id}/restore [post]
func (h *Handlers) RestoreContact(c *gin.Context) {
	respond(c).RespondNotImplemented(msgRestoreNotReady).Render(c)
}

// writeContactsCSV writes a header row followed by one row per contact.
func writeContactsCSV(buf *bytes.Buffer, items []domain.Contact) error {
	w := csv.NewWriter(buf)
	if err := w.Write([]string{"id", "name", "email", "age", "created_at"}); err != nil {
		return err
	}
	for _, ct := range items {
		age := ""
		if ct.Age != nil {
			age = strconv.Itoa(*ct.Age)
		}
		if err := w.Write([]string{ct.ID, ct.Name, ct.Email, age, ct.CreatedAt.UTC().Format(time.RFC3339)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
