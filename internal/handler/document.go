package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/document-tracking/internal/middleware"
	"github.com/iliyamo/document-tracking/internal/model"
	q "github.com/iliyamo/document-tracking/internal/queue"
	"github.com/iliyamo/document-tracking/internal/repository"
)

// DocumentStore is the subset of repository.DocumentRepo used by
// DocumentHandler.
type DocumentStore interface {
	Create(ctx context.Context, d model.Document) error
	SearchByReference(ctx context.Context, term string) ([]model.CitizenDocumentRow, error)
	SearchSubmitted(ctx context.Context, submittedBy, term string) ([]model.DocumentRow, error)
	SearchAll(ctx context.Context, term string) ([]model.DocumentRow, error)
	UpdateStatus(ctx context.Context, id string, status model.Status) error
	Delete(ctx context.Context, id string) error
	CountByStatus(ctx context.Context) (model.StatusSummary, error)
}

// EventPublisher receives document lifecycle events.
type EventPublisher interface {
	PublishDocumentEvent(ctx context.Context, ev q.DocumentEvent) error
}

// DocumentHandler serves document submission, search and triage.
type DocumentHandler struct {
	Docs   DocumentStore
	Events EventPublisher
	// Invalidate drops cached search responses; nil when caching is off.
	Invalidate func(ctx context.Context) error
	Now        func() time.Time
}

func NewDocumentHandler(docs DocumentStore, events EventPublisher, invalidate func(ctx context.Context) error) *DocumentHandler {
	return &DocumentHandler{Docs: docs, Events: events, Invalidate: invalidate, Now: time.Now}
}

type createDocumentReq struct {
	ID             string `json:"id"`
	DocumentID     string `json:"document_id"`
	SenderOrg      string `json:"senderOrg"`
	ApplicantName  string `json:"applicantName"`
	OrgEmail       string `json:"orgEmail"`
	ContactNumber  string `json:"contactNumber"`
	ReceivedOffice string `json:"receivedOffice"`
	ReceiptDate    string `json:"receiptDate"`
	Purpose        string `json:"purpose"`
	Details        string `json:"details"`
	Status         string `json:"status"`
	SubmittedBy    string `json:"submittedBy"`
	Role           string `json:"role"`
}

type updateStatusReq struct {
	Status string `json:"status"`
	Role   string `json:"role"`
}

type roleReq struct {
	Role string `json:"role"`
}

// caller resolves who is acting.  Identity verified by JWTAuth wins over
// the role and email the client sent.
func caller(c echo.Context, role, email string) (model.Role, string) {
	if r, ok := c.Get(middleware.CtxRole).(string); ok && r != "" {
		role = r
		if e, ok := c.Get(middleware.CtxEmail).(string); ok {
			email = e
		}
	}
	return model.NormalizeRole(role), strings.TrimSpace(email)
}

func docFail(c echo.Context, status int, msg string) error {
	return c.JSON(status, echo.Map{"success": false, "message": msg})
}

// Create stores a new document.  Citizens are refused before anything in
// the payload is looked at.
func (h *DocumentHandler) Create(c echo.Context) error {
	var req createDocumentReq
	if err := c.Bind(&req); err != nil {
		return docFail(c, http.StatusBadRequest, "invalid body")
	}
	role, email := caller(c, req.Role, req.SubmittedBy)
	if role.IsCitizen() {
		return docFail(c, http.StatusForbidden, "Citizens are not allowed to submit documents.")
	}

	d := model.Document{
		ID:             strings.TrimSpace(req.ID),
		SenderOrg:      strings.TrimSpace(req.SenderOrg),
		ApplicantName:  strings.TrimSpace(req.ApplicantName),
		ContactNumber:  strings.TrimSpace(req.ContactNumber),
		ReceivedOffice: strings.TrimSpace(req.ReceivedOffice),
		SubmittedBy:    email,
		OrgEmail:       optional(req.OrgEmail),
		Purpose:        optional(req.Purpose),
		Details:        optional(req.Details),
		Status:         model.StatusSubmitted,
	}
	if d.ID == "" {
		d.ID = strings.TrimSpace(req.DocumentID)
	}
	if d.SenderOrg == "" || d.ApplicantName == "" || d.ReceivedOffice == "" || d.SubmittedBy == "" || d.ContactNumber == "" {
		return docFail(c, http.StatusBadRequest, "Missing required fields")
	}
	if s := strings.TrimSpace(req.Status); s != "" {
		st, ok := model.ParseStatus(s)
		if !ok {
			return docFail(c, http.StatusBadRequest, "Invalid status")
		}
		d.Status = st
	}
	if d.OrgEmail != nil && !validEmail(*d.OrgEmail) {
		return docFail(c, http.StatusBadRequest, "Please enter a valid organization email.")
	}

	now := h.Now()
	today := model.DateOf(now)
	d.ReceiptDate = today
	if s := strings.TrimSpace(req.ReceiptDate); s != "" {
		rd, err := model.ParseDate(s)
		if err != nil {
			return docFail(c, http.StatusBadRequest, "Receipt date must be in YYYY-MM-DD format.")
		}
		if rd.After(today.Time) {
			return docFail(c, http.StatusBadRequest, "Receipt date cannot be in the future.")
		}
		d.ReceiptDate = rd
	}
	if d.ID == "" {
		d.ID = newDocumentID(now)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Docs.Create(ctx, d); err != nil {
		if errors.Is(err, repository.ErrDocumentExists) {
			return docFail(c, http.StatusConflict, "A document with this ID already exists.")
		}
		c.Logger().Errorf("create document %s: %v", d.ID, err)
		return docFail(c, http.StatusInternalServerError, msgServerError)
	}
	h.afterMutation(c, q.DocumentEvent{
		Type:       q.EventDocumentSubmitted,
		DocumentID: d.ID,
		Status:     string(d.Status),
		ActorRole:  string(role),
		ActorEmail: email,
	})
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "message": "Document submitted", "documentId": d.ID})
}

// newDocumentID mirrors the web client's "DOC-<year>-<suffix>" ids.
func newDocumentID(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return "DOC-" + strconv.Itoa(now.Year()) + "-" + suffix
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// Search answers the three role-shaped searches:
//   - citizens look a document up by id or contact number
//   - admins search everything, and an empty query lists all documents
//   - everyone else searches only what they submitted
func (h *DocumentHandler) Search(c echo.Context) error {
	term := strings.TrimSpace(c.QueryParam("query"))
	rawRole := c.QueryParam("role")
	if strings.TrimSpace(rawRole) == "" {
		rawRole = "user"
	}
	role, email := caller(c, rawRole, c.QueryParam("email"))

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	var (
		rows any
		err  error
	)
	switch {
	case role.IsCitizen():
		if term == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Search query is required for citizens"})
		}
		rows, err = h.Docs.SearchByReference(ctx, term)
	case role.IsAdmin():
		rows, err = h.Docs.SearchAll(ctx, term)
	default:
		if term == "" || email == "" {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "Search query and email are required"})
		}
		rows, err = h.Docs.SearchSubmitted(ctx, email, term)
	}
	if err != nil {
		c.Logger().Errorf("search documents as %s: %v", role, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	return c.JSON(http.StatusOK, rows)
}

// UpdateStatus re-triages a document.  Admin only.
func (h *DocumentHandler) UpdateStatus(c echo.Context) error {
	var req updateStatusReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	role, email := caller(c, req.Role, "")
	if !role.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Unauthorized: Only admin can update status"})
	}
	status, ok := model.ParseStatus(req.Status)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "Status must be one of Submitted, Processing, Approved, Rejected"})
	}
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Docs.UpdateStatus(ctx, id, status); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Document not found"})
		}
		c.Logger().Errorf("update status of %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	h.afterMutation(c, q.DocumentEvent{
		Type:       q.EventDocumentStatusChanged,
		DocumentID: id,
		Status:     string(status),
		ActorRole:  string(role),
		ActorEmail: email,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Document status updated"})
}

// Delete removes a document.  Admin only; the role may come in the body or
// as ?role=.
func (h *DocumentHandler) Delete(c echo.Context) error {
	var req roleReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if strings.TrimSpace(req.Role) == "" {
		req.Role = c.QueryParam("role")
	}
	role, email := caller(c, req.Role, "")
	if !role.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden: You do not have permission to delete."})
	}
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	if err := h.Docs.Delete(ctx, id); err != nil {
		if err == sql.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "Document not found"})
		}
		c.Logger().Errorf("delete document %s: %v", id, err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	h.afterMutation(c, q.DocumentEvent{
		Type:       q.EventDocumentDeleted,
		DocumentID: id,
		ActorRole:  string(role),
		ActorEmail: email,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "Document deleted successfully"})
}

// Stats returns the per-status summary shown on the admin dashboard.
func (h *DocumentHandler) Stats(c echo.Context) error {
	role, _ := caller(c, c.QueryParam("role"), "")
	if !role.IsAdmin() {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "Forbidden"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	sum, err := h.Docs.CountByStatus(ctx)
	if err != nil {
		c.Logger().Errorf("document stats: %v", err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": msgServerError})
	}
	return c.JSON(http.StatusOK, sum)
}

// afterMutation drops cached searches and publishes ev.  Both are best
// effort; the write already succeeded.
func (h *DocumentHandler) afterMutation(c echo.Context, ev q.DocumentEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request().Context()), 3*time.Second)
	defer cancel()

	if h.Invalidate != nil {
		if err := h.Invalidate(ctx); err != nil {
			c.Logger().Warnf("search cache invalidation: %v", err)
		}
	}
	if h.Events != nil {
		ev.At = h.Now().UTC().Format(time.RFC3339)
		if err := h.Events.PublishDocumentEvent(ctx, ev); err != nil {
			c.Logger().Warnf("publish %s for %s: %v", ev.Type, ev.DocumentID, err)
		}
	}
}
