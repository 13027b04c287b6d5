package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/document-tracking/internal/model"
)

// Search projections. Citizens never see the organization email; nobody
// sees the contact number through search.
const (
	citizenProjection = "document_id AS id, senderOrg, applicantName, receivedOffice, receiptDate, purpose, details, status, submittedBy"
	fullProjection    = "document_id AS id, senderOrg, applicantName, orgEmail, receivedOffice, receiptDate, purpose, details, status, submittedBy"
)

// DocumentRepo persists document records.
type DocumentRepo struct{ DB *sqlx.DB }

func NewDocumentRepo(db *sqlx.DB) *DocumentRepo { return &DocumentRepo{DB: db} }

// Create inserts d. A taken document id yields ErrDocumentExists.
func (r *DocumentRepo) Create(ctx context.Context, d model.Document) error {
	_, err := r.DB.NamedExecContext(ctx, `INSERT INTO document (
			document_id, senderOrg, applicantName, orgEmail, contactNumber,
			receivedOffice, receiptDate, purpose, details, status, submittedBy
		) VALUES (
			:document_id, :senderOrg, :applicantName, :orgEmail, :contactNumber,
			:receivedOffice, :receiptDate, :purpose, :details, :status, :submittedBy
		)`, d)
	if _, dup := isDuplicateKey(err); dup {
		return ErrDocumentExists
	}
	return err
}

// SearchByReference is the citizen lookup: the term must appear in the
// document id or the contact number.
func (r *DocumentRepo) SearchByReference(ctx context.Context, term string) ([]model.CitizenDocumentRow, error) {
	like := likePattern(term)
	q, args := searchSQL(citizenProjection, "(document_id LIKE ? OR contactNumber LIKE ?)", like, like)
	out := []model.CitizenDocumentRow{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchSubmitted searches the documents submitted by one account.
func (r *DocumentRepo) SearchSubmitted(ctx context.Context, submittedBy, term string) ([]model.DocumentRow, error) {
	like := likePattern(term)
	q, args := searchSQL(fullProjection,
		"submittedBy = ? AND (document_id LIKE ? OR senderOrg LIKE ? OR applicantName LIKE ?)",
		submittedBy, like, like, like)
	out := []model.DocumentRow{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchAll is the admin search. An empty term returns every document.
func (r *DocumentRepo) SearchAll(ctx context.Context, term string) ([]model.DocumentRow, error) {
	var (
		q    string
		args []any
	)
	if strings.TrimSpace(term) == "" {
		q, args = searchSQL(fullProjection, "")
	} else {
		like := likePattern(term)
		q, args = searchSQL(fullProjection,
			"(document_id LIKE ? OR senderOrg LIKE ? OR applicantName LIKE ? OR orgEmail LIKE ?)",
			like, like, like, like)
	}
	out := []model.DocumentRow{}
	if err := r.DB.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateStatus returns sql.ErrNoRows when the id is unknown.
func (r *DocumentRepo) UpdateStatus(ctx context.Context, id string, status model.Status) error {
	res, err := r.DB.ExecContext(ctx, "UPDATE document SET status = ? WHERE document_id = ?", string(status), id)
	return requireRow(res, err)
}

// Delete returns sql.ErrNoRows when the id is unknown.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM document WHERE document_id = ?", id)
	return requireRow(res, err)
}

// CountByStatus summarizes the whole table. Every status is present in the
// result, with zero when no document has it.
func (r *DocumentRepo) CountByStatus(ctx context.Context) (model.StatusSummary, error) {
	var rows []struct {
		Status model.Status `db:"status"`
		N      int          `db:"n"`
	}
	if err := r.DB.SelectContext(ctx, &rows, "SELECT status, COUNT(*) AS n FROM document GROUP BY status"); err != nil {
		return model.StatusSummary{}, err
	}
	sum := model.StatusSummary{ByStatus: make(map[model.Status]int, len(model.Statuses))}
	for _, st := range model.Statuses {
		sum.ByStatus[st] = 0
	}
	for _, row := range rows {
		sum.ByStatus[row.Status] += row.N
		sum.Total += row.N
	}
	return sum, nil
}

func searchSQL(projection, where string, args ...any) (string, []any) {
	q := "SELECT " + projection + " FROM document"
	if where != "" {
		q += " WHERE " + where
	}
	return q + " ORDER BY document_id", args
}

func likePattern(term string) string {
	return "%" + strings.TrimSpace(term) + "%"
}
