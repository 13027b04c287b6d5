package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/iliyamo/document-tracking/internal/database/dbtest"
	"github.com/iliyamo/document-tracking/internal/model"
)

func strPtr(s string) *string { return &s }

func seedDocuments(t *testing.T, repo *DocumentRepo) {
	t.Helper()
	day, _ := model.ParseDate("2024-05-01")
	docs := []model.Document{
		{ID: "DOC-2024-0001", SenderOrg: "Acme", ApplicantName: "Ravi", OrgEmail: strPtr("desk@acme.org"), ContactNumber: "9876543210", ReceivedOffice: "Registry", ReceiptDate: day, Purpose: strPtr("Licence"), Status: model.StatusSubmitted, SubmittedBy: "desk@acme.org"},
		{ID: "DOC-2024-0002", SenderOrg: "Acme", ApplicantName: "Meera", ContactNumber: "9000000001", ReceivedOffice: "Registry", ReceiptDate: day, Status: model.StatusProcessing, SubmittedBy: "desk@acme.org"},
		{ID: "DOC-2024-0003", SenderOrg: "Globex", ApplicantName: "Ravi", OrgEmail: strPtr("info@globex.com"), ContactNumber: "9111111111", ReceivedOffice: "Land", ReceiptDate: day, Status: model.StatusApproved, SubmittedBy: "info@globex.com"},
	}
	for _, d := range docs {
		if err := repo.Create(context.Background(), d); err != nil {
			t.Fatalf("create %s: %v", d.ID, err)
		}
	}
}

func TestSearchByReference(t *testing.T) {
	repo := NewDocumentRepo(dbtest.Open(t))
	seedDocuments(t, repo)

	rows, err := repo.SearchByReference(context.Background(), "9111")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "DOC-2024-0003" {
		t.Fatalf("contact search = %+v", rows)
	}
	if rows[0].ReceiptDate.String() != "2024-05-01" {
		t.Errorf("receiptDate = %q", rows[0].ReceiptDate.String())
	}

	// Citizens cannot match on names.
	rows, err = repo.SearchByReference(context.Background(), "Ravi")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("citizen search matched names: %+v", rows)
	}
}

func TestSearchSubmittedIsScopedToSubmitter(t *testing.T) {
	repo := NewDocumentRepo(dbtest.Open(t))
	seedDocuments(t, repo)

	rows, err := repo.SearchSubmitted(context.Background(), "desk@acme.org", "Ravi")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "DOC-2024-0001" {
		t.Fatalf("rows = %+v", rows)
	}
	if rows[0].OrgEmail == nil || *rows[0].OrgEmail != "desk@acme.org" {
		t.Errorf("orgEmail missing from full projection")
	}

	// A name matching another submitter's document must not leak it.
	rows, err = repo.SearchSubmitted(context.Background(), "desk@acme.org", "Globex")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 0 {
		t.Errorf("foreign document leaked: %+v", rows)
	}
}

func TestSearchAll(t *testing.T) {
	repo := NewDocumentRepo(dbtest.Open(t))
	seedDocuments(t, repo)

	rows, err := repo.SearchAll(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("empty admin query returned %d rows, want 3", len(rows))
	}
	if rows[0].ID != "DOC-2024-0001" || rows[2].ID != "DOC-2024-0003" {
		t.Errorf("rows not ordered by id: %s..%s", rows[0].ID, rows[2].ID)
	}

	rows, err = repo.SearchAll(context.Background(), "globex.com")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].ID != "DOC-2024-0003" {
		t.Errorf("orgEmail search = %+v", rows)
	}

	rows, err = repo.SearchAll(context.Background(), "no-such-thing")
	if err != nil {
		t.Fatal(err)
	}
	if rows == nil || len(rows) != 0 {
		t.Errorf("empty result should be an empty slice, got %#v", rows)
	}
}

func TestUpdateStatusAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentRepo(dbtest.Open(t))
	seedDocuments(t, repo)

	if err := repo.UpdateStatus(ctx, "DOC-2024-0002", model.StatusApproved); err != nil {
		t.Fatal(err)
	}
	if err := repo.UpdateStatus(ctx, "DOC-missing", model.StatusApproved); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("update of unknown id: %v", err)
	}

	sum, err := repo.CountByStatus(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if sum.Total != 3 || sum.ByStatus[model.StatusApproved] != 2 || sum.ByStatus[model.StatusProcessing] != 0 || sum.ByStatus[model.StatusSubmitted] != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if _, ok := sum.ByStatus[model.StatusRejected]; !ok {
		t.Error("every status should be present in the summary")
	}

	if err := repo.Delete(ctx, "DOC-2024-0001"); err != nil {
		t.Fatal(err)
	}
	if err := repo.Delete(ctx, "DOC-2024-0001"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("second delete: %v", err)
	}
}
