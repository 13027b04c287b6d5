package model

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// Status is the triage state of a document.
type Status string

const (
	StatusSubmitted  Status = "Submitted"
	StatusProcessing Status = "Processing"
	StatusApproved   Status = "Approved"
	StatusRejected   Status = "Rejected"
)

// Statuses lists every status in lifecycle order.
var Statuses = []Status{StatusSubmitted, StatusProcessing, StatusApproved, StatusRejected}

// ParseStatus matches case-insensitively and returns the canonical spelling.
func ParseStatus(s string) (Status, bool) {
	s = strings.TrimSpace(s)
	for _, st := range Statuses {
		if strings.EqualFold(s, string(st)) {
			return st, true
		}
	}
	return "", false
}

// DateLayout is the wire and storage format of receipt dates.
const DateLayout = "2006-01-02"

// Date is a calendar day.  It serializes as "YYYY-MM-DD" both in JSON and
// towards the database, and scans from DATE columns regardless of whether
// the driver hands back a time.Time or text.
type Date struct{ time.Time }

func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, err
	}
	return Date{t}, nil
}

// DateOf truncates t to its UTC calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.UTC().Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	return d.scanText(s)
}

func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateLayout), nil
}

func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		return d.scanText(string(v))
	case string:
		return d.scanText(v)
	}
	return fmt.Errorf("model: cannot scan %T into Date", src)
}

func (d *Date) scanText(s string) error {
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Document is a full row of the document table.
type Document struct {
	ID             string  `db:"document_id" json:"id"`
	SenderOrg      string  `db:"senderOrg" json:"senderOrg"`
	ApplicantName  string  `db:"applicantName" json:"applicantName"`
	OrgEmail       *string `db:"orgEmail" json:"orgEmail"`
	ContactNumber  string  `db:"contactNumber" json:"contactNumber"`
	ReceivedOffice string  `db:"receivedOffice" json:"receivedOffice"`
	ReceiptDate    Date    `db:"receiptDate" json:"receiptDate"`
	Purpose        *string `db:"purpose" json:"purpose"`
	Details        *string `db:"details" json:"details"`
	Status         Status  `db:"status" json:"status"`
	SubmittedBy    string  `db:"submittedBy" json:"submittedBy"`
}

// DocumentRow is what organizations and admins see in search results.
// The contact number is never part of a search projection.
type DocumentRow struct {
	ID             string  `db:"id" json:"id"`
	SenderOrg      string  `db:"senderOrg" json:"senderOrg"`
	ApplicantName  string  `db:"applicantName" json:"applicantName"`
	OrgEmail       *string `db:"orgEmail" json:"orgEmail"`
	ReceivedOffice string  `db:"receivedOffice" json:"receivedOffice"`
	ReceiptDate    Date    `db:"receiptDate" json:"receiptDate"`
	Purpose        *string `db:"purpose" json:"purpose"`
	Details        *string `db:"details" json:"details"`
	Status         Status  `db:"status" json:"status"`
	SubmittedBy    string  `db:"submittedBy" json:"submittedBy"`
}

// CitizenDocumentRow is the citizen projection: no organization email.
type CitizenDocumentRow struct {
	ID             string  `db:"id" json:"id"`
	SenderOrg      string  `db:"senderOrg" json:"senderOrg"`
	ApplicantName  string  `db:"applicantName" json:"applicantName"`
	ReceivedOffice string  `db:"receivedOffice" json:"receivedOffice"`
	ReceiptDate    Date    `db:"receiptDate" json:"receiptDate"`
	Purpose        *string `db:"purpose" json:"purpose"`
	Details        *string `db:"details" json:"details"`
	Status         Status  `db:"status" json:"status"`
	SubmittedBy    string  `db:"submittedBy" json:"submittedBy"`
}

// StatusSummary counts documents per status.
type StatusSummary struct {
	Total    int            `json:"total"`
	ByStatus map[Status]int `json:"byStatus"`
}
