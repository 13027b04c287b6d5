// Package dbtest opens throwaway SQLite databases carrying the same tables
// as internal/database/schema.sql, for repository and end-to-end tests.
package dbtest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// schema mirrors internal/database/schema.sql column for column. MySQL
// ENUMs become CHECK constraints. TestSchemaMatchesMySQL fails when the two
// drift apart.
const schema = `
CREATE TABLE users (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    username           TEXT NOT NULL UNIQUE,
    email              TEXT NOT NULL UNIQUE,
    contact            TEXT NOT NULL,
    password           TEXT NOT NULL,
    role               TEXT NOT NULL DEFAULT 'citizen' CHECK (role IN ('citizen', 'organization')),
    officeName         TEXT NULL,
    reset_token        TEXT NULL,
    reset_token_expiry BIGINT NULL
);
CREATE TABLE admins (
    id                 INTEGER PRIMARY KEY AUTOINCREMENT,
    username           TEXT NOT NULL UNIQUE,
    email              TEXT NOT NULL UNIQUE,
    contact            TEXT NOT NULL,
    password           TEXT NOT NULL,
    reset_token        TEXT NULL,
    reset_token_expiry BIGINT NULL
);
CREATE TABLE document (
    document_id    TEXT PRIMARY KEY,
    senderOrg      TEXT NOT NULL,
    applicantName  TEXT NOT NULL,
    orgEmail       TEXT NULL,
    contactNumber  TEXT NOT NULL,
    receivedOffice TEXT NOT NULL,
    receiptDate    DATE NOT NULL,
    purpose        TEXT NULL,
    details        TEXT NULL,
    status         TEXT NOT NULL DEFAULT 'Submitted' CHECK (status IN ('Submitted', 'Processing', 'Approved', 'Rejected')),
    submittedBy    TEXT NOT NULL
);
`

// Open returns an empty in-memory database closed at the end of the test.
// The pool is pinned to one connection because every SQLite :memory:
// connection is its own database.
func Open(tb testing.TB) *sqlx.DB {
	tb.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	if err != nil {
		tb.Fatalf("open sqlite: %v", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		tb.Fatalf("create schema: %v", err)
	}
	tb.Cleanup(func() { db.Close() })
	return db
}
