package model

import "database/sql"

// Account is a row of either credential table.  For admins Role is filled
// in by the repository since the admins table has no role column, and
// OfficeName is always null.
type Account struct {
	ID           uint64         `db:"id"`
	Username     string         `db:"username"`
	Email        string         `db:"email"`
	Contact      string         `db:"contact"`
	PasswordHash string         `db:"password"`
	Role         Role           `db:"role"`
	OfficeName   sql.NullString `db:"officeName"`
}

// NewAccount carries the values needed to insert an account.  PasswordHash
// must already be a bcrypt hash.
type NewAccount struct {
	Role         Role
	Username     string
	Email        string
	Contact      string
	PasswordHash string
	OfficeName   string
}
