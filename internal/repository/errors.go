// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to tell a conflict on
// a unique column apart from an infrastructure failure. Not-found is
// reported with sql.ErrNoRows throughout.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrUsernameTaken and ErrEmailTaken identify which unique key of a
// credential table rejected an insert. ErrDuplicate is used when the key
// name does not tell.
var (
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already registered")
	ErrDuplicate     = errors.New("duplicate entry")
)

// ErrDocumentExists is returned when a document id is already in use.
var ErrDocumentExists = errors.New("document already exists")

// erDupEntry is MySQL's ER_DUP_ENTRY.
const erDupEntry = 1062

func isDuplicateKey(err error) (*mysql.MySQLError, bool) {
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == erDupEntry {
		return me, true
	}
	return nil, false
}

// accountInsertError maps a duplicate-key failure on users/admins to the
// sentinel naming the offending key. Only the key name is inspected; the
// duplicated value is user input and may contain anything.
func accountInsertError(err error) error {
	me, ok := isDuplicateKey(err)
	if !ok {
		return err
	}
	switch duplicateKeyName(me.Message) {
	case "username":
		return ErrUsernameTaken
	case "email":
		return ErrEmailTaken
	}
	return ErrDuplicate
}

// duplicateKeyName extracts the key from "Duplicate entry '...' for key
// 'k'". MySQL 8.0 prefixes the table ('users.username'), 5.7 does not.
func duplicateKeyName(msg string) string {
	const marker = " for key '"
	i := strings.LastIndex(msg, marker)
	if i < 0 {
		return ""
	}
	key := strings.TrimSuffix(msg[i+len(marker):], "'")
	if j := strings.LastIndexByte(key, '.'); j >= 0 {
		key = key[j+1:]
	}
	return strings.ToLower(key)
}
