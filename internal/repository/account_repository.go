package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/document-tracking/internal/model"
)

// accountTable binds an account kind to its table. The two credential
// tables differ: admins carry neither role nor officeName.
type accountTable struct {
	name    string
	columns string
	hasRole bool
}

func tableFor(kind model.AccountKind) accountTable {
	switch kind {
	case model.KindAdmin:
		return accountTable{name: "admins", columns: "id, username, email, contact, password"}
	default:
		return accountTable{name: "users", columns: "id, username, email, contact, password, role, officeName", hasRole: true}
	}
}

// AccountRepo persists citizens, organizations and admins.
type AccountRepo struct{ DB *sqlx.DB }

func NewAccountRepo(db *sqlx.DB) *AccountRepo { return &AccountRepo{DB: db} }

// Create inserts an account into the table its role maps to.
func (r *AccountRepo) Create(ctx context.Context, a model.NewAccount) error {
	var err error
	if model.KindOf(a.Role) == model.KindAdmin {
		_, err = r.DB.ExecContext(ctx,
			"INSERT INTO admins (username, email, contact, password) VALUES (?,?,?,?)",
			a.Username, a.Email, a.Contact, a.PasswordHash)
	} else {
		_, err = r.DB.ExecContext(ctx,
			"INSERT INTO users (username, email, contact, password, role, officeName) VALUES (?,?,?,?,?,?)",
			a.Username, a.Email, a.Contact, a.PasswordHash, string(a.Role), nullString(a.OfficeName))
	}
	if err != nil {
		return accountInsertError(err)
	}
	return nil
}

// GetByUsername returns sql.ErrNoRows when no account matches.
func (r *AccountRepo) GetByUsername(ctx context.Context, kind model.AccountKind, username string) (model.Account, error) {
	return r.getBy(ctx, kind, "username", username)
}

// GetByEmail returns sql.ErrNoRows when no account matches.
func (r *AccountRepo) GetByEmail(ctx context.Context, kind model.AccountKind, email string) (model.Account, error) {
	return r.getBy(ctx, kind, "email", email)
}

// getBy is only called with literal column names.
func (r *AccountRepo) getBy(ctx context.Context, kind model.AccountKind, column, value string) (model.Account, error) {
	t := tableFor(kind)
	var a model.Account
	err := r.DB.GetContext(ctx, &a,
		"SELECT "+t.columns+" FROM "+t.name+" WHERE "+column+" = ? LIMIT 1", value)
	if err != nil {
		return model.Account{}, err
	}
	if !t.hasRole {
		a.Role = model.RoleAdmin
	}
	return a, nil
}

// StoreResetToken overwrites any previous token of the account with email.
// Only the token hash is stored. Returns sql.ErrNoRows when no row matched.
func (r *AccountRepo) StoreResetToken(ctx context.Context, kind model.AccountKind, email, tokenHash string, expiry time.Time) error {
	t := tableFor(kind)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE "+t.name+" SET reset_token = ?, reset_token_expiry = ? WHERE email = ?",
		tokenHash, expiry.UnixMilli(), email)
	return requireRow(res, err)
}

// ResetPassword replaces the password of the account holding an unexpired
// token and clears the token in the same statement, so a token can be
// redeemed once. Returns sql.ErrNoRows when the token is unknown or expired.
func (r *AccountRepo) ResetPassword(ctx context.Context, kind model.AccountKind, tokenHash, passwordHash string, now time.Time) error {
	t := tableFor(kind)
	res, err := r.DB.ExecContext(ctx,
		"UPDATE "+t.name+" SET password = ?, reset_token = NULL, reset_token_expiry = NULL WHERE reset_token = ? AND reset_token_expiry > ?",
		passwordHash, tokenHash, now.UnixMilli())
	return requireRow(res, err)
}

// requireRow turns "statement matched nothing" into sql.ErrNoRows.
func requireRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func nullString(s string) sql.NullString {
	s = strings.TrimSpace(s)
	return sql.NullString{String: s, Valid: s != ""}
}
