package model

import "strings"

// Role is the kind of principal using the system.  It decides which
// credential table backs the account and which document operations are
// allowed.
type Role string

const (
	RoleCitizen      Role = "citizen"
	RoleOrganization Role = "organization"
	RoleAdmin        Role = "admin"
)

// NormalizeRole trims and lower-cases a caller supplied role string.  The
// result is not validated; unknown roles fall into the non-admin,
// non-citizen branch wherever a role only gates behaviour.
func NormalizeRole(s string) Role {
	return Role(strings.ToLower(strings.TrimSpace(s)))
}

// ParseRole accepts only the three registrable roles.
func ParseRole(s string) (Role, bool) {
	switch r := NormalizeRole(s); r {
	case RoleCitizen, RoleOrganization, RoleAdmin:
		return r, true
	}
	return "", false
}

// Title returns the role with its first letter upper-cased ("Citizen").
func (r Role) Title() string {
	if r == "" {
		return ""
	}
	return strings.ToUpper(string(r[:1])) + string(r[1:])
}

func (r Role) IsAdmin() bool   { return r == RoleAdmin }
func (r Role) IsCitizen() bool { return r == RoleCitizen }

// AccountKind selects the credential table.  Admins live in their own table
// without a role column; every other role shares the users table.
type AccountKind uint8

const (
	KindUser AccountKind = iota
	KindAdmin
)

// KindOf maps a role onto the table that stores it.  Anything other than
// admin, including roles the client made up (the web reset form sends
// "user"), resolves to the users table.
func KindOf(r Role) AccountKind {
	if r == RoleAdmin {
		return KindAdmin
	}
	return KindUser
}

func (k AccountKind) String() string {
	if k == KindAdmin {
		return "admin"
	}
	return "user"
}
