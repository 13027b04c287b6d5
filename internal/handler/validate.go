package handler

import "regexp"

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	contactRe = regexp.MustCompile(`^[0-9]{10}$`)
)

// bcrypt only looks at the first 72 bytes and refuses longer input.
const (
	minPasswordLen = 6
	maxPasswordLen = 72
)

const msgPasswordTooLong = "Password must be at most 72 bytes long."

func validEmail(s string) bool   { return emailRe.MatchString(s) }
func validContact(s string) bool { return contactRe.MatchString(s) }
