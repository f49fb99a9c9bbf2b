package document

import "regexp"

// Reserved pseudo-principals. They can receive grants and appear in owner
// chains, but never correspond to a real account and must be rejected as
// login identities.
const (
	Anonymous = "anonymous"
	AnyUser   = "anyuser"
)

var (
	emailRe     = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	groupNameRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)
)

// IsEmail reports whether s is syntactically a user email. It is a pure
// shape check; whether the account actually exists is a storage lookup.
func IsEmail(s string) bool {
	return emailRe.MatchString(s)
}

// IsGroupName reports whether s is a syntactically valid group name:
// alphanumeric plus "_-.", and never shaped like an email. The reserved
// pseudo-principals pass this check so they can be used as owner tokens.
func IsGroupName(s string) bool {
	return groupNameRe.MatchString(s) && !IsEmail(s)
}

// IsReservedPrincipal reports whether s names one of the pseudo-principals.
func IsReservedPrincipal(s string) bool {
	return s == Anonymous || s == AnyUser
}

// IsOwnerToken reports whether s may appear in an $owners chain past
// index 0: a user email or a group-name token.
func IsOwnerToken(s string) bool {
	return IsEmail(s) || IsGroupName(s)
}
