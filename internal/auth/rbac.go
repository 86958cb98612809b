package auth

import "strings"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:  {},
	RoleEditor: {},
	RoleViewer: {},
}

// NormalizeRole maps an untrusted role string onto a known role. Anything
// unrecognized, including the empty string, degrades to viewer so a
// malformed claim never grants privileges.
func NormalizeRole(role string) Role {
	r := Role(strings.ToLower(strings.TrimSpace(role)))
	if _, ok := knownRoles[r]; ok {
		return r
	}
	return RoleViewer
}

// HasRole reports whether the normalized role is one of the allowed roles.
func HasRole(role string, allowed ...Role) bool {
	current := NormalizeRole(role)
	for _, candidate := range allowed {
		if current == candidate {
			return true
		}
	}
	return false
}

func IsAdmin(role string) bool {
	return HasRole(role, RoleAdmin)
}
