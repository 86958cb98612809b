package auth

// Principal is the authenticated caller for the lifetime of one request.
// It is resolved from validated JWT claims by the auth middleware and is
// never persisted.
type Principal struct {
	ID   string
	Role string
}

// EntityTypeUser is the only entity kind for which non-admin principals may
// read audit logs about themselves.
const EntityTypeUser = "User"

// Every admin surface needs both a blanket admin rule and a narrow
// self-service exception. The predicates below centralize those rules so the
// handlers never grow divergent inline checks.

// CanViewAllUsers allows listing the full user directory.
func CanViewAllUsers(p Principal) bool {
	return IsAdmin(p.Role)
}

// CanViewUserActivity allows reading a user's activity feed. Non-admins may
// only read their own.
func CanViewUserActivity(p Principal, targetUserID string) bool {
	if IsAdmin(p.Role) {
		return true
	}
	return targetUserID != "" && p.ID == targetUserID
}

// CanViewEntityAuditLogs allows reading the audit trail of a single entity.
// The self-access exception applies only to the caller's own User entity.
func CanViewEntityAuditLogs(p Principal, entityType, entityID string) bool {
	if IsAdmin(p.Role) {
		return true
	}
	return entityType == EntityTypeUser && entityID != "" && entityID == p.ID
}

// CanManageInvitations allows revoking and resending invitations.
func CanManageInvitations(p Principal) bool {
	return IsAdmin(p.Role)
}
