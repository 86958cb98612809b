package auth

import "testing"

func TestCanViewAllUsers(t *testing.T) {
	tests := []struct {
		name string
		p    Principal
		want bool
	}{
		{"admin", Principal{ID: "u1", Role: "admin"}, true},
		{"editor", Principal{ID: "u1", Role: "editor"}, false},
		{"viewer", Principal{ID: "u1", Role: "viewer"}, false},
		{"unknown role", Principal{ID: "u1", Role: "superuser"}, false},
		{"empty role", Principal{ID: "u1", Role: ""}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewAllUsers(tt.p); got != tt.want {
				t.Errorf("CanViewAllUsers(%+v) = %v, want %v", tt.p, got, tt.want)
			}
		})
	}
}

func TestCanViewUserActivity(t *testing.T) {
	tests := []struct {
		name   string
		p      Principal
		target string
		want   bool
	}{
		{"admin views anyone", Principal{ID: "u1", Role: "admin"}, "u2", true},
		{"admin views self", Principal{ID: "u1", Role: "admin"}, "u1", true},
		{"viewer views self", Principal{ID: "u1", Role: "viewer"}, "u1", true},
		{"viewer views other", Principal{ID: "u1", Role: "viewer"}, "u2", false},
		{"editor views other", Principal{ID: "u1", Role: "editor"}, "u2", false},
		{"empty target", Principal{ID: "u1", Role: "viewer"}, "", false},
		{"empty principal and target", Principal{ID: "", Role: "viewer"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewUserActivity(tt.p, tt.target); got != tt.want {
				t.Errorf("CanViewUserActivity(%+v, %q) = %v, want %v", tt.p, tt.target, got, tt.want)
			}
		})
	}
}

func TestCanViewEntityAuditLogs(t *testing.T) {
	tests := []struct {
		name       string
		p          Principal
		entityType string
		entityID   string
		want       bool
	}{
		{"admin any entity", Principal{ID: "u1", Role: "admin"}, "Sermon", "s1", true},
		{"viewer own user entity", Principal{ID: "u1", Role: "viewer"}, "User", "u1", true},
		{"viewer other user entity", Principal{ID: "u1", Role: "viewer"}, "User", "u2", false},
		{"viewer non-user entity with own id", Principal{ID: "u1", Role: "viewer"}, "Sermon", "u1", false},
		{"case sensitive entity type", Principal{ID: "u1", Role: "viewer"}, "user", "u1", false},
		{"empty entity id", Principal{ID: "", Role: "viewer"}, "User", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanViewEntityAuditLogs(tt.p, tt.entityType, tt.entityID); got != tt.want {
				t.Errorf("CanViewEntityAuditLogs(%+v, %q, %q) = %v, want %v",
					tt.p, tt.entityType, tt.entityID, got, tt.want)
			}
		})
	}
}

func TestCanManageInvitations(t *testing.T) {
	if !CanManageInvitations(Principal{ID: "u1", Role: "admin"}) {
		t.Error("admin should manage invitations")
	}
	if CanManageInvitations(Principal{ID: "u1", Role: "editor"}) {
		t.Error("editor should not manage invitations")
	}
	if CanManageInvitations(Principal{ID: "u1", Role: "viewer"}) {
		t.Error("viewer should not manage invitations")
	}
}
