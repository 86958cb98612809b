package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gemeenteweb/server/internal/auth"
)

func newTestManager() *auth.JWTManager {
	return auth.NewJWTManager("test-secret", time.Hour, "gemeenteweb-test")
}

func TestRequireAuthRejectsMissingHeader(t *testing.T) {
	called := false
	handler := RequireAuth(newTestManager(), "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	if called {
		t.Error("next handler should not run")
	}
}

func TestRequireAuthRejectsGarbageToken(t *testing.T) {
	handler := RequireAuth(newTestManager(), "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer not-a-jwt")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthResolvesPrincipal(t *testing.T) {
	manager := newTestManager()
	token, err := manager.Generate("user-42", "editor")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var got auth.Principal
	handler := RequireAuth(manager, "test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFrom(r)
		if !ok {
			t.Error("principal missing in wrapped handler")
		}
		got = p
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got.ID != "user-42" || got.Role != "editor" {
		t.Errorf("principal = %+v", got)
	}
}

func TestPrincipalFromFailsClosed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	if _, ok := PrincipalFrom(req); ok {
		t.Error("unauthenticated request should yield no principal")
	}

	// Empty ID also fails closed
	req = req.WithContext(ContextWithPrincipal(req.Context(), auth.Principal{ID: "", Role: "admin"}))
	if _, ok := PrincipalFrom(req); ok {
		t.Error("principal with empty ID should fail closed")
	}
}
