package rbac

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func newAdminFixture(t *testing.T) (*fakeRepo, http.Handler) {
	t.Helper()
	repo := newFakeRepo()
	catalog := NewCatalog(repo, nil)
	if err := catalog.Ensure(context.Background(), Definitions()); err != nil {
		t.Fatalf("ensure catalog: %v", err)
	}
	registry, err := DefaultTemplateRegistry()
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	h := NewAdminHandler(nil, repo, registry, Middleware{})
	r := chi.NewRouter()
	r.Get("/roles/{id}/permissions", h.listRolePermissions)
	return repo, r
}

func TestListRolePermissionsUnknownRole(t *testing.T) {
	_, router := newAdminFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles/9999/permissions", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown role, got %d", rec.Code)
	}
}

func TestListRolePermissionsReturnsGrants(t *testing.T) {
	repo, router := newAdminFixture(t)

	role, _, err := repo.EnsureRole(context.Background(), nil, "Superadmin", "", true)
	if err != nil {
		t.Fatalf("ensure role: %v", err)
	}
	perms, err := repo.ResolvePermissions(context.Background(), []string{PermMenuView, PermMenuCreate})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, p := range perms {
		if _, err := repo.EnsureRolePermission(context.Background(), role.ID, p.ID); err != nil {
			t.Fatalf("grant: %v", err)
		}
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/roles/%d/permissions", role.ID), nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		RoleID      int64        `json:"role_id"`
		Permissions []Permission `json:"permissions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.RoleID != role.ID || len(body.Permissions) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}
}

func TestListRolePermissionsRejectsBadID(t *testing.T) {
	_, router := newAdminFixture(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/roles/abc/permissions", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", rec.Code)
	}
}
