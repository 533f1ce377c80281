package rbac

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gizihub/gizihub/internal/platform/httpx"
)

// AdminHandler exposes read-only views over the permission catalog and role
// registry.
type AdminHandler struct {
	logger   *slog.Logger
	repo     Repository
	registry *TemplateRegistry
	rbac     Middleware
}

// NewAdminHandler builds an AdminHandler instance.
func NewAdminHandler(logger *slog.Logger, repo Repository, registry *TemplateRegistry, rbac Middleware) *AdminHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AdminHandler{logger: logger, repo: repo, registry: registry, rbac: rbac}
}

// MountRoutes registers catalog routes.
func (h *AdminHandler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermPermissionsView))
		r.Get("/permissions", h.listPermissions)
		r.Get("/templates", h.listTemplates)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(PermRolesView))
		r.Get("/roles", h.listRoles)
		r.Get("/roles/{id}/permissions", h.listRolePermissions)
	})
}

func (h *AdminHandler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.repo.ListPermissions(r.Context())
	if err != nil {
		h.logger.Error("list permissions", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"permissions": perms})
}

func (h *AdminHandler) listTemplates(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, map[string]any{
		"system": h.registry.SystemTemplates(),
		"tenant": h.registry.TenantTemplates(),
	})
}

func (h *AdminHandler) listRoles(w http.ResponseWriter, r *http.Request) {
	var tenantID *int64
	if raw := r.URL.Query().Get("tenant_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid tenant_id")
			return
		}
		tenantID = &id
	}
	roles, err := h.repo.ListRoles(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("list roles", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"roles": roles})
}

func (h *AdminHandler) listRolePermissions(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid role id")
		return
	}
	// ListRolePermissions answers an empty set for unknown roles, so
	// existence is checked separately.
	if _, err := h.repo.GetRole(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "role not found")
			return
		}
		h.logger.Error("get role", slog.Any("error", err), slog.Int64("role_id", id))
		httpx.RespondError(w, err)
		return
	}
	perms, err := h.repo.ListRolePermissions(r.Context(), id)
	if err != nil {
		h.logger.Error("list role permissions", slog.Any("error", err), slog.Int64("role_id", id))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"role_id": id, "permissions": perms})
}
