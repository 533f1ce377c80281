package rbac

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"log/slog"

	"github.com/gizihub/gizihub/internal/shared"
)

// RoleSource resolves the role set a principal currently holds.
type RoleSource interface {
	RoleIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Middleware wires authorization helpers for HTTP handlers. Any lookup
// failure denies the request; ambiguity never grants access.
type Middleware struct {
	Checker  Checker
	Roles    RoleSource
	Logger   *slog.Logger
	Observer Observer
}

// RequireAny ensures the current user holds at least one of the permissions.
func (m Middleware) RequireAny(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			roleIDs, ok := m.currentRoleIDs(r)
			if !ok {
				m.deny(w)
				return
			}
			for _, perm := range normalized {
				held, err := m.Checker.Check(r.Context(), roleIDs, perm)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("rbac require any", slog.Any("error", err))
					}
					m.deny(w)
					return
				}
				if held {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w)
		})
	}
}

// RequireAll ensures the current user holds every listed permission.
func (m Middleware) RequireAll(perms ...string) func(http.Handler) http.Handler {
	normalized := normalizePermissions(perms)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(normalized) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			roleIDs, ok := m.currentRoleIDs(r)
			if !ok {
				m.deny(w)
				return
			}
			for _, perm := range normalized {
				held, err := m.Checker.Check(r.Context(), roleIDs, perm)
				if err != nil {
					if m.Logger != nil {
						m.Logger.Error("rbac require all", slog.Any("error", err))
					}
					m.deny(w)
					return
				}
				if !held {
					m.deny(w)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) deny(w http.ResponseWriter) {
	observerOrNoop(m.Observer).CheckDenied()
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}

func (m Middleware) currentRoleIDs(r *http.Request) ([]int64, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		return nil, false
	}
	raw := strings.TrimSpace(sess.User())
	if raw == "" {
		return nil, false
	}
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac parse user id", slog.String("value", raw))
		}
		return nil, false
	}
	roleIDs, err := m.Roles.RoleIDs(r.Context(), userID)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("rbac load roles", slog.Any("error", err), slog.Int64("user_id", userID))
		}
		return nil, false
	}
	return roleIDs, true
}

func normalizePermissions(perms []string) []string {
	unique := make(map[string]struct{}, len(perms))
	normalized := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.TrimSpace(strings.ToLower(p))
		if p == "" {
			continue
		}
		if _, ok := unique[p]; ok {
			continue
		}
		unique[p] = struct{}{}
		normalized = append(normalized, p)
	}
	return normalized
}
