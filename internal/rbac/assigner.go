package rbac

import (
	"context"
	"log/slog"
)

// GrantResult describes the outcome of a Grant call.
type GrantResult struct {
	// Granted lists permission names newly linked to the role.
	Granted []string
	// Existing lists names the role already held.
	Existing []string
	// Unresolved lists names absent from the catalog; they are skipped, not
	// fatal, so templates may reference permissions ahead of their rollout.
	Unresolved []string
}

// Assigner materializes permission grants on a role while enforcing the
// (role, permission) uniqueness invariant. Grant is idempotent: repeating a
// call converges to the same link set without duplicates.
type Assigner struct {
	repo     Repository
	catalog  *Catalog
	logger   *slog.Logger
	observer Observer
}

// NewAssigner constructs an Assigner.
func NewAssigner(repo Repository, catalog *Catalog, logger *slog.Logger, observer Observer) *Assigner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Assigner{repo: repo, catalog: catalog, logger: logger, observer: observerOrNoop(observer)}
}

// Grant links the role to every resolvable permission name. The role ends up
// holding the union of its previous grants and the resolvable names; existing
// grants are never removed. A storage failure aborts with the partial result,
// which is safe to retry.
func (a *Assigner) Grant(ctx context.Context, role Role, names []string) (GrantResult, error) {
	var result GrantResult

	ordered := dedupe(names)
	resolved, missing, err := a.catalog.Resolve(ctx, ordered)
	if err != nil {
		return result, err
	}
	for _, name := range missing {
		a.logger.Warn("skipping unresolvable permission",
			slog.String("permission", name),
			slog.String("role", role.Name))
		a.observer.PermissionUnresolved(name)
	}
	result.Unresolved = missing

	for _, name := range ordered {
		perm, ok := resolved[name]
		if !ok {
			continue
		}
		created, err := a.repo.EnsureRolePermission(ctx, role.ID, perm.ID)
		if err != nil {
			return result, err
		}
		if created {
			result.Granted = append(result.Granted, name)
			a.observer.GrantCreated()
		} else {
			result.Existing = append(result.Existing, name)
		}
	}
	return result, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
