package rbac

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Catalog defines and ensures existence of every permission the platform
// recognizes. The catalog is static per deployment; Ensure runs once at
// bootstrap and is idempotent.
type Catalog struct {
	repo   Repository
	logger *slog.Logger
}

// NewCatalog constructs a Catalog.
func NewCatalog(repo Repository, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = slog.Default()
	}
	return &Catalog{repo: repo, logger: logger}
}

// Ensure upserts every definition. An existing permission keeps its identity;
// only the description text is refreshed. A definition whose name collides
// with a differently-shaped existing permission fails with ErrConflict.
func (c *Catalog) Ensure(ctx context.Context, defs []PermissionDefinition) error {
	seen := make(map[string]struct{}, len(defs))
	for _, def := range defs {
		if strings.TrimSpace(def.Module) == "" || strings.TrimSpace(def.Action) == "" {
			return fmt.Errorf("%w: permission %q needs module and action", ErrConflict, def.Name())
		}
		name := def.Name()
		if _, dup := seen[name]; dup {
			return fmt.Errorf("%w: duplicate permission %s in catalog", ErrConflict, name)
		}
		seen[name] = struct{}{}

		stored, err := c.repo.EnsurePermission(ctx, def)
		if err != nil {
			return err
		}
		// ON CONFLICT keeps the original module/action, so a mismatch means
		// the name is being reused for a different capability.
		if stored.Module != def.Module || stored.Action != def.Action {
			return fmt.Errorf("%w: permission %s already registered as %s.%s", ErrConflict, name, stored.Module, stored.Action)
		}
	}
	c.logger.Info("permission catalog ensured", slog.Int("count", len(defs)))
	return nil
}

// Resolve maps permission names to their stored identities. Missing names are
// returned separately; deciding whether that is fatal belongs to the caller.
func (c *Catalog) Resolve(ctx context.Context, names []string) (map[string]Permission, []string, error) {
	resolved, err := c.repo.ResolvePermissions(ctx, names)
	if err != nil {
		return nil, nil, err
	}
	var missing []string
	for _, name := range names {
		if _, ok := resolved[name]; !ok {
			missing = append(missing, name)
		}
	}
	return resolved, missing, nil
}

// List returns the full catalog ordered by name.
func (c *Catalog) List(ctx context.Context) ([]Permission, error) {
	return c.repo.ListPermissions(ctx)
}
