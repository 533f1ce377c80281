package rbac

import (
	"context"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Checker answers whether a role set holds a named permission. Callers must
// treat any error as a denial; the gate never errs on the side of access.
type Checker interface {
	Check(ctx context.Context, roleIDs []int64, permission string) (bool, error)
}

// Gate is the read-side authorization contract consumed by every feature
// module. Permission names match exactly; there is no wildcard or hierarchy.
// Scoping a principal's roles to the tenant of the request is the caller's
// responsibility.
type Gate struct {
	repo Repository
}

// NewGate constructs a Gate.
func NewGate(repo Repository) *Gate {
	return &Gate{repo: repo}
}

// Check reports whether any of the roles holds the permission. An empty role
// set or blank name is a plain denial, not an error.
func (g *Gate) Check(ctx context.Context, roleIDs []int64, permission string) (bool, error) {
	if len(roleIDs) == 0 || permission == "" {
		return false, nil
	}
	return g.repo.AnyRoleHasPermission(ctx, roleIDs, permission)
}

// CachedGate memoizes verdicts in Redis for a short TTL. Cache failures fall
// through to the underlying checker; a stale grant is bounded by the TTL.
type CachedGate struct {
	next   Checker
	client *redis.Client
	ttl    time.Duration
}

// NewCachedGate wraps a checker with a Redis verdict cache.
func NewCachedGate(next Checker, client *redis.Client, ttl time.Duration) *CachedGate {
	return &CachedGate{next: next, client: client, ttl: ttl}
}

// Check consults the cache before delegating.
func (c *CachedGate) Check(ctx context.Context, roleIDs []int64, permission string) (bool, error) {
	if len(roleIDs) == 0 || permission == "" {
		return false, nil
	}
	key := verdictKey(roleIDs, permission)
	if cached, err := c.client.Get(ctx, key).Result(); err == nil {
		return cached == "1", nil
	}

	held, err := c.next.Check(ctx, roleIDs, permission)
	if err != nil {
		return false, err
	}
	verdict := "0"
	if held {
		verdict = "1"
	}
	_ = c.client.Set(ctx, key, verdict, c.ttl).Err()
	return held, nil
}

func verdictKey(roleIDs []int64, permission string) string {
	ids := make([]int64, len(roleIDs))
	copy(ids, roleIDs)
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return "authz:" + permission + ":" + strings.Join(parts, ",")
}
