package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newGateFixture(t *testing.T) (*fakeRepo, *Gate, Role) {
	t.Helper()
	repo := newFakeRepo()
	catalog := NewCatalog(repo, nil)
	if err := catalog.Ensure(context.Background(), []PermissionDefinition{
		{Module: "menu", Action: "create"},
		{Module: "staff", Action: "delete"},
	}); err != nil {
		t.Fatalf("catalog: %v", err)
	}
	role, _, _ := repo.EnsureRole(context.Background(), nil, "Superadmin", "", true)
	assigner := NewAssigner(repo, catalog, nil, nil)
	if _, err := assigner.Grant(context.Background(), role, []string{"menu.create"}); err != nil {
		t.Fatalf("grant: %v", err)
	}
	return repo, NewGate(repo), role
}

func TestGateCheckExactMatch(t *testing.T) {
	_, gate, role := newGateFixture(t)

	held, err := gate.Check(context.Background(), []int64{role.ID}, "menu.create")
	if err != nil || !held {
		t.Fatalf("expected held=true, got held=%v err=%v", held, err)
	}

	// No wildcard or prefix matching.
	held, err = gate.Check(context.Background(), []int64{role.ID}, "menu")
	if err != nil || held {
		t.Fatalf("prefix must not match, got held=%v err=%v", held, err)
	}
	held, err = gate.Check(context.Background(), []int64{role.ID}, "staff.delete")
	if err != nil || held {
		t.Fatalf("unheld permission must be denied, got held=%v err=%v", held, err)
	}
}

func TestGateCheckEmptyRoleSet(t *testing.T) {
	_, gate, _ := newGateFixture(t)
	held, err := gate.Check(context.Background(), nil, "menu.create")
	if err != nil || held {
		t.Fatalf("empty role set must be denied without error, got held=%v err=%v", held, err)
	}
}

func TestGateCheckLookupErrorDenies(t *testing.T) {
	repo, gate, role := newGateFixture(t)
	repo.checkErr = errors.New("lookup failed")
	held, err := gate.Check(context.Background(), []int64{role.ID}, "menu.create")
	if held {
		t.Fatalf("lookup error must never grant access")
	}
	if err == nil {
		t.Fatalf("expected error propagation for the caller to deny on")
	}
}

func TestCachedGateMemoizesVerdicts(t *testing.T) {
	repo, gate, role := newGateFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cached := NewCachedGate(gate, client, time.Minute)

	held, err := cached.Check(context.Background(), []int64{role.ID}, "menu.create")
	if err != nil || !held {
		t.Fatalf("first check: held=%v err=%v", held, err)
	}
	calls := repo.checkCalls

	held, err = cached.Check(context.Background(), []int64{role.ID}, "menu.create")
	if err != nil || !held {
		t.Fatalf("cached check: held=%v err=%v", held, err)
	}
	if repo.checkCalls != calls {
		t.Fatalf("cached verdict still hit storage")
	}

	// Role order must not fragment the cache key.
	role2, _, _ := repo.EnsureRole(context.Background(), nil, "Other", "", true)
	if _, err := cached.Check(context.Background(), []int64{role.ID, role2.ID}, "menu.create"); err != nil {
		t.Fatalf("check: %v", err)
	}
	calls = repo.checkCalls
	if _, err := cached.Check(context.Background(), []int64{role2.ID, role.ID}, "menu.create"); err != nil {
		t.Fatalf("check: %v", err)
	}
	if repo.checkCalls != calls {
		t.Fatalf("permuted role set missed the cache")
	}
}

func TestCachedGateSkipsCacheOnError(t *testing.T) {
	repo, gate, role := newGateFixture(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cached := NewCachedGate(gate, client, time.Minute)

	repo.checkErr = errors.New("lookup failed")
	if held, err := cached.Check(context.Background(), []int64{role.ID}, "menu.create"); held || err == nil {
		t.Fatalf("expected denial with error, got held=%v err=%v", held, err)
	}

	// The failed lookup must not have poisoned the cache.
	repo.checkErr = nil
	held, err := cached.Check(context.Background(), []int64{role.ID}, "menu.create")
	if err != nil || !held {
		t.Fatalf("post-recovery check: held=%v err=%v", held, err)
	}
}
