package rbac

import (
	"context"
	"errors"
	"testing"
)

func TestCatalogEnsureIdempotent(t *testing.T) {
	repo := newFakeRepo()
	catalog := NewCatalog(repo, nil)
	defs := []PermissionDefinition{
		{Module: "sppg", Action: "approve", Description: "Approve SPPG onboarding"},
		{Module: "menu", Action: "create", Description: "Create menu plans"},
	}

	if err := catalog.Ensure(context.Background(), defs); err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	first, err := repo.ResolvePermissions(context.Background(), []string{"sppg.approve"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	defs[0].Description = "Approve or reject SPPG onboarding"
	if err := catalog.Ensure(context.Background(), defs); err != nil {
		t.Fatalf("second ensure: %v", err)
	}

	all, _ := repo.ListPermissions(context.Background())
	if len(all) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(all))
	}
	second, _ := repo.ResolvePermissions(context.Background(), []string{"sppg.approve"})
	if second["sppg.approve"].ID != first["sppg.approve"].ID {
		t.Fatalf("identity changed across ensure runs")
	}
	if second["sppg.approve"].Description != "Approve or reject SPPG onboarding" {
		t.Fatalf("description not refreshed")
	}
}

func TestCatalogEnsureRejectsDuplicates(t *testing.T) {
	catalog := NewCatalog(newFakeRepo(), nil)
	defs := []PermissionDefinition{
		{Module: "menu", Action: "create", Description: "a"},
		{Module: "menu", Action: "create", Description: "b"},
	}
	err := catalog.Ensure(context.Background(), defs)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCatalogEnsureRejectsEmptyName(t *testing.T) {
	catalog := NewCatalog(newFakeRepo(), nil)
	err := catalog.Ensure(context.Background(), []PermissionDefinition{{Module: "", Action: "create"}})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestCatalogResolveReportsMissing(t *testing.T) {
	repo := newFakeRepo()
	catalog := NewCatalog(repo, nil)
	if err := catalog.Ensure(context.Background(), []PermissionDefinition{
		{Module: "menu", Action: "read", Description: ""},
	}); err != nil {
		t.Fatalf("ensure: %v", err)
	}

	resolved, missing, err := catalog.Resolve(context.Background(), []string{"menu.read", "report.unused"})
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected 1 resolved, got %d", len(resolved))
	}
	if len(missing) != 1 || missing[0] != "report.unused" {
		t.Fatalf("expected report.unused missing, got %v", missing)
	}
}
