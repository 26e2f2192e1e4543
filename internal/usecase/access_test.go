package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

func TestAccessService_ResolveFromDatabase(t *testing.T) {
	repo := newPermRepoMock()
	repo.userPermissions[1] = []domain.Permission{
		{ID: 1, Name: "users.read", Category: "users"},
	}

	service := NewAccessService(repo, nil)

	set, err := service.ResolvePermissionSet(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !set.Has("users.read") || len(set) != 1 {
		t.Errorf("unexpected set: %v", set.Names())
	}
}

func TestAccessService_CacheHitSkipsDatabase(t *testing.T) {
	repo := newPermRepoMock()
	cache := newPermissionCacheMock()
	cache.sets[1] = domain.NewPermissionSet("users.read")

	service := NewAccessService(repo, nil).WithCache(cache, 30*time.Second)

	set, err := service.ResolvePermissionSet(context.Background(), 1)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !set.Has("users.read") {
		t.Errorf("unexpected set: %v", set.Names())
	}
	if repo.listByUserCalls != 0 {
		t.Errorf("cache hit must not query the database, got %d calls", repo.listByUserCalls)
	}
}

func TestAccessService_CacheMissPopulatesCache(t *testing.T) {
	repo := newPermRepoMock()
	repo.userPermissions[2] = []domain.Permission{
		{ID: 1, Name: "roles.read", Category: "roles"},
	}
	cache := newPermissionCacheMock()

	service := NewAccessService(repo, nil).WithCache(cache, 30*time.Second)

	if _, err := service.ResolvePermissionSet(context.Background(), 2); err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	cached, ok := cache.sets[2]
	if !ok || !cached.Has("roles.read") {
		t.Errorf("expected cache to hold the resolved set, got %v", cache.sets)
	}
}

func TestAccessService_CacheErrorFallsBackToDatabase(t *testing.T) {
	repo := newPermRepoMock()
	repo.userPermissions[3] = []domain.Permission{
		{ID: 1, Name: "users.read", Category: "users"},
	}
	cache := newPermissionCacheMock()
	cache.getErr = errors.New("redis down")

	service := NewAccessService(repo, nil).WithCache(cache, 30*time.Second)

	set, err := service.ResolvePermissionSet(context.Background(), 3)
	if err != nil {
		t.Fatalf("a cache outage must not deny access: %v", err)
	}
	if !set.Has("users.read") {
		t.Errorf("expected database fallback set, got %v", set.Names())
	}
}

func TestAccessService_DatabaseErrorPropagates(t *testing.T) {
	repo := newPermRepoMock()
	repo.userErr = errors.New("connection refused")

	service := NewAccessService(repo, nil)

	if _, err := service.ResolvePermissionSet(context.Background(), 1); err == nil {
		t.Fatal("storage failures must propagate, not be swallowed")
	}
}

func TestAccessService_CheckAnyCheckAll(t *testing.T) {
	repo := newPermRepoMock()
	repo.userPermissions[5] = []domain.Permission{
		{ID: 1, Name: "users.read", Category: "users"},
		{ID: 2, Name: "users.update", Category: "users"},
	}

	service := NewAccessService(repo, nil)
	ctx := context.Background()

	ok, err := service.CheckAny(ctx, 5, "users.read", "users.delete")
	if err != nil || !ok {
		t.Errorf("CheckAny: ok=%v err=%v", ok, err)
	}

	ok, err = service.CheckAll(ctx, 5, "users.read", "users.delete")
	if err != nil {
		t.Fatalf("CheckAll errored: %v", err)
	}
	if ok {
		t.Error("CheckAll should deny a partially held requirement")
	}

	// Empty requirement is public, even for an unknown user.
	ok, err = service.CheckAll(ctx, 999)
	if err != nil || !ok {
		t.Errorf("empty requirement must grant: ok=%v err=%v", ok, err)
	}
}
