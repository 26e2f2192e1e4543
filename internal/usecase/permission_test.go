package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/repository"
)

func newPermissionFixture() (*PermissionService, *permRepoMock) {
	repo := newPermRepoMock()
	repo.seed(1, "users.read")
	repo.seed(2, "users.update")
	repo.seed(3, "roles.read")
	return NewPermissionService(repo), repo
}

func TestPermissionService_ListOrdered(t *testing.T) {
	service, _ := newPermissionFixture()

	permissions, err := service.ListPermissions(context.Background())
	if err != nil {
		t.Fatalf("ListPermissions failed: %v", err)
	}

	if len(permissions) != 3 {
		t.Fatalf("expected 3 permissions, got %d", len(permissions))
	}
	if permissions[0].Name != "roles.read" || permissions[1].Name != "users.read" {
		t.Errorf("expected category-then-name order, got %v", permissions)
	}
}

func TestPermissionService_GetPermission_NotFound(t *testing.T) {
	service, _ := newPermissionFixture()

	_, err := service.GetPermission(context.Background(), 404)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPermissionService_FindByName_NoRowsIsNil(t *testing.T) {
	service, _ := newPermissionFixture()

	permission, err := service.FindPermissionByName(context.Background(), "does.notexist")
	if err != nil {
		t.Fatalf("existence check must not error on no rows: %v", err)
	}
	if permission != nil {
		t.Errorf("expected nil, got %+v", permission)
	}

	permission, err = service.FindPermissionByName(context.Background(), "users.read")
	if err != nil {
		t.Fatalf("FindPermissionByName failed: %v", err)
	}
	if permission == nil || permission.ID != 1 {
		t.Errorf("expected users.read with id 1, got %+v", permission)
	}
}

func TestPermissionService_GroupedByCategory(t *testing.T) {
	service, repo := newPermissionFixture()
	// A permission without a category lands in the "other" bucket.
	repo.permissions[9] = domain.Permission{ID: 9, Name: "dashboard"}

	grouped, err := service.GroupedByCategory(context.Background())
	if err != nil {
		t.Fatalf("GroupedByCategory failed: %v", err)
	}

	if grouped.Total != 4 {
		t.Errorf("expected total 4, got %d", grouped.Total)
	}
	if len(grouped.Groups["users"]) != 2 {
		t.Errorf("expected 2 users permissions, got %d", len(grouped.Groups["users"]))
	}
	if len(grouped.Groups["roles"]) != 1 {
		t.Errorf("expected 1 roles permission, got %d", len(grouped.Groups["roles"]))
	}
	if len(grouped.Groups[domain.PermissionCategoryOther]) != 1 {
		t.Errorf("expected the uncategorized permission under %q, got %v",
			domain.PermissionCategoryOther, grouped.Groups)
	}
}

func TestPermissionService_ListCategories(t *testing.T) {
	service, _ := newPermissionFixture()

	categories, err := service.ListCategories(context.Background())
	if err != nil {
		t.Fatalf("ListCategories failed: %v", err)
	}

	if len(categories) != 2 || categories[0] != "roles" || categories[1] != "users" {
		t.Errorf("expected sorted [roles users], got %v", categories)
	}
}

func TestPermissionService_UserPermissions(t *testing.T) {
	service, repo := newPermissionFixture()
	repo.userPermissions[42] = []domain.Permission{
		{ID: 1, Name: "users.read", Category: "users"},
		{ID: 3, Name: "roles.read", Category: "roles"},
	}

	permissions, err := service.GetUserPermissions(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetUserPermissions failed: %v", err)
	}
	if len(permissions) != 2 {
		t.Fatalf("expected 2 permissions, got %d", len(permissions))
	}

	has, err := service.UserHasPermission(context.Background(), 42, "users.read")
	if err != nil {
		t.Fatalf("UserHasPermission failed: %v", err)
	}
	if !has {
		t.Error("expected users.read to be held")
	}

	has, err = service.UserHasPermission(context.Background(), 42, "users.delete")
	if err != nil {
		t.Fatalf("UserHasPermission failed: %v", err)
	}
	if has {
		t.Error("users.delete must not be held")
	}

	permissions, err = service.GetUserPermissions(context.Background(), 999)
	if err != nil {
		t.Fatalf("unknown user must yield empty set, not error: %v", err)
	}
	if len(permissions) != 0 {
		t.Errorf("expected empty set, got %v", permissions)
	}
}
