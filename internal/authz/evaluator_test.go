package authz

import (
	"testing"

	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

func TestCan_ExactMatch(t *testing.T) {
	granted := domain.NewPermissionSet("users.read", "roles.read")

	if !Can(granted, "users.read") {
		t.Error("expected users.read to be granted")
	}
	if Can(granted, "users.delete") {
		t.Error("expected users.delete to be denied")
	}
}

func TestCan_EmptyRequirementIsPublic(t *testing.T) {
	if !Can(nil, "") {
		t.Error("empty requirement must always grant")
	}
	if !Can(domain.NewPermissionSet(), "") {
		t.Error("empty requirement must grant even with empty set")
	}
}

func TestCan_EmptySetDeniesEverything(t *testing.T) {
	for _, required := range []string{"users.read", "roles.*", "*", "anything"} {
		if Can(domain.NewPermissionSet(), required) {
			t.Errorf("empty set granted %q", required)
		}
		if Can(nil, required) {
			t.Errorf("nil set granted %q", required)
		}
	}
}

func TestCan_CategoryWildcard(t *testing.T) {
	granted := domain.NewPermissionSet("users.*")

	for _, name := range []string{"users.read", "users.create", "users.delete"} {
		if !Can(granted, name) {
			t.Errorf("expected users.* to cover %q", name)
		}
	}

	if Can(granted, "roles.read") {
		t.Error("users.* must not cover roles.read")
	}
}

func TestCan_SuperAdmin(t *testing.T) {
	granted := domain.NewPermissionSet("*")

	for _, name := range []string{"users.read", "roles.delete", "settings.write", "never.seen.before"} {
		if !Can(granted, name) {
			t.Errorf("expected * to cover %q", name)
		}
	}
}

func TestCan_NoSystemAdminSpecialCase(t *testing.T) {
	// Only the literal "*" acts as a super-admin signal.
	granted := domain.NewPermissionSet("system.admin")

	if Can(granted, "users.read") {
		t.Error("system.admin must not grant unrelated permissions")
	}
	if !Can(granted, "system.admin") {
		t.Error("system.admin should still match itself exactly")
	}
}

func TestEvaluate_EmptyListIsPublic(t *testing.T) {
	if !Evaluate(nil, nil, ModeAny) {
		t.Error("empty requirement list must grant (any)")
	}
	if !Evaluate(nil, []string{}, ModeAll) {
		t.Error("empty requirement list must grant (all)")
	}
}

func TestEvaluate_AnyMode(t *testing.T) {
	granted := domain.NewPermissionSet("users.read")

	if !Evaluate(granted, []string{"users.read", "users.delete"}, ModeAny) {
		t.Error("any-mode should grant when one requirement matches")
	}
	if Evaluate(granted, []string{"roles.read", "users.delete"}, ModeAny) {
		t.Error("any-mode should deny when no requirement matches")
	}
}

func TestEvaluate_AllMode(t *testing.T) {
	granted := domain.NewPermissionSet("users.read", "users.update")

	if !Evaluate(granted, []string{"users.read", "users.update"}, ModeAll) {
		t.Error("all-mode should grant when every requirement matches")
	}
	if Evaluate(granted, []string{"users.read", "users.delete"}, ModeAll) {
		t.Error("all-mode should deny when one requirement is missing")
	}
}

func TestEvaluate_AllModeWithWildcards(t *testing.T) {
	granted := domain.NewPermissionSet("users.*", "roles.read")

	if !Evaluate(granted, []string{"users.create", "users.delete", "roles.read"}, ModeAll) {
		t.Error("category wildcard should satisfy all-mode requirements")
	}
	if Evaluate(granted, []string{"users.create", "roles.delete"}, ModeAll) {
		t.Error("wildcard for one category must not leak into another")
	}
}

func TestCanAnyCanAll(t *testing.T) {
	granted := domain.NewPermissionSet("reports.view")

	if !CanAny(granted, "reports.view", "reports.export") {
		t.Error("CanAny should grant")
	}
	if CanAll(granted, "reports.view", "reports.export") {
		t.Error("CanAll should deny")
	}
	if !CanAll(granted) {
		t.Error("CanAll with no requirements is public")
	}
}
