// Package authz implements the permission evaluator shared by the HTTP guard
// and the client mirror. It is pure string matching with no I/O, defined once
// so server and client cannot drift apart.
package authz

import (
	"github.com/emrebicakcioglu/coaching-project-sub000/internal/core/domain"
)

// Mode selects how a multi-permission requirement combines.
type Mode string

const (
	// ModeAny grants when at least one required permission is satisfied.
	ModeAny Mode = "any"
	// ModeAll grants only when every required permission is satisfied.
	ModeAll Mode = "all"
)

// Can reports whether the granted set satisfies one required permission.
//
// A requirement is satisfied by, in order: an exact match, the category
// wildcard `category.*`, or the super-admin permission `*`. An empty
// requirement is public and always granted; an empty granted set denies
// every non-empty requirement.
func Can(granted domain.PermissionSet, required string) bool {
	if required == "" {
		return true
	}
	if len(granted) == 0 {
		return false
	}
	if granted.Has(required) {
		return true
	}
	if wildcard := domain.CategoryWildcard(required); wildcard != "" && granted.Has(wildcard) {
		return true
	}
	return granted.Has(domain.PermissionWildcardAll)
}

// CanAny reports whether any of the required permissions is satisfied.
// An empty requirement list is public.
func CanAny(granted domain.PermissionSet, required ...string) bool {
	return Evaluate(granted, required, ModeAny)
}

// CanAll reports whether every required permission is satisfied.
func CanAll(granted domain.PermissionSet, required ...string) bool {
	return Evaluate(granted, required, ModeAll)
}

// Evaluate applies the full rule set to a requirement list. A nil or empty
// requirement list is treated as public and always grants, regardless of mode.
func Evaluate(granted domain.PermissionSet, required []string, mode Mode) bool {
	if len(required) == 0 {
		return true
	}

	switch mode {
	case ModeAll:
		for _, permission := range required {
			if !Can(granted, permission) {
				return false
			}
		}
		return true
	default:
		for _, permission := range required {
			if Can(granted, permission) {
				return true
			}
		}
		return false
	}
}
