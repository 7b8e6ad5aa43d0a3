package auth

import (
	"errors"
	"testing"
)

func TestRequireRole(t *testing.T) {
	allRoles := []Role{RoleUser, RoleAdmin, RoleSuperAdmin}
	allowSets := [][]Role{
		{RoleUser, RoleAdmin, RoleSuperAdmin},
		{RoleAdmin, RoleSuperAdmin},
		{RoleSuperAdmin},
		{},
	}
	for _, role := range allRoles {
		id := Identity{UserID: "u1", Role: role}
		for _, allowed := range allowSets {
			err := RequireRole(id, allowed...)
			want := false
			for _, a := range allowed {
				if a == role {
					want = true
				}
			}
			if want && err != nil {
				t.Fatalf("role %s vs %v: unexpected error %v", role, allowed, err)
			}
			if !want && !errors.Is(err, ErrForbidden) {
				t.Fatalf("role %s vs %v: expected ErrForbidden, got %v", role, allowed, err)
			}
		}
	}
}

func TestRequireRoleMissingIdentity(t *testing.T) {
	err := RequireRole(Identity{}, RoleUser)
	if !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated for zero identity, got %v", err)
	}
}
