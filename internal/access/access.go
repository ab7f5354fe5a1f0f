// Package access decides which branch a request may touch and which roles may
// perform which operations.
package access

import (
	"github.com/pawanbhattarai/PMS/internal/apperr"
	"github.com/pawanbhattarai/PMS/internal/models"
)

// Context is the authenticated caller, built from a fresh user read and passed
// explicitly into every operation.
type Context struct {
	UserID   uint
	Name     string
	Email    string
	Role     models.UserRole
	BranchID *uint
}

func FromUser(u *models.User) Context {
	return Context{
		UserID:   u.ID,
		Name:     u.Name,
		Email:    u.Email,
		Role:     u.Role,
		BranchID: u.BranchID,
	}
}

func (c Context) IsSuperAdmin() bool { return c.Role == models.RoleSuperAdmin }

// ResolveScope returns the branch a request operates on. super_admin gets the
// requested branch verbatim, which may be nil; every other role is pinned to
// its own branch whatever it asked for.
func ResolveScope(c Context, requested *uint) *uint {
	if c.IsSuperAdmin() {
		if requested == nil {
			return nil
		}
		id := *requested
		return &id
	}
	if c.BranchID == nil {
		return nil
	}
	id := *c.BranchID
	return &id
}

func Authorize(c Context, allowed ...models.UserRole) bool {
	for _, r := range allowed {
		if c.Role == r {
			return true
		}
	}
	return false
}

// WriteScope resolves the branch a create targets. The scope must be non-nil,
// and a non super_admin asking for another branch is refused rather than
// silently redirected.
func WriteScope(c Context, requested *uint) (uint, error) {
	scope := ResolveScope(c, requested)
	if scope == nil {
		if c.IsSuperAdmin() {
			return 0, apperr.Permissionf("a branch must be selected")
		}
		return 0, apperr.Permissionf("user is not assigned to a branch")
	}
	if !c.IsSuperAdmin() && requested != nil && *requested != *scope {
		return 0, apperr.Permissionf("branch %d is outside your scope", *requested)
	}
	return *scope, nil
}

// CheckBranch guards an operation on an existing entity owned by branchID.
func CheckBranch(c Context, branchID uint) error {
	scope := ResolveScope(c, &branchID)
	if scope == nil || (!c.IsSuperAdmin() && *scope != branchID) {
		return apperr.Permissionf("branch %d is outside your scope", branchID)
	}
	return nil
}

// CanAssignRole reports whether c may create or modify a user with the given
// role in the given branch.
func CanAssignRole(c Context, role models.UserRole, branchID *uint) bool {
	if !role.Valid() {
		return false
	}
	switch c.Role {
	case models.RoleSuperAdmin:
		if role == models.RoleSuperAdmin {
			return branchID == nil
		}
		return branchID != nil
	case models.RoleBranchAdmin:
		if role != models.RoleReceptionist && role != models.RoleRestaurantStaff && role != models.RoleHousekeeping {
			return false
		}
		return branchID != nil && c.BranchID != nil && *branchID == *c.BranchID
	}
	return false
}
