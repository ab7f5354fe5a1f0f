package models

import "time"

type UserRole string

const (
	RoleSuperAdmin      UserRole = "super_admin"
	RoleBranchAdmin     UserRole = "branch_admin"
	RoleReceptionist    UserRole = "receptionist"
	RoleRestaurantStaff UserRole = "restaurant_staff"
	RoleHousekeeping    UserRole = "housekeeping"
)

// Roles lists every role the system knows about.
var Roles = []UserRole{
	RoleSuperAdmin,
	RoleBranchAdmin,
	RoleReceptionist,
	RoleRestaurantStaff,
	RoleHousekeeping,
}

func (r UserRole) Valid() bool {
	for _, known := range Roles {
		if r == known {
			return true
		}
	}
	return false
}

// User: BranchID is nil only for super_admin.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BranchID     *uint     `gorm:"index" json:"branchId"`
	Name         string    `gorm:"size:100;not null" json:"name"`
	Email        string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	Role         UserRole  `gorm:"size:20;not null" json:"role"`
	Active       bool      `gorm:"not null" json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
