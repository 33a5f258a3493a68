package auth

import (
	"context"
	"slices"
)

// Role is a profile role.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleWarehouse Role = "warehouse"
	RoleStaff     Role = "staff"
)

// Role sets used by privileged routes.
var (
	StockManagers = []Role{RoleAdmin, RoleWarehouse}
	Admins        = []Role{RoleAdmin}
)

// Profile is the caller's profile row.
type Profile struct {
	ID   string `db:"id" json:"id"`
	Role Role   `db:"role" json:"role"`
}

// HasRole reports whether the profile holds one of roles.
func (p *Profile) HasRole(roles ...Role) bool {
	return slices.Contains(roles, p.Role)
}

// ProfileRepository reads caller profiles.
type ProfileRepository interface {
	// GetByID returns the profile or NOT_FOUND.
	GetByID(ctx context.Context, userID string) (*Profile, error)
}
