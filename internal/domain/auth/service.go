package auth

import (
	"context"

	"stockledger/internal/core/apperror"
	"stockledger/pkg/logger"
)

// RoleChecker re-reads the caller's role from their profile.
type RoleChecker struct {
	profiles ProfileRepository
}

// NewRoleChecker creates a new role checker.
func NewRoleChecker(profiles ProfileRepository) *RoleChecker {
	return &RoleChecker{profiles: profiles}
}

// Require fails with FORBIDDEN unless userID's profile holds one of roles.
// A missing profile is forbidden, not unauthorized.
func (c *RoleChecker) Require(ctx context.Context, userID string, roles ...Role) error {
	if userID == "" {
		return apperror.NewUnauthorized("authentication required")
	}

	profile, err := c.profiles.GetByID(ctx, userID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return apperror.NewForbidden("profile not found")
		}
		return err
	}

	if !profile.HasRole(roles...) {
		logger.Warn(ctx, "role check failed", "user_id", userID, "role", profile.Role)
		return apperror.NewForbidden("insufficient role").WithDetail("role", profile.Role)
	}
	return nil
}
