package Permissions

import (
	"context"
	"errors"
	"fmt"

	"Taskflow/Models"
	"Taskflow/Store"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

// Resolver answers whether a user may perform a named operation, using the
// per-role configuration rows.
type Resolver struct {
	store *Store.Store
}

func NewResolver(s *Store.Store) *Resolver {
	return &Resolver{store: s}
}

// With returns a resolver reading through the given (usually transactional)
// store.
func (r *Resolver) With(s *Store.Store) *Resolver {
	return &Resolver{store: s}
}

// CanPerform reports whether user holds perm. Admins always pass. A role
// with no configuration row is a ConfigMissing error, not a denial.
func (r *Resolver) CanPerform(ctx context.Context, user *Models.User, perm Models.Permission) (bool, error) {
	if user == nil {
		return false, nil
	}
	if user.IsAdmin() {
		return true, nil
	}
	var cfg Models.RoleConfig
	err := r.store.DB().WithContext(ctx).Where("role_name = ?", user.Role).First(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, Models.NewConfigMissing(user.Role)
	}
	if err != nil {
		return false, fmt.Errorf("failed to load role configuration for %s: %w", user.Role, err)
	}
	return slices.Contains(cfg.PermissionList(), string(perm)), nil
}

// Require is CanPerform with denial turned into a Forbidden error.
func (r *Resolver) Require(ctx context.Context, user *Models.User, perm Models.Permission) error {
	ok, err := r.CanPerform(ctx, user, perm)
	if err != nil {
		return err
	}
	if !ok {
		return Models.NewForbidden("you do not have permission to perform this action")
	}
	return nil
}

// RequireRole rejects users whose role is not one of roles.
func RequireRole(user *Models.User, roles ...Models.Role) error {
	if user != nil && slices.Contains(roles, user.Role) {
		return nil
	}
	return Models.NewForbidden("access forbidden: insufficient role permissions")
}
