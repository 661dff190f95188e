package Services

import (
	"context"
	"fmt"
	"io"
	"sort"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Store"

	"github.com/yosuke-furukawa/json5/encoding/json5"
	"gorm.io/gorm"
)

type RoleService struct {
	*Core
}

func NewRoleService(core *Core) *RoleService {
	return &RoleService{Core: core}
}

func validatePermissions(role Models.Role, perms []string) error {
	if !role.Valid() || role == Models.RoleAdmin {
		return Models.NewInvalidInput(fmt.Sprintf("role %q cannot be configured", role))
	}
	var unknown []string
	for _, p := range perms {
		if !Models.Permission(p).Valid() {
			unknown = append(unknown, p)
		}
	}
	if len(unknown) > 0 {
		return Models.NewInvalidInput(fmt.Sprintf("invalid permissions: %v", unknown))
	}
	return nil
}

// Configure creates or replaces the permission set of a role.
func (s *RoleService) Configure(ctx context.Context, actor *Models.User, role Models.Role, perms []string) (*Models.RoleConfig, error) {
	if err := validatePermissions(role, perms); err != nil {
		return nil, err
	}
	var cfg *Models.RoleConfig
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermManageRoles); err != nil {
			return err
		}
		var err error
		cfg, err = upsertRole(tx, role, perms)
		if err != nil {
			return err
		}
		fx.Audit(actor.ID, "Configured Role", idString(cfg.ID), "role", fmt.Sprintf("%s: %v", role, perms))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func upsertRole(tx *Store.Store, role Models.Role, perms []string) (*Models.RoleConfig, error) {
	cfgs, err := Store.Find[Models.RoleConfig](tx, func(db *gorm.DB) *gorm.DB {
		return db.Where("role_name = ?", role).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	cfg := &Models.RoleConfig{RoleName: role}
	if len(cfgs) > 0 {
		cfg = &cfgs[0]
	}
	cfg.SetPermissions(perms)
	if cfg.ID == 0 {
		err = tx.Create(cfg)
	} else {
		err = tx.Save(cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s *RoleService) List(ctx context.Context, actor *Models.User) ([]Models.RoleConfig, error) {
	if err := s.resolver.Require(ctx, actor, Models.PermManageRoles); err != nil {
		return nil, err
	}
	return Store.Find[Models.RoleConfig](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Order("role_name")
	})
}

func (s *RoleService) Get(ctx context.Context, actor *Models.User, role Models.Role) (*Models.RoleConfig, error) {
	if err := s.resolver.Require(ctx, actor, Models.PermManageRoles); err != nil {
		return nil, err
	}
	cfgs, err := Store.Find[Models.RoleConfig](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("role_name = ?", role).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(cfgs) == 0 {
		return nil, Models.NewNotFound("role", role)
	}
	return &cfgs[0], nil
}

func (s *RoleService) Delete(ctx context.Context, actor *Models.User, role Models.Role) error {
	return s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermManageRoles); err != nil {
			return err
		}
		n, err := Store.Count[Models.RoleConfig](tx, func(db *gorm.DB) *gorm.DB {
			return db.Where("role_name = ?", role)
		})
		if err != nil {
			return err
		}
		if n == 0 {
			return Models.NewNotFound("role", role)
		}
		if err := Store.Delete[Models.RoleConfig](tx, "role_name = ?", role); err != nil {
			return err
		}
		fx.Audit(actor.ID, "Deleted Role", string(role), "role", "")
		return nil
	})
}

// Seed loads role permissions from a json5 document shaped like
// {manager: ["create_project", ...], opic: [...]}. Every role is validated
// before anything is written.
func (s *RoleService) Seed(ctx context.Context, r io.Reader) ([]Models.Role, error) {
	var doc map[string][]string
	if err := json5.NewDecoder(r).Decode(&doc); err != nil {
		return nil, Models.NewInvalidInput(fmt.Sprintf("malformed role file: %v", err))
	}
	roles := make([]Models.Role, 0, len(doc))
	for name, perms := range doc {
		role := Models.Role(name)
		if err := validatePermissions(role, perms); err != nil {
			return nil, err
		}
		roles = append(roles, role)
	}
	sort.Slice(roles, func(i, j int) bool { return roles[i] < roles[j] })

	err := s.store.Transaction(ctx, func(tx *Store.Store) error {
		for _, role := range roles {
			if _, err := upsertRole(tx, role, doc[string(role)]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}
