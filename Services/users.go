package Services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"
	"Taskflow/email"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserInput struct {
	Name        string      `json:"name" validate:"required"`
	Email       string      `json:"email" validate:"required,email"`
	Role        Models.Role `json:"role" validate:"required,oneof=admin manager opic"`
	Team        string      `json:"team"`
	Location    string      `json:"location"`
	Designation string      `json:"designation"`
	ManagerID   *uint       `json:"manager_id"`
	// Password is generated when empty.
	Password string `json:"password" validate:"omitempty,min=8"`
}

type UpdateUserInput struct {
	Name        *string   `json:"name"`
	Email       *string   `json:"email" validate:"omitempty,email"`
	Team        *string   `json:"team"`
	Location    *string   `json:"location"`
	Designation *string   `json:"designation"`
	Permissions *[]string `json:"permissions"`
	Password    *string   `json:"password" validate:"omitempty,min=8"`
}

type UserService struct {
	*Core
	tokens *Tokens
}

func NewUserService(core *Core, tokens *Tokens) *UserService {
	return &UserService{Core: core, tokens: tokens}
}

type LoginResult struct {
	Token       string      `json:"token"`
	ExpiresAt   time.Time   `json:"expires_at"`
	ID          uint        `json:"id"`
	Name        string      `json:"name"`
	Role        Models.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}

func (s *UserService) Login(ctx context.Context, address, password string) (*LoginResult, error) {
	users, err := Store.Find[Models.User](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", normalizeEmail(address)).Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(users) == 0 {
		return nil, Models.NewUnauthorized("invalid credentials")
	}
	user := &users[0]
	if err := bcrypt.CompareHashAndPassword(user.Password, []byte(password)); err != nil {
		return nil, Models.NewUnauthorized("invalid credentials")
	}
	token, expires, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	perms := user.PermissionList()
	if cfg, err := s.roleConfig(s.read(ctx), user.Role); err == nil && cfg != nil {
		perms = cfg.PermissionList()
	}
	return &LoginResult{Token: token, ExpiresAt: expires, ID: user.ID, Name: user.Name, Role: user.Role, Permissions: perms}, nil
}

func (s *UserService) roleConfig(st *Store.Store, role Models.Role) (*Models.RoleConfig, error) {
	cfgs, err := Store.Find[Models.RoleConfig](st, func(db *gorm.DB) *gorm.DB {
		return db.Where("role_name = ?", role).Limit(1)
	})
	if err != nil || len(cfgs) == 0 {
		return nil, err
	}
	return &cfgs[0], nil
}

// Create adds an account. Managers are created by admins; opics by admins
// or managers, inheriting their manager's team. The credentials are mailed
// to the new user.
func (s *UserService) Create(ctx context.Context, actor *Models.User, in CreateUserInput) (*Models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := s.check(in); err != nil {
		return nil, err
	}
	var user *Models.User
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermCreateUser); err != nil {
			return err
		}
		switch in.Role {
		case Models.RoleAdmin, Models.RoleManager:
			if err := Permissions.RequireRole(actor, Models.RoleAdmin); err != nil {
				return err
			}
		case Models.RoleOpic:
			if err := Permissions.RequireRole(actor, Models.RoleAdmin, Models.RoleManager); err != nil {
				return err
			}
		}

		user = &Models.User{
			Name:        in.Name,
			Email:       in.Email,
			Role:        in.Role,
			Team:        in.Team,
			Location:    in.Location,
			Designation: in.Designation,
		}
		if in.Role == Models.RoleOpic {
			manager := actor
			if actor.IsAdmin() {
				manager = nil
				if in.ManagerID != nil {
					m, err := requireUser(tx, in.ManagerID)
					if err != nil {
						return err
					}
					if m.Role != Models.RoleManager {
						return Models.NewInvalidInput("an opic must report to a manager")
					}
					manager = m
				}
			}
			if manager != nil {
				id := manager.ID
				user.ManagerID = &id
				user.Team = manager.Team
			}
		}

		password := in.Password
		if password == "" {
			generated, err := generatePassword()
			if err != nil {
				return err
			}
			password = generated
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = hash

		if err := tx.Create(user); err != nil {
			if Store.IsDuplicateKey(err) {
				return Models.NewInvalidInput("user with this email already exists")
			}
			return err
		}

		fx.Audit(actor.ID, "Created User", idString(user.ID), "user",
			fmt.Sprintf("%s %s (%s)", user.Role, user.Name, user.Email))
		fx.Mail([]string{user.Email}, "Welcome to the platform!", email.TemplateWelcome, map[string]any{
			"Name":     user.Name,
			"Role":     string(user.Role),
			"Email":    user.Email,
			"Password": password,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Bootstrap creates an admin account without an acting user. It is used
// from the command line to set up a fresh installation.
func (s *UserService) Bootstrap(ctx context.Context, name, address, password string) (*Models.User, error) {
	if password == "" {
		return nil, Models.NewInvalidInput("an admin account needs a password")
	}
	in := CreateUserInput{Name: name, Email: normalizeEmail(address), Role: Models.RoleAdmin, Password: password}
	if err := s.check(in); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}
	user := &Models.User{Name: name, Email: in.Email, Role: Models.RoleAdmin, Password: hash}
	if err := s.read(ctx).Create(user); err != nil {
		if Store.IsDuplicateKey(err) {
			return nil, Models.NewInvalidInput("user with this email already exists")
		}
		return nil, err
	}
	return user, nil
}

// manages reports whether actor may edit or delete target: admins anyone,
// managers their own opics.
func manages(actor, target *Models.User) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == Models.RoleManager && target.Role == Models.RoleOpic && deref(target.ManagerID) == actor.ID
}

func (s *UserService) Update(ctx context.Context, actor *Models.User, id uint, in UpdateUserInput) (*Models.User, error) {
	if in.Email != nil {
		address := normalizeEmail(*in.Email)
		in.Email = &address
	}
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.Permissions != nil {
		for _, p := range *in.Permissions {
			if !Models.Permission(p).Valid() {
				return nil, Models.NewInvalidInput(fmt.Sprintf("unknown permission %q", p))
			}
		}
	}
	var user *Models.User
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		var err error
		user, err = Store.Get[Models.User](tx, id)
		if err != nil {
			return err
		}
		if user.ID != actor.ID {
			if err := s.require(ctx, tx, actor, Models.PermEditUser); err != nil {
				return err
			}
			if !manages(actor, user) {
				return Models.NewForbidden("you can only edit users you manage")
			}
		}
		if in.Permissions != nil && !actor.IsAdmin() {
			return Models.NewForbidden("only admins can change user permissions")
		}

		if in.Name != nil {
			user.Name = *in.Name
		}
		if in.Email != nil {
			user.Email = *in.Email
		}
		if in.Team != nil {
			user.Team = *in.Team
		}
		if in.Location != nil {
			user.Location = *in.Location
		}
		if in.Designation != nil {
			user.Designation = *in.Designation
		}
		if in.Permissions != nil {
			user.SetPermissions(*in.Permissions)
		}
		if in.Password != nil && *in.Password != "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(*in.Password), bcrypt.DefaultCost)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			user.Password = hash
		}
		if err := tx.Save(user); err != nil {
			if Store.IsDuplicateKey(err) {
				return Models.NewInvalidInput("user with this email already exists")
			}
			return err
		}
		fx.Audit(actor.ID, "Updated User", idString(user.ID), "user", user.Name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Delete removes an account. Opics of a deleted manager are left without a
// manager.
func (s *UserService) Delete(ctx context.Context, actor *Models.User, id uint) error {
	if actor.ID == id {
		return Models.NewInvalidInput("you cannot delete your own account")
	}
	return s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermDeleteUser); err != nil {
			return err
		}
		user, err := Store.Get[Models.User](tx, id)
		if err != nil {
			return err
		}
		if !manages(actor, user) {
			return Models.NewForbidden("you can only delete users you manage")
		}
		if err := tx.DB().Model(&Models.User{}).Where("manager_id = ?", id).Update("manager_id", nil).Error; err != nil {
			return fmt.Errorf("failed to detach opics: %w", err)
		}
		if err := Store.Purge[Models.DeviceToken](tx, "user_id = ?", id); err != nil {
			return err
		}
		if err := Store.Delete[Models.User](tx, "id = ?", id); err != nil {
			return err
		}
		fx.Audit(actor.ID, "Deleted User", idString(id), "user", fmt.Sprintf("%s (%s)", user.Name, user.Email))
		return nil
	})
}

// Profile reloads the caller's own account.
func (s *UserService) Profile(ctx context.Context, actor *Models.User) (*Models.User, error) {
	return Store.Get[Models.User](s.read(ctx), actor.ID)
}

func (s *UserService) Get(ctx context.Context, id uint) (*Models.User, error) {
	return Store.Get[Models.User](s.read(ctx), id)
}

// MyOpics lists the opics reporting to actor.
func (s *UserService) MyOpics(ctx context.Context, actor *Models.User) ([]Models.User, error) {
	if err := Permissions.RequireRole(actor, Models.RoleAdmin, Models.RoleManager); err != nil {
		return nil, err
	}
	return Store.Find[Models.User](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("manager_id = ? AND role = ?", actor.ID, Models.RoleOpic).Order("name")
	})
}

// ByRole lists users of one role, e.g. the managers an admin can pick from.
func (s *UserService) ByRole(ctx context.Context, actor *Models.User, role Models.Role) ([]Models.User, error) {
	if err := Permissions.RequireRole(actor, Models.RoleAdmin, Models.RoleManager); err != nil {
		return nil, err
	}
	return Store.Find[Models.User](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("role = ?", role).Order("name")
	})
}

func (s *UserService) ByTeam(ctx context.Context, team string) ([]Models.User, error) {
	return Store.Find[Models.User](s.read(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Where("team = ?", team).Order("name")
	})
}

func normalizeEmail(address string) string {
	return strings.ToLower(strings.TrimSpace(address))
}

func generatePassword() (string, error) {
	buf := make([]byte, 9)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate password: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
