// Package storetest opens throwaway databases for package tests.
package storetest

import (
	"fmt"
	"testing"
	"time"

	"Taskflow/Models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory sqlite database private to the test.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := Models.Connect("sqlite", dsn, nil)
	require.NoError(t, err)
	require.NoError(t, Models.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// Date builds a UTC midnight time.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func CreateUser(t testing.TB, db *gorm.DB, name string, role Models.Role, managerID *uint) *Models.User {
	t.Helper()
	user := &Models.User{
		Name:      name,
		Email:     name + "@example.com",
		Role:      role,
		Team:      "core",
		ManagerID: managerID,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// GrantRole stores a RoleConfig for role with the given permissions.
func GrantRole(t testing.TB, db *gorm.DB, role Models.Role, perms ...Models.Permission) {
	t.Helper()
	names := make([]string, 0, len(perms))
	for _, p := range perms {
		names = append(names, string(p))
	}
	cfg := &Models.RoleConfig{RoleName: role}
	cfg.SetPermissions(names)
	require.NoError(t, db.Create(cfg).Error)
}

// Clock is a FixedClock starting at the given instant.
func Clock(at time.Time) *Models.FixedClock {
	return &Models.FixedClock{At: at}
}
