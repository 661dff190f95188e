package Permissions_test

import (
	"context"
	"testing"

	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"
	"Taskflow/Store/storetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanPerform(t *testing.T) {
	db := storetest.NewDB(t)
	r := Permissions.NewResolver(Store.New(db))
	ctx := context.Background()

	admin := storetest.CreateUser(t, db, "admin", Models.RoleAdmin, nil)
	manager := storetest.CreateUser(t, db, "manager", Models.RoleManager, nil)
	opic := storetest.CreateUser(t, db, "opic", Models.RoleOpic, &manager.ID)

	t.Run("admin bypasses configuration", func(t *testing.T) {
		ok, err := r.CanPerform(ctx, admin, Models.PermManageRoles)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing configuration is not a denial", func(t *testing.T) {
		_, err := r.CanPerform(ctx, opic, Models.PermCreateTask)
		require.Error(t, err)
		assert.True(t, Models.HasCode(err, Models.ErrCodeConfigMissing))
		assert.False(t, Models.HasCode(err, Models.ErrCodeForbidden))
	})

	storetest.GrantRole(t, db, Models.RoleManager, Models.PermCreateTask, Models.PermEditTask)

	t.Run("granted", func(t *testing.T) {
		ok, err := r.CanPerform(ctx, manager, Models.PermEditTask)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not granted", func(t *testing.T) {
		ok, err := r.CanPerform(ctx, manager, Models.PermDeleteProject)
		require.NoError(t, err)
		assert.False(t, ok)

		err = r.Require(ctx, manager, Models.PermDeleteProject)
		assert.True(t, Models.HasCode(err, Models.ErrCodeForbidden))
	})
}

func TestRequireRole(t *testing.T) {
	manager := &Models.User{Role: Models.RoleManager}
	assert.NoError(t, Permissions.RequireRole(manager, Models.RoleAdmin, Models.RoleManager))
	assert.True(t, Models.HasCode(Permissions.RequireRole(manager, Models.RoleAdmin), Models.ErrCodeForbidden))
	assert.Error(t, Permissions.RequireRole(nil, Models.RoleAdmin))
}
