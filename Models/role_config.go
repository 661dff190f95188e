package Models

import (
	"time"

	"gorm.io/datatypes"
)

type Permission string

const (
	PermCreateProject Permission = "create_project"
	PermEditProject   Permission = "edit_project"
	PermDeleteProject Permission = "delete_project"
	PermCreateTask    Permission = "create_task"
	PermEditTask      Permission = "edit_task"
	PermDeleteTask    Permission = "delete_task"
	PermCreateSubtask Permission = "create_subtask"
	PermEditSubtask   Permission = "edit_subtask"
	PermDeleteSubtask Permission = "delete_subtask"
	PermCreateUser    Permission = "create_user"
	PermEditUser      Permission = "edit_user"
	PermDeleteUser    Permission = "delete_user"
	PermViewAnalytics Permission = "view_analytics"
	PermManageRoles   Permission = "manage_roles"
	PermViewAllLeaves Permission = "view_all_leaves"
	PermManageLeaves  Permission = "manage_leaves"
)

// AllPermissions lists every permission name a RoleConfig may grant.
var AllPermissions = []Permission{
	PermCreateProject, PermEditProject, PermDeleteProject,
	PermCreateTask, PermEditTask, PermDeleteTask,
	PermCreateSubtask, PermEditSubtask, PermDeleteSubtask,
	PermCreateUser, PermEditUser, PermDeleteUser,
	PermViewAnalytics, PermManageRoles,
	PermViewAllLeaves, PermManageLeaves,
}

func (p Permission) Valid() bool {
	for _, known := range AllPermissions {
		if p == known {
			return true
		}
	}
	return false
}

// RoleConfig maps a role name to the permissions it grants.
type RoleConfig struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	RoleName    Role           `json:"role_name" gorm:"uniqueIndex;size:20;not null"`
	Permissions datatypes.JSON `json:"permissions"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (r *RoleConfig) PermissionList() []string {
	return decodeStrings(r.Permissions)
}

func (r *RoleConfig) SetPermissions(perms []string) {
	r.Permissions = encodeStrings(perms)
}
