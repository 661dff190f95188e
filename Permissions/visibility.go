package Permissions

import (
	"Taskflow/Models"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type Scope = func(*gorm.DB) *gorm.DB

func noFilter(db *gorm.DB) *gorm.DB { return db }

// VisibleProjects restricts a project query to what user may see: admins
// see everything, everyone else the projects they own or are assigned to.
func VisibleProjects(user *Models.User) Scope {
	if user.IsAdmin() {
		return noFilter
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(
			"projects.project_owner_id = ? OR projects.id IN (?)",
			user.ID,
			db.Session(&gorm.Session{NewDB: true}).
				Table("project_assignees").
				Select("project_id").
				Where("user_id = ?", user.ID),
		)
	}
}

// VisibleTasks: managers see tasks they are assignee or assigner of, opics
// only their own assignments.
func VisibleTasks(user *Models.User) Scope {
	return assignmentScope(user, "tasks")
}

// VisibleSubtasks applies the task rule to the subtask's own assignment.
func VisibleSubtasks(user *Models.User) Scope {
	return assignmentScope(user, "subtasks")
}

func assignmentScope(user *Models.User, table string) Scope {
	switch user.Role {
	case Models.RoleAdmin:
		return noFilter
	case Models.RoleManager:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(table+".assignee_id = ? OR "+table+".assigner_id = ?", user.ID, user.ID)
		}
	default:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where(table+".assignee_id = ?", user.ID)
		}
	}
}

// VisibleAuditLogs: managers see their own entries and their opics'.
func VisibleAuditLogs(user *Models.User) Scope {
	switch user.Role {
	case Models.RoleAdmin:
		return noFilter
	case Models.RoleManager:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("audit_logs.user_id = ? OR audit_logs.parent_id = ?", user.ID, user.ID)
		}
	default:
		return func(db *gorm.DB) *gorm.DB {
			return db.Where("audit_logs.user_id = ?", user.ID)
		}
	}
}

func VisibleNotifications(user *Models.User) Scope {
	if user.IsAdmin() {
		return noFilter
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("notifications.recipient_id = ?", user.ID)
	}
}

// CanViewProject is the in-memory form of VisibleProjects. AssignedUsers
// must be loaded.
func CanViewProject(user *Models.User, project *Models.Project) bool {
	if user.IsAdmin() {
		return true
	}
	return project.ProjectOwnerID == user.ID || slices.Contains(project.AssignedUserIDs(), user.ID)
}

func CanViewTask(user *Models.User, task *Models.Task) bool {
	return canView(user, task.AssigneeID, &task.AssignerID)
}

func CanViewSubtask(user *Models.User, subtask *Models.Subtask) bool {
	return canView(user, subtask.AssigneeID, subtask.AssignerID)
}

func canView(user *Models.User, assignee, assigner *uint) bool {
	is := func(id *uint) bool { return id != nil && *id == user.ID }
	switch user.Role {
	case Models.RoleAdmin:
		return true
	case Models.RoleManager:
		return is(assignee) || is(assigner)
	default:
		return is(assignee)
	}
}
