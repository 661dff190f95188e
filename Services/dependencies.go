package Services

import (
	"context"
	"fmt"
	"strings"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"
	"Taskflow/email"

	"gorm.io/gorm"
)

type AddDependencyInput struct {
	PersonID    uint   `json:"person_id" validate:"required"`
	Description string `json:"description" validate:"required"`
}

type DependencyService struct {
	*Core
}

func NewDependencyService(core *Core) *DependencyService {
	return &DependencyService{Core: core}
}

// Add records that the task waits on person for description. The same
// person and description (ignoring case and surrounding space) can only be
// added once per task.
func (s *DependencyService) Add(ctx context.Context, actor *Models.User, taskID uint, in AddDependencyInput) (*Models.Dependency, error) {
	in.Description = strings.TrimSpace(in.Description)
	if err := s.check(in); err != nil {
		return nil, err
	}
	var dep *Models.Dependency
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		task, err := Store.Get[Models.Task](tx, taskID)
		if err != nil {
			return err
		}
		project, err := Store.Get[Models.Project](tx, task.ProjectID)
		if err != nil {
			return err
		}
		if !canTouchTask(actor, task, project) {
			return Models.NewForbidden("you are not allowed to add dependencies to this task")
		}
		if err := s.guard.CheckTask(task); err != nil {
			return err
		}
		person, err := requireUser(tx, &in.PersonID)
		if err != nil {
			return err
		}

		existing, err := Store.Count[Models.Dependency](tx, func(db *gorm.DB) *gorm.DB {
			return db.Where("task_id = ? AND person_id = ? AND description_key = ?",
				task.ID, person.ID, Models.DependencyKey(in.Description))
		})
		if err != nil {
			return err
		}
		if existing > 0 {
			return Models.NewDuplicateDependency(task.ID)
		}

		dep = &Models.Dependency{
			TaskID:      task.ID,
			PersonID:    person.ID,
			Description: in.Description,
			Status:      Models.DependencyPending,
		}
		if err := tx.Create(dep); err != nil {
			if Store.IsDuplicateKey(err) {
				return Models.NewDuplicateDependency(task.ID)
			}
			return err
		}

		fx.Audit(actor.ID, "Added Dependency", idString(dep.ID), "task",
			fmt.Sprintf("Task ID: %s depends on %s: %s", task.TaskCode, person.Name, dep.Description))
		fx.Mail([]string{person.Email}, "New Dependency Assigned", email.TemplateDependencyAdded, map[string]any{
			"Person":      person.Name,
			"TaskCode":    task.TaskCode,
			"TaskName":    task.Name,
			"Description": dep.Description,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dep, nil
}

// UpdateStatus lets the person a dependency is owed by report progress on
// it. The task's assigner is told by mail.
func (s *DependencyService) UpdateStatus(ctx context.Context, actor *Models.User, taskID, depID uint, status Models.DependencyStatus) (*Models.Dependency, error) {
	if !status.Valid() {
		return nil, Models.NewInvalidInput(fmt.Sprintf("invalid dependency status %q", status))
	}
	var dep *Models.Dependency
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		task, err := Store.Get[Models.Task](tx, taskID)
		if err != nil {
			return err
		}
		deps, err := Store.Find[Models.Dependency](tx, func(db *gorm.DB) *gorm.DB {
			return db.Where("id = ? AND task_id = ?", depID, task.ID)
		})
		if err != nil {
			return err
		}
		if len(deps) == 0 {
			return Models.NewNotFound("dependency", depID)
		}
		dep = &deps[0]
		if dep.PersonID != actor.ID {
			return Models.NewForbidden("you are not authorized to update this dependency status")
		}
		dep.Status = status
		if err := tx.Save(dep); err != nil {
			return err
		}

		fx.Audit(actor.ID, "Updated Dependency", idString(dep.ID), "task",
			fmt.Sprintf("Task ID: %s dependency %q is %s", task.TaskCode, dep.Description, status))
		assigner, err := Store.Get[Models.User](tx, task.AssignerID)
		if err != nil && !Models.HasCode(err, Models.ErrCodeNotFound) {
			return err
		}
		if assigner != nil {
			fx.Mail([]string{assigner.Email}, "Dependency Status Updated", email.TemplateDependencyStatus, map[string]any{
				"Description": dep.Description,
				"TaskCode":    task.TaskCode,
				"Status":      string(status),
				"Person":      actor.Name,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dep, nil
}

// ListByPerson returns the tasks that wait on person, each carrying only
// that person's dependencies. People may see their own list; admins and
// the person's manager may see anyone's.
func (s *DependencyService) ListByPerson(ctx context.Context, actor *Models.User, personID uint) ([]Models.Task, error) {
	st := s.read(ctx)
	if actor.ID != personID && !actor.IsAdmin() {
		person, err := Store.Get[Models.User](st, personID)
		if err != nil {
			return nil, err
		}
		if deref(person.ManagerID) != actor.ID {
			return nil, Permissions.RequireRole(actor, Models.RoleAdmin)
		}
	}
	return Store.Find[Models.Task](st, func(db *gorm.DB) *gorm.DB {
		return db.
			Where("id IN (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&Models.Dependency{}).
				Select("task_id").
				Where("person_id = ?", personID)).
			Preload("Dependencies", "person_id = ?", personID).
			Order("id")
	})
}
