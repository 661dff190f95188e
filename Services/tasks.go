package Services

import (
	"context"
	"fmt"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Identifiers"
	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"

	"gorm.io/gorm"
)

type CreateTaskInput struct {
	Name       string     `json:"task_name" validate:"required"`
	AssigneeID *uint      `json:"assignee_id"`
	StartDate  *time.Time `json:"start_date"`
	DueDate    *time.Time `json:"due_date"`
	Comment    string     `json:"comment"`
}

// UpdateTaskInput changes only the fields that are set. Progress is always
// derived and cannot be supplied.
type UpdateTaskInput struct {
	Name           *string            `json:"task_name"`
	AssigneeID     *uint              `json:"assignee_id"`
	StartDate      *time.Time         `json:"start_date"`
	DueDate        *time.Time         `json:"due_date"`
	TeamStatus     *Models.TaskStatus `json:"team_status"`
	CompletionDate *time.Time         `json:"completion_date"`
}

type TaskService struct {
	*Core
}

func NewTaskService(core *Core) *TaskService {
	return &TaskService{Core: core}
}

// canTouchTask is the write-side visibility rule: the task's own
// assignment, or ownership of the project it belongs to.
func canTouchTask(actor *Models.User, task *Models.Task, project *Models.Project) bool {
	if Permissions.CanViewTask(actor, task) {
		return true
	}
	return project != nil && (project.ProjectOwnerID == actor.ID || project.OwnerID == actor.ID)
}

func (s *TaskService) Create(ctx context.Context, actor *Models.User, projectID uint, in CreateTaskInput) (*Models.Task, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	var taskID uint
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermCreateTask); err != nil {
			return err
		}
		project, err := Store.Get[Models.Project](tx, projectID, "AssignedUsers")
		if err != nil {
			return err
		}
		if !Permissions.CanViewProject(actor, project) && project.OwnerID != actor.ID {
			return Models.NewForbidden("you are not allowed to add tasks to this project")
		}
		if err := s.guard.CheckProject(project); err != nil {
			return err
		}
		if _, err := requireUser(tx, in.AssigneeID); err != nil {
			return err
		}

		code, err := s.ids.Next(tx, Identifiers.TaskKind)
		if err != nil {
			return err
		}
		position, err := nextPosition(tx, "tasks", "project_id", project.ID)
		if err != nil {
			return err
		}
		task := &Models.Task{
			TaskCode:   code,
			ProjectID:  project.ID,
			Position:   position,
			Name:       in.Name,
			AssigneeID: in.AssigneeID,
			AssignerID: actor.ID,
			TeamStatus: Models.TaskNotStarted,
			StartDate:  in.StartDate,
			DueDate:    in.DueDate,
		}
		if err := tx.Create(task); err != nil {
			return conflictOnDuplicate(err, "task", code)
		}
		if in.Comment != "" {
			if err := tx.Create(&Models.Comment{TaskID: task.ID, UserID: actor.ID, Content: in.Comment}); err != nil {
				return err
			}
		}
		if err := s.aggregator.RecomputeTask(tx, task); err != nil {
			return err
		}

		taskID = task.ID
		fx.Audit(actor.ID, "Created Task", idString(task.ID), "task",
			fmt.Sprintf("Task ID: %s (%s)", task.TaskCode, task.Name))
		fx.Notify(deref(in.AssigneeID), "New Task Assigned",
			fmt.Sprintf("New task has been assigned: %q in project %q.", task.Name, project.Name),
			Models.NotifyTask, idString(task.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(s.read(ctx), taskID)
}

// Get returns a task with its subtasks, dependencies and comments.
func (s *TaskService) Get(ctx context.Context, actor *Models.User, id uint) (*Models.Task, error) {
	st := s.read(ctx)
	task, err := s.load(st, id)
	if err != nil {
		return nil, err
	}
	if !Permissions.CanViewTask(actor, task) {
		project, err := Store.Get[Models.Project](st, task.ProjectID, "AssignedUsers")
		if err != nil {
			return nil, err
		}
		if !Permissions.CanViewProject(actor, project) {
			return nil, Models.NewForbidden("you are not allowed to view this task")
		}
	}
	return task, nil
}

func (s *TaskService) load(st *Store.Store, id uint) (*Models.Task, error) {
	tasks, err := Store.Find[Models.Task](st, func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id).
			Preload("Subtasks", byPosition).
			Preload("Dependencies").
			Limit(1)
	})
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, Models.NewNotFound("task", id)
	}
	return &tasks[0], nil
}

// ListForUser returns every task visible to actor, newest first.
func (s *TaskService) ListForUser(ctx context.Context, actor *Models.User) ([]Models.Task, error) {
	return Store.Find[Models.Task](s.read(ctx),
		Permissions.VisibleTasks(actor),
		func(db *gorm.DB) *gorm.DB {
			return db.Preload("Subtasks", byPosition).Order("tasks.id DESC")
		})
}

// Update edits a task that is not completed. Explicitly completing it
// completes all of its subtasks. An assignee change is carried down to the
// subtasks.
func (s *TaskService) Update(ctx context.Context, actor *Models.User, id uint, in UpdateTaskInput) (*Models.Task, error) {
	if in.TeamStatus != nil && !in.TeamStatus.Valid() {
		return nil, Models.NewInvalidInput(fmt.Sprintf("invalid task status %q", *in.TeamStatus))
	}
	if in.CompletionDate != nil && (in.TeamStatus == nil || *in.TeamStatus != Models.TaskCompleted) {
		return nil, Models.NewInvalidInput("completion_date requires team_status Completed")
	}
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermEditTask); err != nil {
			return err
		}
		task, err := Store.Get[Models.Task](tx, id)
		if err != nil {
			return err
		}
		project, err := Store.Get[Models.Project](tx, task.ProjectID)
		if err != nil {
			return err
		}
		if !canTouchTask(actor, task, project) {
			return Models.NewForbidden("you are not allowed to modify this task")
		}
		if err := s.guard.CheckTask(task); err != nil {
			return err
		}
		if err := s.guard.CheckProject(project); err != nil {
			return err
		}

		var changes []string
		if in.Name != nil && *in.Name != task.Name {
			changes = append(changes, fmt.Sprintf("Task name changed from %q to %q", task.Name, *in.Name))
			task.Name = *in.Name
		}
		if in.StartDate != nil {
			changes = append(changes, "Task start date updated")
			task.StartDate = in.StartDate
		}
		if in.DueDate != nil {
			changes = append(changes, "Task due date updated")
			task.DueDate = in.DueDate
			task.ReminderSentAt = nil
		}

		assigneeChanged := in.AssigneeID != nil && !sameID(in.AssigneeID, task.AssigneeID)
		if assigneeChanged {
			if _, err := requireUser(tx, in.AssigneeID); err != nil {
				return err
			}
			task.AssigneeID = in.AssigneeID
			changes = append(changes, "Task assigned to new user")
		}
		if in.AssigneeID != nil {
			if err := tx.DB().Model(&Models.Subtask{}).
				Where("task_id = ?", task.ID).
				Updates(map[string]any{
					"assignee_id": *in.AssigneeID,
					"version":     gorm.Expr("version + 1"),
				}).Error; err != nil {
				return fmt.Errorf("failed to reassign subtasks: %w", err)
			}
		}

		subtasks, err := Store.Count[Models.Subtask](tx, func(db *gorm.DB) *gorm.DB {
			return db.Where("task_id = ?", task.ID)
		})
		if err != nil {
			return err
		}

		completing := in.TeamStatus != nil && *in.TeamStatus == Models.TaskCompleted
		switch {
		case completing:
			if err := tx.DB().Model(&Models.Subtask{}).
				Where("task_id = ? AND status <> ?", task.ID, Models.SubtaskCompleted).
				Updates(map[string]any{
					"status":  Models.SubtaskCompleted,
					"version": gorm.Expr("version + 1"),
				}).Error; err != nil {
				return fmt.Errorf("failed to complete subtasks: %w", err)
			}
			if err := s.guard.CompleteTask(task, in.CompletionDate); err != nil {
				return err
			}
			changes = append(changes, "Task status changed to Completed")
			if err := tx.SaveVersioned(task); err != nil {
				return err
			}
			if _, err := s.aggregator.RecomputeProject(tx, task.ProjectID); err != nil {
				return err
			}
		case subtasks > 0:
			// Status follows the subtasks; a requested status is ignored.
			if err := s.aggregator.RecomputeTask(tx, task); err != nil {
				return err
			}
		default:
			if in.TeamStatus != nil && *in.TeamStatus != task.TeamStatus {
				changes = append(changes, fmt.Sprintf("Task status changed to %s", *in.TeamStatus))
				task.TeamStatus = *in.TeamStatus
			}
			if err := tx.SaveVersioned(task); err != nil {
				return err
			}
			if _, err := s.aggregator.RecomputeProject(tx, task.ProjectID); err != nil {
				return err
			}
		}

		fx.Audit(actor.ID, "Updated Task", idString(task.ID), "task",
			fmt.Sprintf("Task ID: %s (%s)", task.TaskCode, task.Name))
		if len(changes) > 0 {
			adminIDs, err := admins(tx)
			if err != nil {
				return err
			}
			for _, uid := range adminIDs {
				if uid == actor.ID {
					continue
				}
				fx.Notify(uid, "Task Updated",
					fmt.Sprintf("Task %q has been updated: %s", task.Name, joinChanges(changes, "")),
					Models.NotifyTask, idString(task.ID))
			}
		}
		if assigneeChanged {
			fx.Notify(deref(task.AssigneeID), "Task Assigned",
				fmt.Sprintf("Task %q has been assigned.", task.Name),
				Models.NotifyTask, idString(task.ID))
		}
		if completing {
			manager, err := managerOf(tx, deref(task.AssigneeID))
			if err != nil {
				return err
			}
			fx.Notify(manager, "Task Completed",
				fmt.Sprintf("The task %q has been completed.", task.Name),
				Models.NotifyTask, idString(task.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(s.read(ctx), id)
}

// Delete removes a task with its subtasks, dependencies and comments and
// recomputes the project. Inside a completed project only admins may
// delete.
func (s *TaskService) Delete(ctx context.Context, actor *Models.User, id uint) error {
	return s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermDeleteTask); err != nil {
			return err
		}
		task, err := Store.Get[Models.Task](tx, id)
		if err != nil {
			return err
		}
		project, err := Store.Get[Models.Project](tx, task.ProjectID)
		if err != nil {
			return err
		}
		if !canTouchTask(actor, task, project) {
			return Models.NewForbidden("you are not allowed to delete this task")
		}
		if !actor.IsAdmin() {
			if err := s.guard.CheckProject(project); err != nil {
				return err
			}
			if err := s.guard.CheckTask(task); err != nil {
				return err
			}
		}

		if err := deleteTasks(tx, []uint{task.ID}); err != nil {
			return err
		}
		if _, err := s.aggregator.RecomputeProject(tx, task.ProjectID); err != nil {
			return err
		}

		fx.Audit(actor.ID, "Deleted Task", idString(task.ID), "task",
			fmt.Sprintf("Task ID: %s (%s)", task.TaskCode, task.Name))
		fx.Notify(deref(task.AssigneeID), "Task Deleted",
			fmt.Sprintf("Task %q has been deleted from project %q.", task.Name, project.Name),
			Models.NotifyTask, idString(task.ID))
		return nil
	})
}

// deleteTasks cascades to everything hanging off the tasks.
func deleteTasks(tx *Store.Store, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := Store.Delete[Models.Subtask](tx, "task_id IN ?", ids); err != nil {
		return err
	}
	if err := Store.Delete[Models.Dependency](tx, "task_id IN ?", ids); err != nil {
		return err
	}
	if err := Store.Delete[Models.Comment](tx, "task_id IN ?", ids); err != nil {
		return err
	}
	return Store.Delete[Models.Task](tx, "id IN ?", ids)
}

// DueTasks groups the caller's open tasks by due date.
type DueTasks struct {
	DueToday  []Models.Task `json:"due_today"`
	DueInWeek []Models.Task `json:"due_in_week"`
	Overdue   []Models.Task `json:"overdue"`
	All       []Models.Task `json:"all_due_tasks"`
}

type DueStats struct {
	DueToday  int `json:"due_today"`
	DueInWeek int `json:"due_in_week"`
	Overdue   int `json:"overdue"`
	Total     int `json:"total"`
}

// adminDueLimit caps each bucket for admins, who see every task.
const adminDueLimit = 10

// Due buckets the open, dated tasks visible to actor relative to today:
// due today, due within the next seven days, or already overdue.
func (s *TaskService) Due(ctx context.Context, actor *Models.User) (DueTasks, DueStats, error) {
	tasks, err := Store.Find[Models.Task](s.read(ctx),
		Permissions.VisibleTasks(actor),
		func(db *gorm.DB) *gorm.DB {
			return db.Where("tasks.due_date IS NOT NULL AND tasks.team_status <> ?", Models.TaskCompleted).
				Order("tasks.due_date")
		})
	if err != nil {
		return DueTasks{}, DueStats{}, err
	}

	today := s.day(s.now())
	weekEnd := today.AddDate(0, 0, 7)
	var out DueTasks
	for _, t := range tasks {
		due := s.day(*t.DueDate)
		switch {
		case due.Equal(today):
			out.DueToday = append(out.DueToday, t)
		case due.Before(today):
			out.Overdue = append(out.Overdue, t)
		case !due.After(weekEnd):
			out.DueInWeek = append(out.DueInWeek, t)
		}
		out.All = append(out.All, t)
	}
	if actor.IsAdmin() {
		out.DueToday = limit(out.DueToday, adminDueLimit)
		out.DueInWeek = limit(out.DueInWeek, adminDueLimit)
		out.Overdue = limit(out.Overdue, adminDueLimit)
		out.All = limit(out.All, adminDueLimit)
	}
	return out, DueStats{
		DueToday:  len(out.DueToday),
		DueInWeek: len(out.DueInWeek),
		Overdue:   len(out.Overdue),
		Total:     len(out.All),
	}, nil
}

func (s *TaskService) day(t time.Time) time.Time {
	t = t.In(s.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.location)
}

func limit(tasks []Models.Task, n int) []Models.Task {
	if len(tasks) > n {
		return tasks[:n]
	}
	return tasks
}
