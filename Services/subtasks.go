package Services

import (
	"context"
	"fmt"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"
)

type CreateSubtaskInput struct {
	Name        string               `json:"name" validate:"required"`
	Description string               `json:"description"`
	AssigneeID  *uint                `json:"assignee_id"`
	Status      Models.SubtaskStatus `json:"status"`
	Submission  string               `json:"submission"`
	StartDate   *time.Time           `json:"start_date"`
	DueDate     *time.Time           `json:"due_date"`
}

type UpdateSubtaskInput struct {
	Name        *string               `json:"name"`
	Description *string               `json:"description"`
	AssigneeID  *uint                 `json:"assignee_id"`
	Status      *Models.SubtaskStatus `json:"status"`
	Submission  *string               `json:"submission"`
	StartDate   *time.Time            `json:"start_date"`
	DueDate     *time.Time            `json:"due_date"`
}

type SubtaskService struct {
	*Core
}

func NewSubtaskService(core *Core) *SubtaskService {
	return &SubtaskService{Core: core}
}

// openTask loads a subtask's parent and enforces the completed-task lock.
// Admins may still edit subtasks of a completed task; the task itself is
// never reopened by it.
func (s *SubtaskService) openTask(tx *Store.Store, actor *Models.User, taskID uint) (*Models.Task, *Models.Project, error) {
	task, err := Store.Get[Models.Task](tx, taskID)
	if err != nil {
		return nil, nil, err
	}
	project, err := Store.Get[Models.Project](tx, task.ProjectID)
	if err != nil {
		return nil, nil, err
	}
	if !actor.IsAdmin() {
		if err := s.guard.CheckTask(task); err != nil {
			return nil, nil, err
		}
	}
	return task, project, nil
}

func (s *SubtaskService) Create(ctx context.Context, actor *Models.User, taskID uint, in CreateSubtaskInput) (*Models.Subtask, error) {
	if err := s.check(in); err != nil {
		return nil, err
	}
	if in.Status == "" {
		in.Status = Models.SubtaskNotStarted
	}
	if !in.Status.Valid() {
		return nil, Models.NewInvalidInput(fmt.Sprintf("invalid subtask status %q", in.Status))
	}
	var subtask *Models.Subtask
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermCreateSubtask); err != nil {
			return err
		}
		task, project, err := s.openTask(tx, actor, taskID)
		if err != nil {
			return err
		}
		if !canTouchTask(actor, task, project) {
			return Models.NewForbidden("you are not allowed to add subtasks to this task")
		}
		if _, err := requireUser(tx, in.AssigneeID); err != nil {
			return err
		}
		position, err := nextPosition(tx, "subtasks", "task_id", task.ID)
		if err != nil {
			return err
		}
		assigner := actor.ID
		subtask = &Models.Subtask{
			TaskID:      task.ID,
			Position:    position,
			Name:        in.Name,
			Description: in.Description,
			AssigneeID:  in.AssigneeID,
			AssignerID:  &assigner,
			Status:      in.Status,
			Submission:  in.Submission,
			StartDate:   in.StartDate,
			DueDate:     in.DueDate,
		}
		if err := tx.Create(subtask); err != nil {
			return err
		}
		if err := s.aggregator.RecomputeTask(tx, task); err != nil {
			return err
		}

		fx.Audit(actor.ID, "Created Subtask", idString(subtask.ID), "subtask",
			fmt.Sprintf("Subtask: %s from Task: %s", subtask.Name, task.Name))
		fx.Notify(deref(in.AssigneeID), "New Subtask Assigned",
			fmt.Sprintf("Subtask %q has been assigned for task %q.", subtask.Name, task.Name),
			Models.NotifySubtask, idString(subtask.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

func (s *SubtaskService) Update(ctx context.Context, actor *Models.User, id uint, in UpdateSubtaskInput) (*Models.Subtask, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, Models.NewInvalidInput(fmt.Sprintf("invalid subtask status %q", *in.Status))
	}
	var subtask *Models.Subtask
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermEditSubtask); err != nil {
			return err
		}
		var err error
		subtask, err = Store.Get[Models.Subtask](tx, id)
		if err != nil {
			return err
		}
		task, project, err := s.openTask(tx, actor, subtask.TaskID)
		if err != nil {
			return err
		}
		if !Permissions.CanViewSubtask(actor, subtask) && !canTouchTask(actor, task, project) {
			return Models.NewForbidden("you are not allowed to modify this subtask")
		}

		assigneeChanged := in.AssigneeID != nil && !sameID(in.AssigneeID, subtask.AssigneeID)
		completedNow := in.Status != nil && *in.Status == Models.SubtaskCompleted && subtask.Status != Models.SubtaskCompleted

		if in.Name != nil {
			subtask.Name = *in.Name
		}
		if in.Description != nil {
			subtask.Description = *in.Description
		}
		if in.StartDate != nil {
			subtask.StartDate = in.StartDate
		}
		if in.DueDate != nil {
			subtask.DueDate = in.DueDate
		}
		if in.Submission != nil {
			subtask.Submission = *in.Submission
		}
		if in.Status != nil {
			subtask.Status = *in.Status
		}
		if assigneeChanged {
			if _, err := requireUser(tx, in.AssigneeID); err != nil {
				return err
			}
			subtask.AssigneeID = in.AssigneeID
		}
		assigner := actor.ID
		subtask.AssignerID = &assigner

		if err := tx.SaveVersioned(subtask); err != nil {
			return err
		}
		if err := s.aggregator.RecomputeTask(tx, task); err != nil {
			return err
		}

		fx.Audit(actor.ID, "Updated Subtask", idString(subtask.ID), "subtask",
			fmt.Sprintf("Subtask: %s from Task: %s", subtask.Name, task.Name))
		if assigneeChanged {
			fx.Notify(deref(subtask.AssigneeID), "Subtask Assigned",
				fmt.Sprintf("Subtask %q has been assigned.", subtask.Name),
				Models.NotifySubtask, idString(subtask.ID))
		}
		if completedNow && task.AssigneeID != nil && *task.AssigneeID != actor.ID {
			message := fmt.Sprintf("Subtask %q for task %q has been completed.", subtask.Name, task.Name)
			fx.Notify(*task.AssigneeID, "Subtask Completed", message, Models.NotifySubtask, idString(subtask.ID))
			manager, err := managerOf(tx, *task.AssigneeID)
			if err != nil {
				return err
			}
			fx.Notify(manager, "Subtask Completed", message, Models.NotifySubtask, idString(subtask.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return subtask, nil
}

// Delete removes a subtask and recomputes its task from the subtasks that
// remain.
func (s *SubtaskService) Delete(ctx context.Context, actor *Models.User, id uint) (*Models.Task, error) {
	var taskID uint
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermDeleteSubtask); err != nil {
			return err
		}
		subtask, err := Store.Get[Models.Subtask](tx, id)
		if err != nil {
			return err
		}
		task, project, err := s.openTask(tx, actor, subtask.TaskID)
		if err != nil {
			return err
		}
		if !Permissions.CanViewSubtask(actor, subtask) && !canTouchTask(actor, task, project) {
			return Models.NewForbidden("you are not allowed to delete this subtask")
		}

		if err := Store.Delete[Models.Subtask](tx, "id = ?", subtask.ID); err != nil {
			return err
		}
		if err := s.aggregator.RecomputeTask(tx, task); err != nil {
			return err
		}

		taskID = task.ID
		fx.Audit(actor.ID, "Deleted Subtask", idString(subtask.ID), "subtask",
			fmt.Sprintf("Subtask: %s from Task: %s", subtask.Name, task.Name))
		fx.Notify(deref(task.AssigneeID), "Subtask Deleted",
			fmt.Sprintf("Subtask %q has been deleted from task %q.", subtask.Name, task.Name),
			Models.NotifySubtask, idString(subtask.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return Store.Get[Models.Task](s.read(ctx), taskID, "Subtasks")
}

// ReviewItem is a subtask waiting in review with its task and project.
type ReviewItem struct {
	Subtask     Models.Subtask `json:"subtask"`
	TaskCode    string         `json:"task_id"`
	TaskName    string         `json:"task_name"`
	ProjectID   uint           `json:"project_id"`
	ProjectCode string         `json:"project_code"`
	ProjectName string         `json:"project_name"`
}

// ReviewQueue lists subtasks In Review: all of them for admins, the ones
// they assigned for managers.
func (s *SubtaskService) ReviewQueue(ctx context.Context, actor *Models.User) ([]ReviewItem, error) {
	if err := Permissions.RequireRole(actor, Models.RoleAdmin, Models.RoleManager); err != nil {
		return nil, err
	}
	var items []ReviewItem
	var rows []struct {
		Models.Subtask
		TaskCode    string
		TaskName    string
		ProjectID   uint
		ProjectCode string
		ProjectName string
	}
	query := s.read(ctx).DB().
		Table("subtasks").
		Select("subtasks.*, tasks.task_code, tasks.name AS task_name, projects.id AS project_id, projects.project_code, projects.name AS project_name").
		Joins("JOIN tasks ON tasks.id = subtasks.task_id AND tasks.deleted_at IS NULL").
		Joins("JOIN projects ON projects.id = tasks.project_id AND projects.deleted_at IS NULL").
		Where("subtasks.deleted_at IS NULL AND subtasks.status = ?", Models.SubtaskInReview).
		Order("subtasks.id")
	if actor.Role == Models.RoleManager {
		query = query.Where("subtasks.assigner_id = ?", actor.ID)
	}
	if err := query.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list subtasks in review: %w", err)
	}
	for _, r := range rows {
		items = append(items, ReviewItem{
			Subtask:     r.Subtask,
			TaskCode:    r.TaskCode,
			TaskName:    r.TaskName,
			ProjectID:   r.ProjectID,
			ProjectCode: r.ProjectCode,
			ProjectName: r.ProjectName,
		})
	}
	return items, nil
}
