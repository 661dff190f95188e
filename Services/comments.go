package Services

import (
	"context"
	"fmt"
	"strings"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Store"

	"gorm.io/gorm"
)

type CommentService struct {
	*Core
}

func NewCommentService(core *Core) *CommentService {
	return &CommentService{Core: core}
}

func (s *CommentService) visibleTask(st *Store.Store, actor *Models.User, taskID uint) (*Models.Task, error) {
	task, err := Store.Get[Models.Task](st, taskID)
	if err != nil {
		return nil, err
	}
	if Permissions.CanViewTask(actor, task) {
		return task, nil
	}
	project, err := Store.Get[Models.Project](st, task.ProjectID, "AssignedUsers")
	if err != nil {
		return nil, err
	}
	if !Permissions.CanViewProject(actor, project) {
		return nil, Models.NewForbidden("you are not allowed to comment on this task")
	}
	return task, nil
}

func (s *CommentService) Add(ctx context.Context, actor *Models.User, taskID uint, content string) (*Models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Models.NewInvalidInput("comment content is required")
	}
	var comment *Models.Comment
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		task, err := s.visibleTask(tx, actor, taskID)
		if err != nil {
			return err
		}
		comment = &Models.Comment{TaskID: task.ID, UserID: actor.ID, Content: content}
		if err := tx.Create(comment); err != nil {
			return err
		}
		comment.User = actor

		fx.Audit(actor.ID, "Added Comment", idString(comment.ID), "comment",
			fmt.Sprintf("Comment on Task ID: %s", task.TaskCode))
		if task.AssigneeID != nil && *task.AssigneeID != actor.ID {
			fx.Notify(*task.AssigneeID, "New Comment",
				fmt.Sprintf("%s commented on task %q.", actor.Name, task.Name),
				Models.NotifyComment, idString(task.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// List returns a task's comments oldest first with their authors.
func (s *CommentService) List(ctx context.Context, actor *Models.User, taskID uint) ([]Models.Comment, error) {
	st := s.read(ctx)
	if _, err := s.visibleTask(st, actor, taskID); err != nil {
		return nil, err
	}
	return Store.Find[Models.Comment](st, func(db *gorm.DB) *gorm.DB {
		return db.Where("task_id = ?", taskID).Preload("User").Order("created_at, id")
	})
}

// Update changes a comment's text. Only its author may.
func (s *CommentService) Update(ctx context.Context, actor *Models.User, id uint, content string) (*Models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, Models.NewInvalidInput("comment content is required")
	}
	var comment *Models.Comment
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		var err error
		comment, err = Store.Get[Models.Comment](tx, id)
		if err != nil {
			return err
		}
		if comment.UserID != actor.ID {
			return Models.NewForbidden("you can only edit your own comments")
		}
		comment.Content = content
		if err := tx.Save(comment); err != nil {
			return err
		}
		fx.Audit(actor.ID, "Updated Comment", idString(comment.ID), "comment", "")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// Delete removes a comment. Authors and admins may.
func (s *CommentService) Delete(ctx context.Context, actor *Models.User, id uint) error {
	return s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		comment, err := Store.Get[Models.Comment](tx, id)
		if err != nil {
			return err
		}
		if comment.UserID != actor.ID && !actor.IsAdmin() {
			return Models.NewForbidden("you can only delete your own comments")
		}
		if err := Store.Delete[Models.Comment](tx, "id = ?", id); err != nil {
			return err
		}
		fx.Audit(actor.ID, "Deleted Comment", idString(id), "comment", "")
		return nil
	})
}
