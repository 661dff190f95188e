package Services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Identifiers"
	"Taskflow/Models"
	"Taskflow/Permissions"
	"Taskflow/Progress"
	"Taskflow/Store"

	"golang.org/x/exp/slices"
	"gorm.io/gorm"
)

type CreateProjectInput struct {
	Name             string     `json:"project_name" validate:"required"`
	Type             string     `json:"project_type"`
	Description      string     `json:"project_description"`
	StartDate        *time.Time `json:"start_date"`
	EndDate          *time.Time `json:"end_date"`
	ProjectOwnerID   uint       `json:"project_owner_id"`
	AssignedUserIDs  []uint     `json:"assigned_users"`
	Team             string     `json:"team"`
	ExpectedDuration int        `json:"expected_duration" validate:"gte=0"`
}

// UpdateProjectInput changes only the fields that are set.
type UpdateProjectInput struct {
	Name             *string               `json:"project_name"`
	Type             *string               `json:"project_type"`
	Description      *string               `json:"project_description"`
	StartDate        *time.Time            `json:"start_date"`
	EndDate          *time.Time            `json:"end_date"`
	Team             *string               `json:"team"`
	ExpectedDuration *int                  `json:"expected_duration"`
	ProjectOwnerID   *uint                 `json:"project_owner_id"`
	AssignedUserIDs  *[]uint               `json:"assigned_users"`
	Status           *Models.ProjectStatus `json:"status"`
	CompletionDate   *time.Time            `json:"completion_date"`
}

type projectAssignee struct {
	ProjectID uint `gorm:"primaryKey"`
	UserID    uint `gorm:"primaryKey"`
}

func (projectAssignee) TableName() string { return "project_assignees" }

type ProjectService struct {
	*Core
}

func NewProjectService(core *Core) *ProjectService {
	return &ProjectService{Core: core}
}

// Create stores a new Pending project. When a template matches the
// project type its tasks and subtasks are created in the same transaction.
func (s *ProjectService) Create(ctx context.Context, actor *Models.User, in CreateProjectInput) (*Models.Project, bool, error) {
	if err := s.check(in); err != nil {
		return nil, false, err
	}
	var projectID uint
	usedTemplate := false
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermCreateProject); err != nil {
			return err
		}
		owner := in.ProjectOwnerID
		if owner == 0 {
			owner = actor.ID
		}
		if _, err := requireUser(tx, &owner); err != nil {
			return err
		}
		assigned, err := loadUsers(tx, in.AssignedUserIDs)
		if err != nil {
			return err
		}

		code, err := s.ids.Next(tx, Identifiers.ProjectKind)
		if err != nil {
			return err
		}
		project := &Models.Project{
			ProjectCode:      code,
			Name:             in.Name,
			Type:             in.Type,
			Description:      in.Description,
			OwnerID:          actor.ID,
			ProjectOwnerID:   owner,
			Team:             in.Team,
			Status:           Models.ProjectPending,
			StartDate:        in.StartDate,
			EndDate:          in.EndDate,
			ExpectedDuration: in.ExpectedDuration,
		}
		if err := tx.Create(project); err != nil {
			return conflictOnDuplicate(err, "project", code)
		}
		if err := setAssignees(tx, project.ID, assigned); err != nil {
			return err
		}

		usedTemplate, err = s.applyTemplate(tx, actor, project)
		if err != nil {
			return err
		}
		if usedTemplate {
			if _, err := s.aggregator.RecomputeProject(tx, project.ID); err != nil {
				return err
			}
		}

		projectID = project.ID
		fx.Audit(actor.ID, "Created Project", idString(project.ID), "project",
			fmt.Sprintf("Project ID: %s (%s)", project.ProjectCode, project.Name))
		for _, u := range assigned {
			fx.Notify(u.ID, "Project Assignment",
				fmt.Sprintf("You have been assigned to the project %q", project.Name),
				Models.NotifyProject, idString(project.ID))
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	project, err := s.load(s.read(ctx), projectID)
	return project, usedTemplate, err
}

// applyTemplate copies the template registered for the project's type.
func (s *ProjectService) applyTemplate(tx *Store.Store, actor *Models.User, project *Models.Project) (bool, error) {
	if project.Type == "" {
		return false, nil
	}
	templates, err := Store.Find[Models.ProjectTemplate](tx, func(db *gorm.DB) *gorm.DB {
		return db.Where("project_type = ?", project.Type).Limit(1)
	})
	if err != nil || len(templates) == 0 {
		return false, err
	}
	tasks, err := templates[0].TaskList()
	if err != nil {
		return false, fmt.Errorf("template %s is malformed: %w", templates[0].Name, err)
	}

	for i, tt := range tasks {
		code, err := s.ids.Next(tx, Identifiers.TaskKind)
		if err != nil {
			return false, err
		}
		task := &Models.Task{
			TaskCode:   code,
			ProjectID:  project.ID,
			Position:   i + 1,
			Name:       tt.Name,
			AssignerID: actor.ID,
			TeamStatus: Models.TaskNotStarted,
		}
		if err := tx.Create(task); err != nil {
			return false, conflictOnDuplicate(err, "task", code)
		}
		for j, name := range tt.Subtasks {
			assigner := actor.ID
			if err := tx.Create(&Models.Subtask{
				TaskID:     task.ID,
				Position:   j + 1,
				Name:       name,
				AssignerID: &assigner,
				Status:     Models.SubtaskNotStarted,
			}); err != nil {
				return false, err
			}
		}
	}
	return true, nil
}

// List returns the projects visible to actor with their mean task
// progress filled in.
func (s *ProjectService) List(ctx context.Context, actor *Models.User) ([]Models.Project, error) {
	projects, err := Store.Find[Models.Project](s.read(ctx),
		Permissions.VisibleProjects(actor),
		func(db *gorm.DB) *gorm.DB {
			return db.Preload("AssignedUsers").Preload("Tasks").Order("projects.id DESC")
		})
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].Progress = Progress.ComputeProject(projects[i].Tasks, projects[i].Status).Progress
		projects[i].Tasks = nil
	}
	return projects, nil
}

// Get returns a project with its ordered tasks, their subtasks and
// dependencies.
func (s *ProjectService) Get(ctx context.Context, actor *Models.User, id uint) (*Models.Project, error) {
	project, err := s.load(s.read(ctx), id)
	if err != nil {
		return nil, err
	}
	if !Permissions.CanViewProject(actor, project) {
		return nil, Models.NewForbidden("you are not allowed to view this project")
	}
	return project, nil
}

func (s *ProjectService) load(st *Store.Store, id uint) (*Models.Project, error) {
	var project Models.Project
	err := st.DB().
		Preload("AssignedUsers").
		Preload("Tasks", byPosition).
		Preload("Tasks.Subtasks", byPosition).
		Preload("Tasks.Dependencies").
		First(&project, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, Models.NewNotFound("project", id)
		}
		return nil, fmt.Errorf("failed to load project %d: %w", id, err)
	}
	project.Progress = Progress.ComputeProject(project.Tasks, project.Status).Progress
	return &project, nil
}

func byPosition(db *gorm.DB) *gorm.DB { return db.Order("position, id") }

// Update edits a project that is not yet completed. Moving it to
// Completed requires every task to be completed first.
func (s *ProjectService) Update(ctx context.Context, actor *Models.User, id uint, in UpdateProjectInput) (*Models.Project, error) {
	if in.Status != nil && !in.Status.Valid() {
		return nil, Models.NewInvalidInput(fmt.Sprintf("invalid project status %q", *in.Status))
	}
	if in.CompletionDate != nil && (in.Status == nil || *in.Status != Models.ProjectCompleted) {
		return nil, Models.NewInvalidInput("completion_date requires status Completed")
	}
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermEditProject); err != nil {
			return err
		}
		project, err := Store.Get[Models.Project](tx, id, "AssignedUsers")
		if err != nil {
			return err
		}
		if err := s.guard.CheckProject(project); err != nil {
			return err
		}

		var changes []string
		if in.Name != nil && *in.Name != project.Name {
			changes = append(changes, fmt.Sprintf("Project name changed from %q to %q", project.Name, *in.Name))
			project.Name = *in.Name
		}
		if in.Description != nil && *in.Description != project.Description {
			changes = append(changes, "Description updated")
			project.Description = *in.Description
		}
		if in.Type != nil {
			project.Type = *in.Type
		}
		if in.StartDate != nil {
			project.StartDate = in.StartDate
		}
		if in.EndDate != nil {
			project.EndDate = in.EndDate
		}
		if in.Team != nil {
			project.Team = *in.Team
		}
		if in.ExpectedDuration != nil && *in.ExpectedDuration != project.ExpectedDuration {
			changes = append(changes, "Expected Duration updated")
			project.ExpectedDuration = *in.ExpectedDuration
		}
		if in.ProjectOwnerID != nil && *in.ProjectOwnerID != project.ProjectOwnerID {
			if _, err := requireUser(tx, in.ProjectOwnerID); err != nil {
				return err
			}
			changes = append(changes, "Project owner changed")
			project.ProjectOwnerID = *in.ProjectOwnerID
		}

		var added []uint
		if in.AssignedUserIDs != nil {
			users, err := loadUsers(tx, *in.AssignedUserIDs)
			if err != nil {
				return err
			}
			before := project.AssignedUserIDs()
			for _, u := range users {
				if !slices.Contains(before, u.ID) {
					added = append(added, u.ID)
				}
			}
			if err := setAssignees(tx, project.ID, users); err != nil {
				return err
			}
			if len(added) > 0 || len(users) != len(before) {
				changes = append(changes, "Assigned users updated")
			}
			project.AssignedUsers = users
		}

		completed := false
		if in.Status != nil && *in.Status != project.Status {
			if *in.Status == Models.ProjectCompleted {
				tasks, err := Store.Find[Models.Task](tx, func(db *gorm.DB) *gorm.DB {
					return db.Where("project_id = ?", project.ID)
				})
				if err != nil {
					return err
				}
				if !Progress.AllTasksCompleted(tasks) {
					return Models.NewPreconditionFailed("cannot mark project as completed until all tasks are completed")
				}
				if err := s.guard.CompleteProject(project, in.CompletionDate); err != nil {
					return err
				}
				completed = true
			} else {
				project.Status = *in.Status
			}
			changes = append(changes, fmt.Sprintf("Status changed to %s", *in.Status))
		}

		if err := tx.SaveVersioned(project); err != nil {
			return err
		}

		fx.Audit(actor.ID, "Updated Project", idString(project.ID), "project",
			fmt.Sprintf("Changes made Project ID %s: %s", project.ProjectCode, joinChanges(changes, "Project updated")))
		for _, uid := range added {
			fx.Notify(uid, "Project Assignment",
				fmt.Sprintf("You have been assigned to the project %q", project.Name),
				Models.NotifyProject, idString(project.ID))
		}
		if completed {
			for _, uid := range project.AssignedUserIDs() {
				fx.Notify(uid, "Project Completed",
					fmt.Sprintf("The project %q has been completed.", project.Name),
					Models.NotifyProject, idString(project.ID))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.load(s.read(ctx), id)
}

// Delete removes a project with all its tasks. Completed projects can
// only be removed by an admin.
func (s *ProjectService) Delete(ctx context.Context, actor *Models.User, id uint) error {
	return s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		if err := s.require(ctx, tx, actor, Models.PermDeleteProject); err != nil {
			return err
		}
		project, err := Store.Get[Models.Project](tx, id)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() {
			if err := s.guard.CheckProject(project); err != nil {
				return err
			}
		}

		tasks, err := Store.Find[Models.Task](tx, func(db *gorm.DB) *gorm.DB {
			return db.Select("id").Where("project_id = ?", id)
		})
		if err != nil {
			return err
		}
		taskIDs := make([]uint, 0, len(tasks))
		for _, t := range tasks {
			taskIDs = append(taskIDs, t.ID)
		}
		if err := deleteTasks(tx, taskIDs); err != nil {
			return err
		}
		if err := setAssignees(tx, id, nil); err != nil {
			return err
		}
		if err := Store.Delete[Models.Project](tx, "id = ?", id); err != nil {
			return err
		}

		fx.Audit(actor.ID, "Deleted Project", idString(id), "project",
			fmt.Sprintf("Project ID: %s (%s)", project.ProjectCode, project.Name))
		return nil
	})
}

func setAssignees(tx *Store.Store, projectID uint, users []Models.User) error {
	if err := tx.DB().Where("project_id = ?", projectID).Delete(&projectAssignee{}).Error; err != nil {
		return fmt.Errorf("failed to clear project assignees: %w", err)
	}
	if len(users) == 0 {
		return nil
	}
	rows := make([]projectAssignee, 0, len(users))
	for _, u := range users {
		rows = append(rows, projectAssignee{ProjectID: projectID, UserID: u.ID})
	}
	if err := tx.DB().Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to assign project users: %w", err)
	}
	return nil
}
