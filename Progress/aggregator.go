package Progress

import (
	"fmt"
	"math"

	"Taskflow/Lifecycle"
	"Taskflow/Models"
	"Taskflow/Store"

	"gorm.io/gorm"
)

type TaskResult struct {
	Progress int
	Status   Models.TaskStatus
}

type ProjectResult struct {
	Progress int
	Status   Models.ProjectStatus
}

// ComputeTask derives a task's progress and status from its current
// subtasks. Callers pass the set as it stands after the mutation.
func ComputeTask(subtasks []Models.Subtask) TaskResult {
	total := len(subtasks)
	if total == 0 {
		return TaskResult{Progress: 0, Status: Models.TaskNotStarted}
	}
	completed, inProgress := 0, 0
	for _, s := range subtasks {
		switch s.Status {
		case Models.SubtaskCompleted:
			completed++
		case Models.SubtaskInProgress:
			inProgress++
		}
	}
	switch {
	case completed == total:
		return TaskResult{Progress: 100, Status: Models.TaskCompleted}
	case completed > 0 || inProgress > 0:
		return TaskResult{Progress: percent(completed, total), Status: Models.TaskInProgress}
	default:
		return TaskResult{Progress: 0, Status: Models.TaskNotStarted}
	}
}

// ComputeProject derives a project's status from its tasks. A project that
// has never had tasks keeps Pending; once tasks exist it never falls back.
func ComputeProject(tasks []Models.Task, current Models.ProjectStatus) ProjectResult {
	if len(tasks) == 0 {
		if current == Models.ProjectPending || current == "" {
			return ProjectResult{Status: Models.ProjectPending}
		}
		return ProjectResult{Status: Models.ProjectInProgress}
	}
	sum := 0
	allCompleted := true
	for _, t := range tasks {
		sum += t.Progress
		if t.TeamStatus != Models.TaskCompleted {
			allCompleted = false
		}
	}
	result := ProjectResult{
		Progress: int(math.Round(float64(sum) / float64(len(tasks)))),
		Status:   Models.ProjectInProgress,
	}
	if allCompleted {
		result.Status = Models.ProjectCompleted
	}
	return result
}

// AllTasksCompleted is the precondition for explicitly completing a project.
func AllTasksCompleted(tasks []Models.Task) bool {
	for _, t := range tasks {
		if t.TeamStatus != Models.TaskCompleted {
			return false
		}
	}
	return true
}

func percent(part, total int) int {
	return int(math.Round(100 * float64(part) / float64(total)))
}

// Aggregator re-derives task and project state inside the caller's
// transaction, always in subtask, task, project order.
type Aggregator struct {
	guard *Lifecycle.Guard
}

func NewAggregator(guard *Lifecycle.Guard) *Aggregator {
	return &Aggregator{guard: guard}
}

// RecomputeTask reloads the task's subtasks, updates its derived fields and
// then recomputes the owning project. The task is always written so two
// concurrent recomputes of the same task cannot both succeed on a stale
// read. A task that is already Completed is left untouched.
func (a *Aggregator) RecomputeTask(tx *Store.Store, task *Models.Task) error {
	if task.IsCompleted() {
		_, err := a.RecomputeProject(tx, task.ProjectID)
		return err
	}

	subtasks, err := Store.Find[Models.Subtask](tx, func(db *gorm.DB) *gorm.DB {
		return db.Where("task_id = ?", task.ID)
	})
	if err != nil {
		return err
	}

	result := ComputeTask(subtasks)
	if result.Status == Models.TaskCompleted {
		if err := a.guard.CompleteTask(task, nil); err != nil {
			return err
		}
	} else {
		task.Progress = result.Progress
		task.TeamStatus = result.Status
	}
	if err := tx.SaveVersioned(task); err != nil {
		return err
	}

	_, err = a.RecomputeProject(tx, task.ProjectID)
	return err
}

// RecomputeProject re-derives the project's status from its tasks and
// returns the mean task progress for display. Completed projects are not
// written again.
func (a *Aggregator) RecomputeProject(tx *Store.Store, projectID uint) (ProjectResult, error) {
	project, err := Store.Get[Models.Project](tx, projectID)
	if err != nil {
		return ProjectResult{}, fmt.Errorf("failed to load project for recompute: %w", err)
	}
	tasks, err := Store.Find[Models.Task](tx, func(db *gorm.DB) *gorm.DB {
		return db.Where("project_id = ?", projectID)
	})
	if err != nil {
		return ProjectResult{}, err
	}

	result := ComputeProject(tasks, project.Status)
	if project.IsCompleted() {
		result.Status = Models.ProjectCompleted
		return result, nil
	}

	if result.Status == Models.ProjectCompleted {
		if err := a.guard.CompleteProject(project, nil); err != nil {
			return ProjectResult{}, err
		}
	} else {
		project.Status = result.Status
	}
	if err := tx.SaveVersioned(project); err != nil {
		return ProjectResult{}, err
	}
	return result, nil
}
