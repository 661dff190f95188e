package Lifecycle

import (
	"time"

	"Taskflow/Models"
)

// Guard enforces monotonic completion of projects and tasks and derives
// their submission status.
type Guard struct {
	clock    Models.Clock
	location *time.Location
}

// New builds a Guard. Day boundaries are taken in loc (UTC when nil).
func New(clock Models.Clock, loc *time.Location) *Guard {
	if loc == nil {
		loc = time.UTC
	}
	return &Guard{clock: clock, location: loc}
}

func (g *Guard) Now() time.Time { return g.clock.Now() }

// CheckTask rejects any mutation of a completed task.
func (g *Guard) CheckTask(task *Models.Task) error {
	if task.IsCompleted() {
		return Models.NewLocked("task", task.TaskCode)
	}
	return nil
}

// CheckProject rejects any mutation of a completed project.
func (g *Guard) CheckProject(project *Models.Project) error {
	if project.IsCompleted() {
		return Models.NewLocked("project", project.ProjectCode)
	}
	return nil
}

// CompletionDate picks the completion date for an entity entering
// Completed. A supplied date wins but may not lie in the future; otherwise
// an existing date is kept, else now.
func (g *Guard) CompletionDate(existing, supplied *time.Time) (time.Time, error) {
	now := g.clock.Now()
	if supplied != nil {
		if supplied.After(now) {
			return time.Time{}, Models.NewInvalidCompletionDate("completion date cannot be in the future")
		}
		return *supplied, nil
	}
	if existing != nil && !existing.IsZero() {
		return *existing, nil
	}
	return now, nil
}

// Submission compares completion and reference at day granularity.
// Without a reference date there is nothing to compare against.
func (g *Guard) Submission(completion time.Time, reference *time.Time) Models.SubmissionStatus {
	if reference == nil || reference.IsZero() {
		return ""
	}
	done := g.day(completion)
	due := g.day(*reference)
	switch {
	case done.Equal(due):
		return Models.SubmissionOnTime
	case done.Before(due):
		return Models.SubmissionBeforeTime
	default:
		return Models.SubmissionOverDue
	}
}

// CompleteTask moves task into Completed: progress 100, completion date
// and submission status filled in.
func (g *Guard) CompleteTask(task *Models.Task, supplied *time.Time) error {
	if err := g.CheckTask(task); err != nil {
		return err
	}
	at, err := g.CompletionDate(task.CompletionDate, supplied)
	if err != nil {
		return err
	}
	task.TeamStatus = Models.TaskCompleted
	task.Progress = 100
	task.CompletionDate = &at
	task.SubmissionStatus = g.Submission(at, task.DueDate)
	return nil
}

func (g *Guard) CompleteProject(project *Models.Project, supplied *time.Time) error {
	if err := g.CheckProject(project); err != nil {
		return err
	}
	at, err := g.CompletionDate(project.CompletionDate, supplied)
	if err != nil {
		return err
	}
	project.Status = Models.ProjectCompleted
	project.CompletionDate = &at
	project.SubmissionStatus = g.Submission(at, project.EndDate)
	return nil
}

func (g *Guard) day(t time.Time) time.Time {
	t = t.In(g.location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, g.location)
}
