package Lifecycle_test

import (
	"testing"
	"time"

	"Taskflow/Lifecycle"
	"Taskflow/Models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(day int, hour int) time.Time {
	return time.Date(2024, time.May, day, hour, 0, 0, 0, time.UTC)
}

func TestSubmission(t *testing.T) {
	g := Lifecycle.New(&Models.FixedClock{At: at(20, 12)}, time.UTC)
	due := at(10, 0)

	tests := []struct {
		name       string
		completion time.Time
		want       Models.SubmissionStatus
	}{
		{"same day later hour", at(10, 23), Models.SubmissionOnTime},
		{"day before", at(9, 8), Models.SubmissionBeforeTime},
		{"day after", at(11, 0), Models.SubmissionOverDue},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Submission(tt.completion, &due))
		})
	}

	assert.Empty(t, g.Submission(at(9, 0), nil))
}

func TestSubmissionUsesLocationDay(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*60*60)
	g := Lifecycle.New(&Models.FixedClock{At: at(20, 12)}, loc)
	due := time.Date(2024, time.May, 10, 0, 0, 0, 0, loc)
	// 21:00 UTC on the 9th is already the 10th at UTC+5.
	completion := time.Date(2024, time.May, 9, 21, 0, 0, 0, time.UTC)
	assert.Equal(t, Models.SubmissionOnTime, g.Submission(completion, &due))
}

func TestCompleteTask(t *testing.T) {
	clock := &Models.FixedClock{At: at(9, 15)}
	g := Lifecycle.New(clock, time.UTC)
	due := at(10, 0)

	t.Run("absent date defaults to now", func(t *testing.T) {
		task := &Models.Task{TeamStatus: Models.TaskInProgress, Progress: 50, DueDate: &due}
		require.NoError(t, g.CompleteTask(task, nil))
		assert.Equal(t, Models.TaskCompleted, task.TeamStatus)
		assert.Equal(t, 100, task.Progress)
		require.NotNil(t, task.CompletionDate)
		assert.True(t, task.CompletionDate.Equal(clock.At))
		assert.Equal(t, Models.SubmissionBeforeTime, task.SubmissionStatus)
	})

	t.Run("future date rejected", func(t *testing.T) {
		task := &Models.Task{TeamStatus: Models.TaskInProgress}
		future := clock.At.Add(time.Hour)
		err := g.CompleteTask(task, &future)
		assert.True(t, Models.HasCode(err, Models.ErrCodeInvalidCompletionDate))
		assert.Equal(t, Models.TaskInProgress, task.TeamStatus)
		assert.Nil(t, task.CompletionDate)
	})

	t.Run("past date kept", func(t *testing.T) {
		task := &Models.Task{TeamStatus: Models.TaskInProgress, DueDate: &due}
		past := at(8, 0)
		require.NoError(t, g.CompleteTask(task, &past))
		assert.True(t, task.CompletionDate.Equal(past))
	})

	t.Run("completed task is locked", func(t *testing.T) {
		task := &Models.Task{TeamStatus: Models.TaskCompleted}
		err := g.CompleteTask(task, nil)
		assert.True(t, Models.HasCode(err, Models.ErrCodeCompletedEntityLocked))
	})
}

func TestCompleteProject(t *testing.T) {
	clock := &Models.FixedClock{At: at(12, 9)}
	g := Lifecycle.New(clock, time.UTC)
	end := at(10, 0)

	project := &Models.Project{Status: Models.ProjectInProgress, EndDate: &end}
	require.NoError(t, g.CompleteProject(project, nil))
	assert.Equal(t, Models.ProjectCompleted, project.Status)
	assert.Equal(t, Models.SubmissionOverDue, project.SubmissionStatus)

	err := g.CheckProject(project)
	assert.True(t, Models.HasCode(err, Models.ErrCodeCompletedEntityLocked))
}
