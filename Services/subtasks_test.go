package Services_test

import (
	"testing"

	"Taskflow/Models"
	"Taskflow/Services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubtaskProgressCascade(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	first := e.subtask(t, task.ID, "Wireframes", Models.SubtaskNotStarted)
	second := e.subtask(t, task.ID, "Mockups", Models.SubtaskNotStarted)
	assert.Equal(t, 2, second.Position)

	reloaded := e.reloadTask(t, task.ID)
	assert.Equal(t, Models.TaskNotStarted, reloaded.TeamStatus)
	assert.Equal(t, 0, reloaded.Progress)

	_, err := e.subtasks().Update(ctx, e.opic, first.ID, Services.UpdateSubtaskInput{Status: ptr(Models.SubtaskCompleted)})
	require.NoError(t, err)
	reloaded = e.reloadTask(t, task.ID)
	assert.Equal(t, Models.TaskInProgress, reloaded.TeamStatus)
	assert.Equal(t, 50, reloaded.Progress)
	assert.Equal(t, Models.ProjectInProgress, e.reloadProject(t, p.ID).Status)

	_, err = e.subtasks().Update(ctx, e.opic, second.ID, Services.UpdateSubtaskInput{Status: ptr(Models.SubtaskCompleted)})
	require.NoError(t, err)
	reloaded = e.reloadTask(t, task.ID)
	assert.Equal(t, Models.TaskCompleted, reloaded.TeamStatus)
	assert.Equal(t, 100, reloaded.Progress)
	require.NotNil(t, reloaded.CompletionDate)
	assert.True(t, reloaded.CompletionDate.Equal(e.clock.Now()))
	assert.Equal(t, Models.ProjectCompleted, e.reloadProject(t, p.ID).Status)
}

func TestCompletedTaskLocksSubtasks(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	sub := e.subtask(t, task.ID, "Wireframes", Models.SubtaskNotStarted)
	_, err := e.subtasks().Update(ctx, e.opic, sub.ID, Services.UpdateSubtaskInput{Status: ptr(Models.SubtaskCompleted)})
	require.NoError(t, err)

	_, err = e.subtasks().Create(ctx, e.opic, task.ID, Services.CreateSubtaskInput{Name: "Late"})
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err))

	_, err = e.subtasks().Update(ctx, e.opic, sub.ID, Services.UpdateSubtaskInput{Status: ptr(Models.SubtaskInProgress)})
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err))

	_, err = e.subtasks().Delete(ctx, e.opic, sub.ID)
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err))

	// An admin may still edit, and the task stays completed.
	extra, err := e.subtasks().Create(ctx, e.admin, task.ID, Services.CreateSubtaskInput{Name: "Retro"})
	require.NoError(t, err)
	assert.Equal(t, Models.SubtaskNotStarted, extra.Status)
	reloaded := e.reloadTask(t, task.ID)
	assert.Equal(t, Models.TaskCompleted, reloaded.TeamStatus)
	assert.Equal(t, 100, reloaded.Progress)
}

func TestDeleteSubtaskCountsRemaining(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	pending := e.subtask(t, task.ID, "Copy", Models.SubtaskNotStarted)
	e.subtask(t, task.ID, "Wireframes", Models.SubtaskCompleted)
	e.subtask(t, task.ID, "Mockups", Models.SubtaskCompleted)
	assert.Equal(t, 67, e.reloadTask(t, task.ID).Progress)

	after, err := e.subtasks().Delete(ctx, e.manager, pending.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.TaskCompleted, after.TeamStatus)
	assert.Equal(t, 100, after.Progress)
	assert.Len(t, after.Subtasks, 2)
}

func TestDeleteLastSubtaskResetsTask(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	only := e.subtask(t, task.ID, "Wireframes", Models.SubtaskInProgress)
	assert.Equal(t, Models.TaskInProgress, e.reloadTask(t, task.ID).TeamStatus)

	after, err := e.subtasks().Delete(ctx, e.opic, only.ID)
	require.NoError(t, err)
	assert.Equal(t, Models.TaskNotStarted, after.TeamStatus)
	assert.Equal(t, 0, after.Progress)
}

func TestSubtaskCompletionNotifies(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	sub := e.subtask(t, task.ID, "Wireframes", Models.SubtaskNotStarted)
	e.subtask(t, task.ID, "Mockups", Models.SubtaskNotStarted)
	e.sent.reset()

	_, err := e.subtasks().Update(ctx, e.admin, sub.ID, Services.UpdateSubtaskInput{Status: ptr(Models.SubtaskCompleted)})
	require.NoError(t, err)
	assert.Equal(t, []string{"Subtask Completed"}, e.sent.noticesFor(e.opic.ID))
	assert.Equal(t, []string{"Subtask Completed"}, e.sent.noticesFor(e.manager.ID))
}

func TestSubtaskInvalidStatus(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")

	_, err := e.subtasks().Create(ctx, e.manager, task.ID, Services.CreateSubtaskInput{Name: "x", Status: "Done"})
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))
	_, err = e.subtasks().Create(ctx, e.manager, task.ID, Services.CreateSubtaskInput{})
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))
}

func TestReviewQueue(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	sub := e.subtask(t, task.ID, "Wireframes", Models.SubtaskInReview)
	e.subtask(t, task.ID, "Mockups", Models.SubtaskNotStarted)

	items, err := e.subtasks().ReviewQueue(ctx, e.manager)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, sub.ID, items[0].Subtask.ID)
	assert.Equal(t, task.TaskCode, items[0].TaskCode)
	assert.Equal(t, "Website", items[0].ProjectName)
	assert.Equal(t, p.ProjectCode, items[0].ProjectCode)

	items, err = e.subtasks().ReviewQueue(ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	otherManager, err := Services.NewUserService(e.core, nil).Create(ctx, e.admin, Services.CreateUserInput{
		Name: "other", Email: "other@example.com", Role: Models.RoleManager,
	})
	require.NoError(t, err)
	items, err = e.subtasks().ReviewQueue(ctx, otherManager)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = e.subtasks().ReviewQueue(ctx, e.opic)
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))
}
