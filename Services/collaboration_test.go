package Services_test

import (
	"testing"

	"Taskflow/Models"
	"Taskflow/Services"
	"Taskflow/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddDependency(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	e.sent.reset()

	dep, err := e.deps().Add(ctx, e.opic, task.ID, Services.AddDependencyInput{
		PersonID:    e.admin.ID,
		Description: "Need API keys",
	})
	require.NoError(t, err)
	assert.Equal(t, Models.DependencyPending, dep.Status)
	require.Len(t, e.sent.mails, 1)
	assert.Equal(t, []string{"admin@example.com"}, e.sent.mails[0].To)
	assert.Equal(t, email.TemplateDependencyAdded, e.sent.mails[0].Body)

	_, err = e.deps().Add(ctx, e.opic, task.ID, Services.AddDependencyInput{
		PersonID:    e.admin.ID,
		Description: "  need api KEYS ",
	})
	assert.Equal(t, Models.ErrCodeDuplicateDependency, Models.CodeOf(err))

	_, err = e.deps().Add(ctx, e.opic, task.ID, Services.AddDependencyInput{
		PersonID:    e.manager.ID,
		Description: "Need API keys",
	})
	require.NoError(t, err, "the same description may be owed by someone else")
}

func TestDependencyStatus(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	dep, err := e.deps().Add(ctx, e.manager, task.ID, Services.AddDependencyInput{PersonID: e.opic.ID, Description: "Copy text"})
	require.NoError(t, err)
	e.sent.reset()

	_, err = e.deps().UpdateStatus(ctx, e.manager, task.ID, dep.ID, Models.DependencyCompleted)
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))

	_, err = e.deps().UpdateStatus(ctx, e.opic, task.ID, dep.ID, "Blocked")
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))

	updated, err := e.deps().UpdateStatus(ctx, e.opic, task.ID, dep.ID, Models.DependencyInProgress)
	require.NoError(t, err)
	assert.Equal(t, Models.DependencyInProgress, updated.Status)
	require.Len(t, e.sent.mails, 1)
	assert.Equal(t, []string{"manager@example.com"}, e.sent.mails[0].To)

	tasks, err := e.deps().ListByPerson(ctx, e.manager, e.opic.ID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Len(t, tasks[0].Dependencies, 1)
	assert.Equal(t, "Copy text", tasks[0].Dependencies[0].Description)

	_, err = e.deps().ListByPerson(ctx, e.opic, e.manager.ID)
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))
}

func TestDependencyOnCompletedTask(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	_, err := e.tasks().Update(ctx, e.manager, task.ID, Services.UpdateTaskInput{TeamStatus: ptr(Models.TaskCompleted)})
	require.NoError(t, err)

	_, err = e.deps().Add(ctx, e.manager, task.ID, Services.AddDependencyInput{PersonID: e.opic.ID, Description: "Too late"})
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err))
}

func TestComments(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	e.sent.reset()

	c, err := e.comments().Add(ctx, e.manager, task.ID, "  first draft is up  ")
	require.NoError(t, err)
	assert.Equal(t, "first draft is up", c.Content)
	assert.Equal(t, []string{"New Comment"}, e.sent.noticesFor(e.opic.ID))

	_, err = e.comments().Add(ctx, e.manager, task.ID, "   ")
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))

	_, err = e.comments().Update(ctx, e.opic, c.ID, "hijacked")
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))
	edited, err := e.comments().Update(ctx, e.manager, c.ID, "second draft")
	require.NoError(t, err)
	assert.Equal(t, "second draft", edited.Content)

	stranger := createOpic(t, e, "stranger")
	_, err = e.comments().List(ctx, stranger, task.ID)
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))

	err = e.comments().Delete(ctx, e.opic, c.ID)
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))
	require.NoError(t, e.comments().Delete(ctx, e.admin, c.ID))

	list, err := e.comments().List(ctx, e.opic, task.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestTemplates(t *testing.T) {
	e := newEnv(t)
	tpls := e.templates()

	_, err := tpls.Create(ctx, e.opic, Services.TemplateInput{Name: "x", ProjectType: "x"})
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))

	_, err = tpls.Create(ctx, e.manager, Services.TemplateInput{
		Name: "Broken", ProjectType: "broken", Tasks: []Models.TemplateTask{{}},
	})
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))

	tpl, err := tpls.Create(ctx, e.manager, Services.TemplateInput{
		Name: "Launch", ProjectType: "launch", Tasks: []Models.TemplateTask{{Name: "Announce"}},
	})
	require.NoError(t, err)

	_, err = tpls.Create(ctx, e.manager, Services.TemplateInput{Name: "Again", ProjectType: "launch"})
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))

	found, err := tpls.ForType(ctx, " launch ")
	require.NoError(t, err)
	tasks, err := found.TaskList()
	require.NoError(t, err)
	assert.Equal(t, "Announce", tasks[0].Name)

	updated, err := tpls.Update(ctx, e.manager, tpl.ID, Services.TemplateInput{
		Name: "Launch v2", ProjectType: "launch",
		Tasks: []Models.TemplateTask{{Name: "Announce"}, {Name: "Follow up", Subtasks: []string{"Survey"}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Launch v2", updated.Name)

	require.NoError(t, tpls.Delete(ctx, e.manager, tpl.ID))
	_, err = tpls.ForType(ctx, "launch")
	assert.Equal(t, Models.ErrCodeNotFound, Models.CodeOf(err))

	_, err = tpls.Create(ctx, e.manager, Services.TemplateInput{Name: "Launch", ProjectType: "launch"})
	require.NoError(t, err, "a deleted template frees its project type")
}
