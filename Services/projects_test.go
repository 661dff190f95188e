package Services_test

import (
	"testing"
	"time"

	"Taskflow/Models"
	"Taskflow/Services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProject(t *testing.T) {
	e := newEnv(t)

	p := e.project(t, "Website")
	assert.Equal(t, "PJ240315-0001", p.ProjectCode)
	assert.Equal(t, Models.ProjectPending, p.Status)
	assert.Equal(t, e.manager.ID, p.OwnerID)
	assert.Equal(t, e.manager.ID, p.ProjectOwnerID)
	assert.Equal(t, []uint{e.opic.ID}, p.AssignedUserIDs())
	assert.Equal(t, []string{"Project Assignment"}, e.sent.noticesFor(e.opic.ID))

	second := e.project(t, "Mobile")
	assert.Equal(t, "PJ240315-0002", second.ProjectCode)

	var logs []Models.AuditLog
	require.NoError(t, e.db.Where("object_type = ?", "project").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, e.manager.ID, *logs[0].ParentID)
}

func TestCreateProjectRequiresPermission(t *testing.T) {
	e := newEnv(t)

	_, _, err := e.projects().Create(ctx, e.opic, Services.CreateProjectInput{Name: "Nope"})
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))

	_, _, err = e.projects().Create(ctx, e.manager, Services.CreateProjectInput{})
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))

	_, _, err = e.projects().Create(ctx, e.manager, Services.CreateProjectInput{Name: "Ghosts", AssignedUserIDs: []uint{999}})
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err))

	var count int64
	require.NoError(t, e.db.Model(&Models.Project{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateProjectMissingRoleConfig(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, e.db.Where("role_name = ?", Models.RoleManager).Delete(&Models.RoleConfig{}).Error)

	_, _, err := e.projects().Create(ctx, e.manager, Services.CreateProjectInput{Name: "Website"})
	assert.Equal(t, Models.ErrCodeConfigMissing, Models.CodeOf(err))
}

func TestCreateProjectFromTemplate(t *testing.T) {
	e := newEnv(t)
	_, err := e.templates().Create(ctx, e.manager, Services.TemplateInput{
		Name:        "Website build",
		ProjectType: "website",
		Tasks: []Models.TemplateTask{
			{Name: "Design", Subtasks: []string{"Wireframes", "Mockups"}},
			{Name: "Build"},
		},
	})
	require.NoError(t, err)

	p, used, err := e.projects().Create(ctx, e.manager, Services.CreateProjectInput{Name: "Shop", Type: "website"})
	require.NoError(t, err)
	assert.True(t, used)
	assert.Equal(t, Models.ProjectInProgress, p.Status)
	require.Len(t, p.Tasks, 2)
	assert.Equal(t, "Design", p.Tasks[0].Name)
	assert.Equal(t, "TK240315-0001", p.Tasks[0].TaskCode)
	assert.Equal(t, "TK240315-0002", p.Tasks[1].TaskCode)
	assert.Equal(t, Models.TaskNotStarted, p.Tasks[0].TeamStatus)
	require.Len(t, p.Tasks[0].Subtasks, 2)
	assert.Equal(t, "Wireframes", p.Tasks[0].Subtasks[0].Name)
	assert.Equal(t, Models.SubtaskNotStarted, p.Tasks[0].Subtasks[1].Status)

	plain, used, err := e.projects().Create(ctx, e.manager, Services.CreateProjectInput{Name: "Other", Type: "research"})
	require.NoError(t, err)
	assert.False(t, used)
	assert.Empty(t, plain.Tasks)
	assert.Equal(t, Models.ProjectPending, plain.Status)
}

func TestProjectVisibility(t *testing.T) {
	e := newEnv(t)
	visible := e.project(t, "Assigned")
	_, _, err := e.projects().Create(ctx, e.manager, Services.CreateProjectInput{Name: "Private"})
	require.NoError(t, err)

	list, err := e.projects().List(ctx, e.opic)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, visible.ID, list[0].ID)

	all, err := e.projects().List(ctx, e.admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = e.projects().Get(ctx, e.opic, visible.ID+1)
	assert.Equal(t, Models.ErrCodeForbidden, Models.CodeOf(err))

	_, err = e.projects().Get(ctx, e.opic, 404)
	assert.Equal(t, Models.ErrCodeNotFound, Models.CodeOf(err))
}

func TestCompleteProjectRequiresCompletedTasks(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	e.task(t, p.ID, "Design")

	_, err := e.projects().Update(ctx, e.manager, p.ID, Services.UpdateProjectInput{
		Status: ptr(Models.ProjectCompleted),
	})
	assert.Equal(t, Models.ErrCodePreconditionFailed, Models.CodeOf(err))
	assert.Equal(t, Models.ProjectInProgress, e.reloadProject(t, p.ID).Status)
}

func TestCompletedProjectIsLocked(t *testing.T) {
	e := newEnv(t)
	end := e.clock.Now().AddDate(0, 0, 3)
	p, _, err := e.projects().Create(ctx, e.manager, Services.CreateProjectInput{
		Name:            "Website",
		EndDate:         &end,
		AssignedUserIDs: []uint{e.opic.ID},
	})
	require.NoError(t, err)
	e.sent.reset()

	done, err := e.projects().Update(ctx, e.manager, p.ID, Services.UpdateProjectInput{
		Status: ptr(Models.ProjectCompleted),
	})
	require.NoError(t, err)
	assert.Equal(t, Models.ProjectCompleted, done.Status)
	assert.Equal(t, Models.SubmissionBeforeTime, done.SubmissionStatus)
	require.NotNil(t, done.CompletionDate)
	assert.True(t, done.CompletionDate.Equal(e.clock.Now()))
	assert.Equal(t, []string{"Project Completed"}, e.sent.noticesFor(e.opic.ID))

	_, err = e.projects().Update(ctx, e.manager, p.ID, Services.UpdateProjectInput{Name: ptr("Renamed")})
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err))

	_, err = e.tasks().Create(ctx, e.manager, p.ID, Services.CreateTaskInput{Name: "Late"})
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err))
	_, err = e.tasks().Create(ctx, e.admin, p.ID, Services.CreateTaskInput{Name: "Late"})
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err), "admins cannot add tasks either")
	var tasks int64
	require.NoError(t, e.db.Model(&Models.Task{}).Where("project_id = ?", p.ID).Count(&tasks).Error)
	assert.Zero(t, tasks)
	assert.Equal(t, Models.ProjectCompleted, e.reloadProject(t, p.ID).Status)

	err = e.projects().Delete(ctx, e.manager, p.ID)
	assert.Equal(t, Models.ErrCodeCompletedEntityLocked, Models.CodeOf(err))
	require.NoError(t, e.projects().Delete(ctx, e.admin, p.ID))
}

func TestProjectCompletionDateInFuture(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")

	past := e.clock.Now().Add(-time.Hour)
	_, err := e.projects().Update(ctx, e.manager, p.ID, Services.UpdateProjectInput{CompletionDate: &past})
	assert.Equal(t, Models.ErrCodeInvalidInput, Models.CodeOf(err), "completion_date alone is rejected")

	future := e.clock.Now().Add(48 * time.Hour)
	_, err = e.projects().Update(ctx, e.manager, p.ID, Services.UpdateProjectInput{
		Status:         ptr(Models.ProjectCompleted),
		CompletionDate: &future,
	})
	assert.Equal(t, Models.ErrCodeInvalidCompletionDate, Models.CodeOf(err))
	assert.Equal(t, Models.ProjectPending, e.reloadProject(t, p.ID).Status)
}

func TestUpdateProjectNotifiesNewAssignees(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	other := createOpic(t, e, "second")
	e.sent.reset()

	updated, err := e.projects().Update(ctx, e.manager, p.ID, Services.UpdateProjectInput{
		AssignedUserIDs: &[]uint{e.opic.ID, other.ID},
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{e.opic.ID, other.ID}, updated.AssignedUserIDs())
	assert.Empty(t, e.sent.noticesFor(e.opic.ID))
	assert.Equal(t, []string{"Project Assignment"}, e.sent.noticesFor(other.ID))
	assert.Equal(t, uint(2), updated.Version)
}

func TestDeleteProjectCascades(t *testing.T) {
	e := newEnv(t)
	p := e.project(t, "Website")
	task := e.task(t, p.ID, "Design")
	e.subtask(t, task.ID, "Wireframes", Models.SubtaskNotStarted)
	_, err := e.deps().Add(ctx, e.manager, task.ID, Services.AddDependencyInput{PersonID: e.admin.ID, Description: "Budget"})
	require.NoError(t, err)
	_, err = e.comments().Add(ctx, e.manager, task.ID, "kick-off")
	require.NoError(t, err)

	require.NoError(t, e.projects().Delete(ctx, e.manager, p.ID))

	for _, model := range []any{&Models.Project{}, &Models.Task{}, &Models.Subtask{}, &Models.Dependency{}, &Models.Comment{}} {
		var n int64
		require.NoError(t, e.db.Model(model).Count(&n).Error)
		assert.Zero(t, n, "%T", model)
	}
}

func createOpic(t *testing.T, e *env, name string) *Models.User {
	t.Helper()
	user, err := Services.NewUserService(e.core, nil).Create(ctx, e.manager, Services.CreateUserInput{
		Name:  name,
		Email: name + "@example.com",
		Role:  Models.RoleOpic,
	})
	require.NoError(t, err)
	return user
}
