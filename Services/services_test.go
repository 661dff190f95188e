package Services_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Services"
	"Taskflow/Store"
	"Taskflow/Store/storetest"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

type sentMail struct {
	To      []string
	Subject string
	Body    string
}

type recorder struct {
	mu      sync.Mutex
	notices []Dispatch.Notice
	mails   []sentMail
}

func (r *recorder) Notify(_ context.Context, n Dispatch.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recorder) Send(_ context.Context, to []string, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.mails = append(r.mails, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

// noticesFor returns the titles of notices sent to recipient.
func (r *recorder) noticesFor(recipient uint) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var titles []string
	for _, n := range r.notices {
		if n.RecipientID == recipient {
			titles = append(titles, n.Title)
		}
	}
	return titles
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
	r.mails = nil
}

// templateName renders a mail body as just the template name.
type templateName struct{}

func (templateName) Render(name string, _ any) (string, error) { return name, nil }

type env struct {
	db      *gorm.DB
	store   *Store.Store
	clock   *Models.FixedClock
	core    *Services.Core
	sent    *recorder
	admin   *Models.User
	manager *Models.User
	opic    *Models.User
}

var managerPerms = []Models.Permission{
	Models.PermCreateProject, Models.PermEditProject, Models.PermDeleteProject,
	Models.PermCreateTask, Models.PermEditTask, Models.PermDeleteTask,
	Models.PermCreateSubtask, Models.PermEditSubtask, Models.PermDeleteSubtask,
	Models.PermCreateUser, Models.PermEditUser, Models.PermDeleteUser,
	Models.PermManageLeaves,
}

var opicPerms = []Models.Permission{
	Models.PermEditTask, Models.PermCreateSubtask, Models.PermEditSubtask, Models.PermDeleteSubtask,
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := storetest.NewDB(t)
	st := Store.New(db)
	clock := storetest.Clock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	sent := &recorder{}
	dispatcher := Dispatch.New(Dispatch.Options{
		Notifications: Dispatch.Fanout{Dispatch.NewNotificationStore(st, clock), sent},
		Audit:         Dispatch.NewAuditStore(st, clock),
		Mail:          sent,
		Renderer:      templateName{},
	})
	storetest.GrantRole(t, db, Models.RoleManager, managerPerms...)
	storetest.GrantRole(t, db, Models.RoleOpic, opicPerms...)

	admin := storetest.CreateUser(t, db, "admin", Models.RoleAdmin, nil)
	manager := storetest.CreateUser(t, db, "manager", Models.RoleManager, nil)
	opic := storetest.CreateUser(t, db, "opic", Models.RoleOpic, &manager.ID)

	return &env{
		db:    db,
		store: st,
		clock: clock,
		core: Services.NewCore(Services.Deps{
			Store:      st,
			Clock:      clock,
			Location:   time.UTC,
			Dispatcher: dispatcher,
		}),
		sent:    sent,
		admin:   admin,
		manager: manager,
		opic:    opic,
	}
}

func (e *env) projects() *Services.ProjectService {
	return Services.NewProjectService(e.core)
}

func (e *env) tasks() *Services.TaskService {
	return Services.NewTaskService(e.core)
}

func (e *env) subtasks() *Services.SubtaskService {
	return Services.NewSubtaskService(e.core)
}

func (e *env) deps() *Services.DependencyService {
	return Services.NewDependencyService(e.core)
}

func (e *env) comments() *Services.CommentService {
	return Services.NewCommentService(e.core)
}

func (e *env) leaves() *Services.LeaveService {
	return Services.NewLeaveService(e.core, []string{"hr@example.com"})
}

func (e *env) templates() *Services.TemplateService {
	return Services.NewTemplateService(e.core)
}

// project creates a project owned by the manager with the opic assigned.
func (e *env) project(t *testing.T, name string) *Models.Project {
	t.Helper()
	p, _, err := e.projects().Create(ctx, e.manager, Services.CreateProjectInput{
		Name:            name,
		AssignedUserIDs: []uint{e.opic.ID},
	})
	require.NoError(t, err)
	return p
}

// task creates a task in project assigned to the opic.
func (e *env) task(t *testing.T, projectID uint, name string) *Models.Task {
	t.Helper()
	task, err := e.tasks().Create(ctx, e.manager, projectID, Services.CreateTaskInput{
		Name:       name,
		AssigneeID: &e.opic.ID,
	})
	require.NoError(t, err)
	return task
}

func (e *env) subtask(t *testing.T, taskID uint, name string, status Models.SubtaskStatus) *Models.Subtask {
	t.Helper()
	sub, err := e.subtasks().Create(ctx, e.manager, taskID, Services.CreateSubtaskInput{
		Name:       name,
		AssigneeID: &e.opic.ID,
		Status:     status,
	})
	require.NoError(t, err)
	return sub
}

func (e *env) reloadTask(t *testing.T, id uint) *Models.Task {
	t.Helper()
	task, err := Store.Get[Models.Task](e.store, id)
	require.NoError(t, err)
	return task
}

func (e *env) reloadProject(t *testing.T, id uint) *Models.Project {
	t.Helper()
	project, err := Store.Get[Models.Project](e.store, id)
	require.NoError(t, err)
	return project
}

func ptr[T any](v T) *T { return &v }
