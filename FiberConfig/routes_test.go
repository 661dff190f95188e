package FiberConfig

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Services"
	"Taskflow/Store"
	"Taskflow/Store/storetest"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type api struct {
	t   *testing.T
	app *fiber.App
}

func (a api) do(method, path, token string, body any) (int, []byte) {
	a.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	res, err := a.app.Test(req, -1)
	require.NoError(a.t, err)
	defer res.Body.Close()
	out, err := io.ReadAll(res.Body)
	require.NoError(a.t, err)
	return res.StatusCode, out
}

func (a api) json(method, path, token string, body any, want int) map[string]any {
	a.t.Helper()
	status, raw := a.do(method, path, token, body)
	require.Equal(a.t, want, status, string(raw))
	var out map[string]any
	require.NoError(a.t, json.Unmarshal(raw, &out))
	return out
}

func (a api) login(address, password string) string {
	a.t.Helper()
	res := a.json(fiber.MethodPost, "/api/login", "", fiber.Map{"email": address, "password": password}, fiber.StatusOK)
	return res["token"].(string)
}

func newAPI(t *testing.T) api {
	db := storetest.NewDB(t)
	st := Store.New(db)
	clock := storetest.Clock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	storetest.GrantRole(t, db, Models.RoleManager,
		Models.PermCreateProject, Models.PermEditProject, Models.PermCreateTask, Models.PermCreateUser)
	storetest.GrantRole(t, db, Models.RoleOpic, Models.PermEditTask)

	log, _ := test.NewNullLogger()
	core := Services.NewCore(Services.Deps{
		Store: st,
		Clock: clock,
		Dispatcher: Dispatch.New(Dispatch.Options{
			Notifications: Dispatch.NewNotificationStore(st, clock),
			Audit:         Dispatch.NewAuditStore(st, clock),
		}),
	})
	tokens := Services.NewTokens("test-secret", time.Hour, clock)
	_, err := Services.NewUserService(core, tokens).Bootstrap(context.Background(), "Root", "root@example.com", "root-password")
	require.NoError(t, err)

	app := NewApp(log)
	SetupRoutes(app, NewHandlers(core, tokens, nil))
	return api{t: t, app: app}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	res := a.json(fiber.MethodGet, "/health", "", nil, fiber.StatusOK)
	assert.Equal(t, "ok", res["status"])
}

func TestAuthentication(t *testing.T) {
	a := newAPI(t)

	res := a.json(fiber.MethodGet, "/api/projects", "", nil, fiber.StatusUnauthorized)
	assert.Equal(t, "UNAUTHORIZED", res["error"])

	res = a.json(fiber.MethodPost, "/api/login", "", fiber.Map{"email": "root@example.com", "password": "nope"}, fiber.StatusUnauthorized)
	assert.Equal(t, "invalid credentials", res["message"])

	token := a.login("root@example.com", "root-password")
	profile := a.json(fiber.MethodGet, "/api/profile", token, nil, fiber.StatusOK)
	assert.Equal(t, "Root", profile["name"])
	assert.Equal(t, "admin", profile["role"])
}

func TestProjectWorkflow(t *testing.T) {
	a := newAPI(t)
	admin := a.login("root@example.com", "root-password")

	a.json(fiber.MethodPost, "/api/users", admin, fiber.Map{
		"name": "Lena", "email": "lena@example.com", "role": "manager", "password": "manager-password",
	}, fiber.StatusCreated)
	manager := a.login("lena@example.com", "manager-password")

	opic := a.json(fiber.MethodPost, "/api/users", manager, fiber.Map{
		"name": "Omar", "email": "omar@example.com", "role": "opic", "password": "opic-password",
	}, fiber.StatusCreated)
	opicToken := a.login("omar@example.com", "opic-password")

	a.json(fiber.MethodPost, "/api/projects", opicToken, fiber.Map{"project_name": "Nope"}, fiber.StatusForbidden)

	created := a.json(fiber.MethodPost, "/api/projects", manager, fiber.Map{
		"project_name":   "Website",
		"assigned_users": []any{opic["ID"]},
	}, fiber.StatusCreated)
	project := created["project"].(map[string]any)
	assert.Equal(t, "PJ240315-0001", project["project_id"])
	assert.Equal(t, false, created["from_template"])

	projectPath := "/api/projects/" + jsonID(project["ID"])
	task := a.json(fiber.MethodPost, projectPath+"/tasks", manager, fiber.Map{
		"task_name":   "Design",
		"assignee_id": opic["ID"],
	}, fiber.StatusCreated)
	assert.Equal(t, "TK240315-0001", task["task_id"])

	a.json(fiber.MethodPut, "/api/tasks/"+jsonID(task["ID"]), opicToken, fiber.Map{"team_status": "Completed"}, fiber.StatusOK)

	res := a.json(fiber.MethodPut, "/api/tasks/"+jsonID(task["ID"]), manager, fiber.Map{"task_name": "Again"}, fiber.StatusLocked)
	assert.Equal(t, "COMPLETED_ENTITY_LOCKED", res["error"])

	reloaded := a.json(fiber.MethodGet, projectPath, manager, nil, fiber.StatusOK)
	assert.Equal(t, "Completed", reloaded["status"])

	status, raw := a.do(fiber.MethodGet, projectPath+"/export", manager, nil)
	assert.Equal(t, fiber.StatusOK, status)
	assert.NotEmpty(t, raw)

	a.json(fiber.MethodGet, "/api/tasks/abc", manager, nil, fiber.StatusBadRequest)
	a.json(fiber.MethodGet, "/api/projects/999", manager, nil, fiber.StatusNotFound)
}

// jsonID formats a decoded JSON number as a path segment.
func jsonID(v any) string {
	return strconv.Itoa(int(v.(float64)))
}

func TestRequestLogRoutes(t *testing.T) {
	a := newAPI(t)
	admin := a.login("root@example.com", "root-password")
	a.json(fiber.MethodPost, "/api/users", admin, fiber.Map{
		"name": "Lena", "email": "lena@example.com", "role": "manager", "password": "manager-password",
	}, fiber.StatusCreated)
	manager := a.login("lena@example.com", "manager-password")

	a.json(fiber.MethodGet, "/api/logs", manager, nil, fiber.StatusForbidden)
	res := a.json(fiber.MethodGet, "/api/logs/stats", admin, nil, fiber.StatusNotFound)
	assert.Equal(t, "NOT_FOUND", res["error"])
}
