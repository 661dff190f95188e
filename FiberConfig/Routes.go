package FiberConfig

import (
	"time"

	"Taskflow/Controllers"
	"Taskflow/Services"
	"Taskflow/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/sirupsen/logrus"
)

// Handlers is every controller the API mounts.
type Handlers struct {
	Users         *Controllers.UserController
	Roles         *Controllers.RoleController
	Projects      *Controllers.ProjectController
	Tasks         *Controllers.TaskController
	Templates     *Controllers.TemplateController
	Notifications *Controllers.NotificationController
	Leaves        *Controllers.LeaveController
	Audit         *Controllers.AuditController
	Logs          *Controllers.LogController

	// Verify authenticates /api routes other than login.
	Verify fiber.Handler
}

// NewHandlers builds the controllers over one shared core.
func NewHandlers(core *Services.Core, tokens *Services.Tokens, leaveApprovers []string) Handlers {
	users := Services.NewUserService(core, tokens)
	return Handlers{
		Users:    Controllers.NewUserController(users),
		Roles:    Controllers.NewRoleController(Services.NewRoleService(core)),
		Projects: Controllers.NewProjectController(Services.NewProjectService(core)),
		Tasks: Controllers.NewTaskController(
			Services.NewTaskService(core),
			Services.NewSubtaskService(core),
			Services.NewDependencyService(core),
			Services.NewCommentService(core),
		),
		Templates:     Controllers.NewTemplateController(Services.NewTemplateService(core)),
		Notifications: Controllers.NewNotificationController(Services.NewNotificationService(core)),
		Leaves:        Controllers.NewLeaveController(Services.NewLeaveService(core, leaveApprovers)),
		Audit:         Controllers.NewAuditController(Services.NewAuditService(core)),
		Logs:          Controllers.NewLogController("", nil, nil),
		Verify:        middleware.Verify(tokens, users),
	}
}

// NewApp creates the fiber app with the shared middleware stack.
func NewApp(log logrus.FieldLogger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Taskflow",
		ErrorHandler: middleware.ErrorHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	})
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.LoggingMiddleware(middleware.DefaultLogConfig(log)))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, " + middleware.RequestIDHeader,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		ExposeHeaders:    middleware.RequestIDHeader + ", Content-Disposition",
		AllowCredentials: false,
	}))
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	return app
}

func SetupRoutes(app *fiber.App, h Handlers) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API group
	api := app.Group("/api")
	api.Post("/login", h.Users.Login)
	api.Post("/logout", h.Users.Logout)

	auth := api.Group("", h.Verify)

	// User routes
	auth.Get("/profile", h.Users.Profile)
	auth.Get("/my-opics", h.Users.MyOpics)
	users := auth.Group("/users")
	users.Get("/", h.Users.ListUsers)
	users.Post("/", h.Users.CreateUser)
	users.Get("/:id", h.Users.GetUser)
	users.Put("/:id", h.Users.UpdateUser)
	users.Delete("/:id", h.Users.DeleteUser)

	// Role configuration
	roles := auth.Group("/roles")
	roles.Get("/", h.Roles.GetRoles)
	roles.Get("/:role", h.Roles.GetRole)
	roles.Put("/:role", h.Roles.ConfigureRole)
	roles.Delete("/:role", h.Roles.DeleteRole)

	// Project routes
	projects := auth.Group("/projects")
	projects.Get("/", h.Projects.GetProjects)
	projects.Post("/", h.Projects.CreateProject)
	projects.Get("/:id", h.Projects.GetProject)
	projects.Put("/:id", h.Projects.UpdateProject)
	projects.Delete("/:id", h.Projects.DeleteProject)
	projects.Get("/:id/export", h.Projects.ExportProject)
	projects.Post("/:id/tasks", h.Tasks.CreateTask)

	// Task routes - static paths before the ID routes
	tasks := auth.Group("/tasks")
	tasks.Get("/", h.Tasks.GetTasks)
	tasks.Get("/due", h.Tasks.DueTasks)
	tasks.Get("/dependencies/person/:personId", h.Tasks.DependenciesByPerson)
	tasks.Get("/:id", h.Tasks.GetTask)
	tasks.Put("/:id", h.Tasks.UpdateTask)
	tasks.Delete("/:id", h.Tasks.DeleteTask)
	tasks.Post("/:id/subtasks", h.Tasks.CreateSubtask)
	tasks.Post("/:id/dependencies", h.Tasks.AddDependency)
	tasks.Put("/:id/dependencies/:depId", h.Tasks.UpdateDependencyStatus)
	tasks.Get("/:id/comments", h.Tasks.GetComments)
	tasks.Post("/:id/comments", h.Tasks.AddComment)

	subtasks := auth.Group("/subtasks")
	subtasks.Get("/review", h.Tasks.ReviewQueue)
	subtasks.Put("/:id", h.Tasks.UpdateSubtask)
	subtasks.Delete("/:id", h.Tasks.DeleteSubtask)

	comments := auth.Group("/comments")
	comments.Put("/:id", h.Tasks.UpdateComment)
	comments.Delete("/:id", h.Tasks.DeleteComment)

	// Templates
	templates := auth.Group("/templates")
	templates.Get("/", h.Templates.GetTemplates)
	templates.Get("/type/:type", h.Templates.GetTemplateForType)
	templates.Post("/", h.Templates.CreateTemplate)
	templates.Put("/:id", h.Templates.UpdateTemplate)
	templates.Delete("/:id", h.Templates.DeleteTemplate)

	// Notifications and push tokens
	notifications := auth.Group("/notifications")
	notifications.Get("/", h.Notifications.GetNotifications)
	notifications.Put("/read-all", h.Notifications.MarkAllRead)
	notifications.Put("/:id/read", h.Notifications.MarkRead)
	auth.Post("/device-tokens", h.Notifications.RegisterToken)
	auth.Delete("/device-tokens", h.Notifications.RemoveToken)

	// Leaves
	leaves := auth.Group("/leaves")
	leaves.Post("/", h.Leaves.ApplyLeave)
	leaves.Get("/mine", h.Leaves.MyLeaves)
	leaves.Get("/summary", h.Leaves.LeaveSummary)
	leaves.Get("/", h.Leaves.AllLeaves)
	leaves.Put("/:id/status", h.Leaves.DecideLeave)

	auth.Get("/audit-logs", h.Audit.GetAuditLogs)

	// Request log viewer
	logs := auth.Group("/logs", middleware.AdminOnly())
	logs.Get("/", h.Logs.GetLogs)
	logs.Get("/stats", h.Logs.GetLogStats)
}
