package Controllers

import (
	"Taskflow/Models"
	"Taskflow/Services"

	"github.com/gofiber/fiber/v2"
)

// TaskController covers tasks and their subtasks, dependencies and
// comments.
type TaskController struct {
	Tasks        *Services.TaskService
	Subtasks     *Services.SubtaskService
	Dependencies *Services.DependencyService
	Comments     *Services.CommentService
}

func NewTaskController(tasks *Services.TaskService, subtasks *Services.SubtaskService,
	deps *Services.DependencyService, comments *Services.CommentService) *TaskController {
	return &TaskController{Tasks: tasks, Subtasks: subtasks, Dependencies: deps, Comments: comments}
}

func (c *TaskController) CreateTask(ctx *fiber.Ctx) error {
	projectID, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.CreateTaskInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	task, err := c.Tasks.Create(ctx.UserContext(), user(ctx), projectID, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(task)
}

func (c *TaskController) GetTasks(ctx *fiber.Ctx) error {
	tasks, err := c.Tasks.ListForUser(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(tasks)
}

func (c *TaskController) GetTask(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	task, err := c.Tasks.Get(ctx.UserContext(), user(ctx), id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(task)
}

func (c *TaskController) UpdateTask(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.UpdateTaskInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	task, err := c.Tasks.Update(ctx.UserContext(), user(ctx), id, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(task)
}

func (c *TaskController) DeleteTask(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	if err := c.Tasks.Delete(ctx.UserContext(), user(ctx), id); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Task deleted successfully"})
}

func (c *TaskController) DueTasks(ctx *fiber.Ctx) error {
	due, stats, err := c.Tasks.Due(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"tasks": due, "stats": stats})
}

// Subtasks

func (c *TaskController) CreateSubtask(ctx *fiber.Ctx) error {
	taskID, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.CreateSubtaskInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	subtask, err := c.Subtasks.Create(ctx.UserContext(), user(ctx), taskID, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(subtask)
}

func (c *TaskController) UpdateSubtask(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.UpdateSubtaskInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	subtask, err := c.Subtasks.Update(ctx.UserContext(), user(ctx), id, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(subtask)
}

// DeleteSubtask returns the parent task as recomputed after the delete.
func (c *TaskController) DeleteSubtask(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	task, err := c.Subtasks.Delete(ctx.UserContext(), user(ctx), id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(task)
}

func (c *TaskController) ReviewQueue(ctx *fiber.Ctx) error {
	items, err := c.Subtasks.ReviewQueue(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(items)
}

// Dependencies

func (c *TaskController) AddDependency(ctx *fiber.Ctx) error {
	taskID, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.AddDependencyInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	dep, err := c.Dependencies.Add(ctx.UserContext(), user(ctx), taskID, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(dep)
}

type DependencyStatusRequest struct {
	Status Models.DependencyStatus `json:"status"`
}

func (c *TaskController) UpdateDependencyStatus(ctx *fiber.Ctx) error {
	taskID, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	depID, err := idParam(ctx, "depId")
	if err != nil {
		return fail(ctx, err)
	}
	var input DependencyStatusRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	dep, err := c.Dependencies.UpdateStatus(ctx.UserContext(), user(ctx), taskID, depID, input.Status)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(dep)
}

// DependenciesByPerson lists the tasks waiting on :personId.
func (c *TaskController) DependenciesByPerson(ctx *fiber.Ctx) error {
	personID, err := idParam(ctx, "personId")
	if err != nil {
		return fail(ctx, err)
	}
	tasks, err := c.Dependencies.ListByPerson(ctx.UserContext(), user(ctx), personID)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(tasks)
}

// Comments

type CommentRequest struct {
	Content string `json:"content"`
}

func (c *TaskController) AddComment(ctx *fiber.Ctx) error {
	taskID, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input CommentRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	comment, err := c.Comments.Add(ctx.UserContext(), user(ctx), taskID, input.Content)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(comment)
}

func (c *TaskController) GetComments(ctx *fiber.Ctx) error {
	taskID, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	comments, err := c.Comments.List(ctx.UserContext(), user(ctx), taskID)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(comments)
}

func (c *TaskController) UpdateComment(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input CommentRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	comment, err := c.Comments.Update(ctx.UserContext(), user(ctx), id, input.Content)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(comment)
}

func (c *TaskController) DeleteComment(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	if err := c.Comments.Delete(ctx.UserContext(), user(ctx), id); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Comment deleted successfully"})
}
