package Controllers

import (
	"fmt"

	"Taskflow/Reports"
	"Taskflow/Services"

	"github.com/gofiber/fiber/v2"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ProjectController handles project endpoints and the project workbook
// export.
type ProjectController struct {
	Projects *Services.ProjectService
}

func NewProjectController(projects *Services.ProjectService) *ProjectController {
	return &ProjectController{Projects: projects}
}

func (c *ProjectController) GetProjects(ctx *fiber.Ctx) error {
	projects, err := c.Projects.List(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(projects)
}

func (c *ProjectController) GetProject(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	project, err := c.Projects.Get(ctx.UserContext(), user(ctx), id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(project)
}

func (c *ProjectController) CreateProject(ctx *fiber.Ctx) error {
	var input Services.CreateProjectInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	project, fromTemplate, err := c.Projects.Create(ctx.UserContext(), user(ctx), input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(fiber.Map{
		"project":       project,
		"from_template": fromTemplate,
	})
}

func (c *ProjectController) UpdateProject(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.UpdateProjectInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	project, err := c.Projects.Update(ctx.UserContext(), user(ctx), id, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(project)
}

func (c *ProjectController) DeleteProject(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	if err := c.Projects.Delete(ctx.UserContext(), user(ctx), id); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Project deleted successfully"})
}

// ExportProject downloads the project's tasks and subtasks as xlsx.
func (c *ProjectController) ExportProject(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	project, err := c.Projects.Get(ctx.UserContext(), user(ctx), id)
	if err != nil {
		return fail(ctx, err)
	}
	buf, err := Reports.ProjectWorkbook(project)
	if err != nil {
		return fail(ctx, err)
	}
	ctx.Set(fiber.HeaderContentType, xlsxContentType)
	ctx.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", Reports.Filename(project)))
	return ctx.Send(buf.Bytes())
}
