package Controllers

import (
	"Taskflow/Models"
	"Taskflow/Services"

	"github.com/gofiber/fiber/v2"
)

type RoleRequest struct {
	Permissions []string `json:"permissions"`
}

type RoleController struct {
	Roles *Services.RoleService
}

func NewRoleController(roles *Services.RoleService) *RoleController {
	return &RoleController{Roles: roles}
}

func (c *RoleController) GetRoles(ctx *fiber.Ctx) error {
	roles, err := c.Roles.List(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(roles)
}

func (c *RoleController) GetRole(ctx *fiber.Ctx) error {
	role, err := c.Roles.Get(ctx.UserContext(), user(ctx), Models.Role(ctx.Params("role")))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(role)
}

// ConfigureRole replaces the permission set of :role.
func (c *RoleController) ConfigureRole(ctx *fiber.Ctx) error {
	var input RoleRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	role, err := c.Roles.Configure(ctx.UserContext(), user(ctx), Models.Role(ctx.Params("role")), input.Permissions)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(role)
}

func (c *RoleController) DeleteRole(ctx *fiber.Ctx) error {
	if err := c.Roles.Delete(ctx.UserContext(), user(ctx), Models.Role(ctx.Params("role"))); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Role configuration deleted"})
}
