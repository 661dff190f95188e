package Controllers

import (
	"Taskflow/Models"
	"Taskflow/Services"
	"Taskflow/middleware"

	"github.com/gofiber/fiber/v2"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserController handles login and account endpoints
type UserController struct {
	Users *Services.UserService
}

func NewUserController(users *Services.UserService) *UserController {
	return &UserController{Users: users}
}

// Login checks the credentials and sets the session cookie. The token is
// also returned for bearer clients.
func (c *UserController) Login(ctx *fiber.Ctx) error {
	var input LoginRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	res, err := c.Users.Login(ctx.UserContext(), input.Email, input.Password)
	if err != nil {
		return fail(ctx, err)
	}
	ctx.Cookie(&fiber.Cookie{
		Name:     middleware.CookieName,
		Value:    res.Token,
		Expires:  res.ExpiresAt,
		HTTPOnly: true,
	})
	return ctx.JSON(res)
}

func (c *UserController) Logout(ctx *fiber.Ctx) error {
	ctx.ClearCookie(middleware.CookieName)
	return ctx.JSON(fiber.Map{"message": "Logged out"})
}

func (c *UserController) Profile(ctx *fiber.Ctx) error {
	profile, err := c.Users.Profile(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(profile)
}

func (c *UserController) CreateUser(ctx *fiber.Ctx) error {
	var input Services.CreateUserInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	created, err := c.Users.Create(ctx.UserContext(), user(ctx), input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

func (c *UserController) GetUser(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	found, err := c.Users.Get(ctx.UserContext(), id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(found)
}

func (c *UserController) UpdateUser(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.UpdateUserInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	updated, err := c.Users.Update(ctx.UserContext(), user(ctx), id, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(updated)
}

func (c *UserController) DeleteUser(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	if err := c.Users.Delete(ctx.UserContext(), user(ctx), id); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "User deleted successfully"})
}

func (c *UserController) MyOpics(ctx *fiber.Ctx) error {
	opics, err := c.Users.MyOpics(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(opics)
}

// ListUsers filters by ?role= or ?team=; with neither it lists the caller's
// team.
func (c *UserController) ListUsers(ctx *fiber.Ctx) error {
	if role := ctx.Query("role"); role != "" {
		users, err := c.Users.ByRole(ctx.UserContext(), user(ctx), Models.Role(role))
		if err != nil {
			return fail(ctx, err)
		}
		return ctx.JSON(users)
	}
	team := ctx.Query("team", user(ctx).Team)
	users, err := c.Users.ByTeam(ctx.UserContext(), team)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(users)
}
