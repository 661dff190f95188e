package Controllers

import (
	"fmt"
	"strconv"

	"Taskflow/Models"
	"Taskflow/middleware"

	"github.com/gofiber/fiber/v2"
)

// idParam reads a positive numeric route parameter.
func idParam(ctx *fiber.Ctx, name string) (uint, error) {
	id, err := strconv.ParseUint(ctx.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, Models.NewInvalidInput(fmt.Sprintf("invalid %s", name))
	}
	return uint(id), nil
}

// bind parses the JSON body into in.
func bind(ctx *fiber.Ctx, in any) error {
	if err := ctx.BodyParser(in); err != nil {
		return Models.NewInvalidInput("invalid request body: " + err.Error())
	}
	return nil
}

// queryInt reads a non-negative integer query value, falling back to def.
func queryInt(ctx *fiber.Ctx, key string, def int) int {
	n, err := strconv.Atoi(ctx.Query(key))
	if err != nil || n < 0 {
		return def
	}
	return n
}

func queryBool(ctx *fiber.Ctx, key string) bool {
	b, _ := strconv.ParseBool(ctx.Query(key))
	return b
}

func fail(ctx *fiber.Ctx, err error) error {
	return middleware.Error(ctx, err)
}

func user(ctx *fiber.Ctx) *Models.User {
	return middleware.CurrentUser(ctx)
}
