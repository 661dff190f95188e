package middleware

import (
	"context"
	"strings"

	"Taskflow/Models"

	"github.com/gofiber/fiber/v2"
)

const (
	CookieName = "jwt"
	userKey    = "user"
)

// TokenParser turns a session token into the id of its user.
type TokenParser interface {
	Parse(raw string) (uint, error)
}

// UserLoader fetches the account a token belongs to.
type UserLoader interface {
	Get(ctx context.Context, id uint) (*Models.User, error)
}

// Verify authenticates the request from a bearer token or the jwt cookie
// and stores the user in Locals for the handlers.
func Verify(tokens TokenParser, users UserLoader) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Cookies(CookieName)
		}
		if raw == "" {
			return Error(c, Models.NewUnauthorized("Not Logged In."))
		}

		id, err := tokens.Parse(raw)
		if err != nil {
			return Error(c, err)
		}
		user, err := users.Get(c.UserContext(), id)
		if err != nil {
			if Models.HasCode(err, Models.ErrCodeNotFound) {
				return Error(c, Models.NewUnauthorized("User not found"))
			}
			return Error(c, err)
		}

		c.Locals(userKey, user)
		return c.Next()
	}
}

// AdminOnly rejects every caller that is not an admin. It must run after
// Verify.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		user := CurrentUser(c)
		if user == nil || !user.IsAdmin() {
			return Error(c, Models.NewForbidden("Insufficient permissions to access this resource"))
		}
		return c.Next()
	}
}

// CurrentUser returns the user Verify authenticated, or nil.
func CurrentUser(c *fiber.Ctx) *Models.User {
	user, _ := c.Locals(userKey).(*Models.User)
	return user
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}
