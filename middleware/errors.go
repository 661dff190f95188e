package middleware

import (
	"errors"

	"Taskflow/Models"

	"github.com/gofiber/fiber/v2"
)

var statusByCode = map[Models.ErrorCode]int{
	Models.ErrCodeNotFound:              fiber.StatusNotFound,
	Models.ErrCodeForbidden:             fiber.StatusForbidden,
	Models.ErrCodeCompletedEntityLocked: fiber.StatusLocked,
	Models.ErrCodePreconditionFailed:    fiber.StatusPreconditionFailed,
	Models.ErrCodeInvalidCompletionDate: fiber.StatusBadRequest,
	Models.ErrCodeQuotaExceeded:         fiber.StatusTooManyRequests,
	Models.ErrCodeDuplicateDependency:   fiber.StatusConflict,
	Models.ErrCodeConfigMissing:         fiber.StatusForbidden,
	Models.ErrCodeConcurrencyConflict:   fiber.StatusConflict,
	Models.ErrCodeInvalidInput:          fiber.StatusBadRequest,
	Models.ErrCodeUnauthorized:          fiber.StatusUnauthorized,
}

// StatusOf maps an error to its HTTP status. Errors without a domain code
// are internal.
func StatusOf(err error) int {
	if status, ok := statusByCode[Models.CodeOf(err)]; ok {
		return status
	}
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	return fiber.StatusInternalServerError
}

// Error writes err as the JSON error body. Internal errors are not echoed
// to the client.
func Error(c *fiber.Ctx, err error) error {
	status := StatusOf(err)
	body := fiber.Map{"error": string(Models.CodeOf(err)), "message": err.Error()}

	var domain *Models.DomainError
	switch {
	case errors.As(err, &domain):
		body["message"] = domain.Message
		if domain.Entity != "" {
			body["entity"] = domain.Entity
		}
	case status == fiber.StatusInternalServerError:
		c.Locals(errorKey, err)
		body["error"] = "INTERNAL"
		body["message"] = "Internal server error"
	default:
		body["error"] = "HTTP_ERROR"
	}
	return c.Status(status).JSON(body)
}

// ErrorHandler is the fiber.Config hook for errors handlers return instead
// of writing.
func ErrorHandler(c *fiber.Ctx, err error) error {
	return Error(c, err)
}
