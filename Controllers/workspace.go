package Controllers

import (
	"time"

	"Taskflow/Models"
	"Taskflow/Services"

	"github.com/gofiber/fiber/v2"
)

// TemplateController manages project templates
type TemplateController struct {
	Templates *Services.TemplateService
}

func NewTemplateController(templates *Services.TemplateService) *TemplateController {
	return &TemplateController{Templates: templates}
}

func (c *TemplateController) GetTemplates(ctx *fiber.Ctx) error {
	templates, err := c.Templates.List(ctx.UserContext())
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(templates)
}

func (c *TemplateController) GetTemplateForType(ctx *fiber.Ctx) error {
	template, err := c.Templates.ForType(ctx.UserContext(), ctx.Params("type"))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(template)
}

func (c *TemplateController) CreateTemplate(ctx *fiber.Ctx) error {
	var input Services.TemplateInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	template, err := c.Templates.Create(ctx.UserContext(), user(ctx), input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(template)
}

func (c *TemplateController) UpdateTemplate(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input Services.TemplateInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	template, err := c.Templates.Update(ctx.UserContext(), user(ctx), id, input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(template)
}

func (c *TemplateController) DeleteTemplate(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	if err := c.Templates.Delete(ctx.UserContext(), user(ctx), id); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Template deleted successfully"})
}

// NotificationController serves the in-app inbox and device tokens.
type NotificationController struct {
	Notifications *Services.NotificationService
}

func NewNotificationController(notifications *Services.NotificationService) *NotificationController {
	return &NotificationController{Notifications: notifications}
}

// GetNotifications accepts ?unread=true and ?limit=n.
func (c *NotificationController) GetNotifications(ctx *fiber.Ctx) error {
	filter := Services.NotificationFilter{
		UnreadOnly: queryBool(ctx, "unread"),
		Limit:      queryInt(ctx, "limit", 0),
	}
	list, err := c.Notifications.List(ctx.UserContext(), user(ctx), filter)
	if err != nil {
		return fail(ctx, err)
	}
	unread, err := c.Notifications.UnreadCount(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"notifications": list, "unread": unread})
}

func (c *NotificationController) MarkRead(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	n, err := c.Notifications.MarkRead(ctx.UserContext(), user(ctx), id)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(n)
}

func (c *NotificationController) MarkAllRead(ctx *fiber.Ctx) error {
	changed, err := c.Notifications.MarkAllRead(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"updated": changed})
}

func (c *NotificationController) RegisterToken(ctx *fiber.Ctx) error {
	var input Models.UpdateTokenRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	token, err := c.Notifications.RegisterToken(ctx.UserContext(), user(ctx), input.Value)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(token)
}

func (c *NotificationController) RemoveToken(ctx *fiber.Ctx) error {
	var input Models.UpdateTokenRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	if err := c.Notifications.RemoveToken(ctx.UserContext(), user(ctx), input.Value); err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{"message": "Token removed"})
}

// LeaveController runs the leave workflow.
type LeaveController struct {
	Leaves *Services.LeaveService
}

func NewLeaveController(leaves *Services.LeaveService) *LeaveController {
	return &LeaveController{Leaves: leaves}
}

func (c *LeaveController) ApplyLeave(ctx *fiber.Ctx) error {
	var input Services.ApplyLeaveInput
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	leave, err := c.Leaves.Apply(ctx.UserContext(), user(ctx), input)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.Status(fiber.StatusCreated).JSON(leave)
}

func (c *LeaveController) MyLeaves(ctx *fiber.Ctx) error {
	leaves, err := c.Leaves.Mine(ctx.UserContext(), user(ctx))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(leaves)
}

// AllLeaves accepts ?status=Pending|Approved|Rejected.
func (c *LeaveController) AllLeaves(ctx *fiber.Ctx) error {
	leaves, err := c.Leaves.All(ctx.UserContext(), user(ctx), Models.LeaveStatus(ctx.Query("status")))
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(leaves)
}

// LeaveSummary accepts ?month=2006-01 and defaults to the current month.
func (c *LeaveController) LeaveSummary(ctx *fiber.Ctx) error {
	var month time.Time
	if raw := ctx.Query("month"); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			return fail(ctx, Models.NewInvalidInput("month must look like 2006-01"))
		}
		month = parsed
	}
	summary, err := c.Leaves.Summary(ctx.UserContext(), user(ctx), month)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(summary)
}

type LeaveDecisionRequest struct {
	Status Models.LeaveStatus `json:"status"`
}

func (c *LeaveController) DecideLeave(ctx *fiber.Ctx) error {
	id, err := idParam(ctx, "id")
	if err != nil {
		return fail(ctx, err)
	}
	var input LeaveDecisionRequest
	if err := bind(ctx, &input); err != nil {
		return fail(ctx, err)
	}
	leave, err := c.Leaves.Decide(ctx.UserContext(), user(ctx), id, input.Status)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(leave)
}

// AuditController lists audit entries.
type AuditController struct {
	Audit *Services.AuditService
}

func NewAuditController(audit *Services.AuditService) *AuditController {
	return &AuditController{Audit: audit}
}

// GetAuditLogs accepts ?object_type=, ?user_id= and ?limit=.
func (c *AuditController) GetAuditLogs(ctx *fiber.Ctx) error {
	filter := Services.AuditFilter{
		ObjectType: ctx.Query("object_type"),
		UserID:     uint(queryInt(ctx, "user_id", 0)),
		Limit:      queryInt(ctx, "limit", 100),
	}
	logs, err := c.Audit.List(ctx.UserContext(), user(ctx), filter)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(logs)
}
