package Controllers

import (
	"time"

	"Taskflow/Models"
	"Taskflow/logging"

	"github.com/gofiber/fiber/v2"
)

// LogController serves the request log written to LOG_FILE. It is mounted
// for admins only.
type LogController struct {
	File     string
	Clock    Models.Clock
	Location *time.Location
}

func NewLogController(file string, clock Models.Clock, loc *time.Location) *LogController {
	if clock == nil {
		clock = Models.SystemClock{Location: loc}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &LogController{File: file, Clock: clock, Location: loc}
}

// LogsResponse is one page of route groups.
type LogsResponse struct {
	Groups      []logging.RouteGroup `json:"groups"`
	TotalLogs   int                  `json:"total_logs"`
	TotalGroups int                  `json:"total_groups"`
	Page        int                  `json:"page"`
	PageSize    int                  `json:"page_size"`
	TotalPages  int                  `json:"total_pages"`
	DateFrom    time.Time            `json:"date_from"`
	DateTo      time.Time            `json:"date_to"`
}

// filter reads ?date_from, ?date_to (YYYY-MM-DD), ?path, ?method and
// ?status. Without dates it covers today.
func (c *LogController) filter(ctx *fiber.Ctx) (logging.RequestFilter, error) {
	now := c.Clock.Now().In(c.Location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, c.Location)
	f := logging.RequestFilter{
		From:   today,
		To:     today.AddDate(0, 0, 1).Add(-time.Nanosecond),
		Path:   ctx.Query("path"),
		Method: ctx.Query("method"),
		Status: queryInt(ctx, "status", 0),
	}
	fromStr, toStr := ctx.Query("date_from"), ctx.Query("date_to")
	if fromStr == "" && toStr == "" {
		return f, nil
	}

	f.From, f.To = time.Time{}, now
	if fromStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", fromStr, c.Location)
		if err != nil {
			return f, Models.NewInvalidInput("Invalid date_from format. Use YYYY-MM-DD")
		}
		f.From = parsed
	}
	if toStr != "" {
		parsed, err := time.ParseInLocation("2006-01-02", toStr, c.Location)
		if err != nil {
			return f, Models.NewInvalidInput("Invalid date_to format. Use YYYY-MM-DD")
		}
		f.To = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return f, nil
}

func (c *LogController) read(ctx *fiber.Ctx) ([]logging.RequestEntry, logging.RequestFilter, error) {
	if c.File == "" {
		return nil, logging.RequestFilter{}, Models.NewNotFound("request log", "LOG_FILE")
	}
	f, err := c.filter(ctx)
	if err != nil {
		return nil, f, err
	}
	entries, err := logging.ReadRequests(c.File, f)
	return entries, f, err
}

// GetLogs groups requests by route with ?page and ?page_size paging.
func (c *LogController) GetLogs(ctx *fiber.Ctx) error {
	entries, f, err := c.read(ctx)
	if err != nil {
		return fail(ctx, err)
	}

	page := queryInt(ctx, "page", 1)
	if page < 1 {
		page = 1
	}
	pageSize := queryInt(ctx, "page_size", 50)
	if pageSize < 1 || pageSize > 1000 {
		pageSize = 50
	}

	groups := logging.GroupByRoute(entries)
	start := min((page-1)*pageSize, len(groups))
	end := min(start+pageSize, len(groups))

	return ctx.JSON(LogsResponse{
		Groups:      groups[start:end],
		TotalLogs:   len(entries),
		TotalGroups: len(groups),
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  (len(groups) + pageSize - 1) / pageSize,
		DateFrom:    f.From,
		DateTo:      f.To,
	})
}

func (c *LogController) GetLogStats(ctx *fiber.Ctx) error {
	entries, f, err := c.read(ctx)
	if err != nil {
		return fail(ctx, err)
	}
	return ctx.JSON(fiber.Map{
		"stats":     logging.Summarize(entries),
		"date_from": f.From,
		"date_to":   f.To,
	})
}
