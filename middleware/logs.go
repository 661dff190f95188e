package middleware

import (
	"encoding/json"
	"time"

	"Taskflow/Models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	RequestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	errorKey        = "internal_error"
)

// LogConfig holds configuration for the logging middleware
type LogConfig struct {
	Logger logrus.FieldLogger
	// Include request body in logs
	IncludeBody bool
	// Include user ID in logs
	IncludeUserID bool
	// Skip logging for specific paths
	SkipPaths []string
	// SlowRequest raises the entry to warning when exceeded. Zero disables.
	SlowRequest time.Duration
}

// LogData contains all the information that will be logged
type LogData struct {
	Timestamp     time.Time     `json:"timestamp"`
	Method        string        `json:"method"`
	Path          string        `json:"path"`
	Status        int           `json:"status"`
	Latency       time.Duration `json:"latency"`
	IP            string        `json:"ip"`
	UserAgent     string        `json:"user_agent"`
	RequestID     string        `json:"request_id"`
	RequestBody   interface{}   `json:"request_body,omitempty"`
	Error         string        `json:"error,omitempty"`
	UserID        uint          `json:"user_id,omitempty"`
	Role          Models.Role   `json:"role,omitempty"`
	ContentLength int64         `json:"content_length"`
}

// DefaultLogConfig returns a default configuration for the logging middleware
func DefaultLogConfig(log logrus.FieldLogger) LogConfig {
	return LogConfig{
		Logger:        log,
		IncludeUserID: true,
		SkipPaths:     []string{"/health"},
		SlowRequest:   time.Second,
	}
}

// RequestID tags every request with an id, reusing the caller's
// X-Request-ID when present, and echoes it in the response.
func RequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Locals(requestIDKey, id)
		c.Set(RequestIDHeader, id)
		return c.Next()
	}
}

// RequestIDOf returns the id RequestID assigned, or "".
func RequestIDOf(c *fiber.Ctx) string {
	id, _ := c.Locals(requestIDKey).(string)
	return id
}

// LoggingMiddleware writes one logrus entry per request.
func LoggingMiddleware(cfg LogConfig) fiber.Handler {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *fiber.Ctx) error {
		if skip[c.Path()] {
			return c.Next()
		}
		start := time.Now()

		var requestBody interface{}
		if cfg.IncludeBody && c.Method() != fiber.MethodGet {
			if body := c.Body(); len(body) > 0 {
				var jsonData interface{}
				if err := json.Unmarshal(body, &jsonData); err == nil {
					requestBody = jsonData
				} else {
					requestBody = string(body)
				}
			}
		}

		err := c.Next()
		if err != nil {
			// Let the error handler write the response so the status is final.
			if herr := c.App().Config().ErrorHandler(c, err); herr != nil {
				c.Status(fiber.StatusInternalServerError)
			}
		}

		data := LogData{
			Timestamp:     start,
			Method:        c.Method(),
			Path:          c.Path(),
			Status:        c.Response().StatusCode(),
			Latency:       time.Since(start),
			IP:            c.IP(),
			UserAgent:     c.Get(fiber.HeaderUserAgent),
			RequestID:     RequestIDOf(c),
			RequestBody:   requestBody,
			ContentLength: int64(len(c.Response().Body())),
		}
		if internal, ok := c.Locals(errorKey).(error); ok {
			data.Error = internal.Error()
		} else if err != nil {
			data.Error = err.Error()
		}
		if cfg.IncludeUserID {
			if user := CurrentUser(c); user != nil {
				data.UserID = user.ID
				data.Role = user.Role
			}
		}
		logRequest(cfg, data)
		return nil
	}
}

func logRequest(cfg LogConfig, data LogData) {
	if cfg.Logger == nil {
		return
	}
	fields := logrus.Fields{
		"method":     data.Method,
		"path":       data.Path,
		"status":     data.Status,
		"latency":    data.Latency.String(),
		"ip":         data.IP,
		"request_id": data.RequestID,
	}
	if data.UserAgent != "" {
		fields["user_agent"] = data.UserAgent
	}
	if data.UserID != 0 {
		fields["user_id"] = data.UserID
		fields["role"] = data.Role
	}
	if data.RequestBody != nil {
		fields["request_body"] = data.RequestBody
	}
	entry := cfg.Logger.WithFields(fields)
	if data.Error != "" {
		entry = entry.WithField("error", data.Error)
	}

	switch {
	case data.Status >= fiber.StatusInternalServerError:
		entry.Error("request failed")
	case data.Status >= fiber.StatusBadRequest:
		entry.Info("request rejected")
	case cfg.SlowRequest > 0 && data.Latency > cfg.SlowRequest:
		entry.Warn("slow request")
	default:
		entry.Info("request handled")
	}
}
