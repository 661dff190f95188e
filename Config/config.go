// Package Config reads the process configuration from the environment,
// optionally seeded from a .env file.
package Config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"Taskflow/Models"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	HTTPAddr string `validate:"required"`
	DBDriver string `validate:"oneof=sqlite mysql postgres"`
	DBDSN    string `validate:"required"`

	JWTSecret string        `validate:"required"`
	JWTTTL    time.Duration `validate:"gt=0"`

	SMTP Models.EmailConfig

	FirebaseCredentials string
	SlackBotToken       string
	SlackChannel        string `validate:"required_with=SlackBotToken"`

	ReminderSchedule string        `validate:"required"`
	ReminderWindow   time.Duration `validate:"gt=0"`

	LogFile  string
	LogLevel string `validate:"oneof=trace debug info warn warning error fatal panic"`

	RoleSeedFile   string
	Timezone       string
	Location       *time.Location `validate:"-"`
	LeaveApprovers []string       `validate:"dive,email"`
}

// Load reads .env from the working directory if it exists and then the
// environment. Unset keys fall back to defaults that run a local sqlite
// instance.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function so tests need not touch
// the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, fallback string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	duration := func(key, fallback string) time.Duration {
		d, err := time.ParseDuration(get(key, fallback))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return d
	}
	boolean := func(key string, fallback bool) bool {
		raw := get(key, strconv.FormatBool(fallback))
		b, err := strconv.ParseBool(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
		return b
	}

	smtpPort, err := strconv.Atoi(get("SMTP_PORT", "587"))
	if err != nil {
		errs = append(errs, fmt.Errorf("SMTP_PORT: %w", err))
	}

	cfg := &Config{
		HTTPAddr:  get("HTTP_ADDR", ":3001"),
		DBDriver:  get("DB_DRIVER", "sqlite"),
		DBDSN:     get("DB_DSN", "taskflow.db"),
		JWTSecret: getenv("JWT_SECRET"),
		JWTTTL:    duration("JWT_TTL", "24h"),
		SMTP: Models.EmailConfig{
			SMTPServer: get("SMTP_HOST", ""),
			SMTPPort:   smtpPort,
			Username:   get("SMTP_USERNAME", ""),
			Password:   getenv("SMTP_PASSWORD"),
			FromEmail:  get("SMTP_FROM", ""),
			FromName:   get("SMTP_FROM_NAME", "Taskflow"),
			TLSEnabled: boolean("SMTP_TLS", true),
		},
		FirebaseCredentials: get("FIREBASE_CREDENTIALS", ""),
		SlackBotToken:       get("SLACK_BOT_TOKEN", ""),
		SlackChannel:        get("SLACK_CHANNEL", ""),
		ReminderSchedule:    get("REMINDER_SCHEDULE", "0 0 * * * *"),
		ReminderWindow:      duration("REMINDER_WINDOW", "24h"),
		LogFile:             get("LOG_FILE", ""),
		LogLevel:            strings.ToLower(get("LOG_LEVEL", "info")),
		RoleSeedFile:        get("ROLE_SEED_FILE", ""),
		Timezone:            get("TIMEZONE", "UTC"),
		LeaveApprovers:      splitList(getenv("LEAVE_APPROVERS")),
	}

	cfg.Location, err = time.LoadLocation(cfg.Timezone)
	if err != nil {
		errs = append(errs, fmt.Errorf("TIMEZONE: %w", err))
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
