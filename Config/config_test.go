package Config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func env(values map[string]string) func(string) string {
	return func(key string) string { return values[key] }
}

func TestDefaults(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{"JWT_SECRET": "s3cret"}))
	require.NoError(t, err)
	assert.Equal(t, ":3001", cfg.HTTPAddr)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, 24*time.Hour, cfg.JWTTTL)
	assert.Equal(t, 24*time.Hour, cfg.ReminderWindow)
	assert.Equal(t, 587, cfg.SMTP.SMTPPort)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, time.UTC, cfg.Location)
	assert.Empty(t, cfg.LeaveApprovers)
}

func TestOverrides(t *testing.T) {
	cfg, err := FromEnv(env(map[string]string{
		"JWT_SECRET":      "s3cret",
		"DB_DRIVER":       "postgres",
		"DB_DSN":          "host=db user=app",
		"REMINDER_WINDOW": "2h",
		"SMTP_HOST":       "smtp.example.com",
		"SMTP_FROM":       "noreply@example.com",
		"SMTP_TLS":        "false",
		"LOG_LEVEL":       "DEBUG",
		"TIMEZONE":        "Africa/Cairo",
		"LEAVE_APPROVERS": "hr@example.com, boss@example.com ,",
	}))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, 2*time.Hour, cfg.ReminderWindow)
	assert.True(t, cfg.SMTP.Enabled())
	assert.False(t, cfg.SMTP.TLSEnabled)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "Africa/Cairo", cfg.Location.String())
	assert.Equal(t, []string{"hr@example.com", "boss@example.com"}, cfg.LeaveApprovers)
}

func TestInvalid(t *testing.T) {
	cases := map[string]map[string]string{
		"missing secret": {},
		"bad driver":     {"JWT_SECRET": "x", "DB_DRIVER": "oracle"},
		"bad duration":   {"JWT_SECRET": "x", "JWT_TTL": "forever"},
		"bad approver":   {"JWT_SECRET": "x", "LEAVE_APPROVERS": "not-an-address"},
		"slack channel":  {"JWT_SECRET": "x", "SLACK_BOT_TOKEN": "xoxb-1"},
		"bad zone":       {"JWT_SECRET": "x", "TIMEZONE": "Mars/Olympus"},
	}
	for name, values := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromEnv(env(values))
			assert.Error(t, err)
		})
	}
}
