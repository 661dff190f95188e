package email_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"Taskflow/Models"
	"Taskflow/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessage(t *testing.T) {
	cfg := Models.EmailConfig{FromName: "Taskflow", FromEmail: "noreply@example.com"}
	raw := string(email.BuildMessage(cfg, Models.EmailMessage{
		To:      []string{"a@example.com", "b@example.com"},
		CC:      []string{"c@example.com"},
		BCC:     []string{"hidden@example.com"},
		Subject: "Leave approved",
		Body:    "<p>ok</p>",
		IsHTML:  true,
	}))

	headers, body, found := strings.Cut(raw, "\r\n\r\n")
	require.True(t, found)
	assert.Equal(t, "<p>ok</p>", body)
	assert.Contains(t, headers, "From: Taskflow <noreply@example.com>")
	assert.Contains(t, headers, "To: a@example.com, b@example.com")
	assert.Contains(t, headers, "Cc: c@example.com")
	assert.Contains(t, headers, "Content-Type: text/html; charset=UTF-8")
	assert.NotContains(t, headers, "hidden@example.com")
}

func TestSendWithoutRecipients(t *testing.T) {
	s := email.NewSender(Models.EmailConfig{SMTPServer: "127.0.0.1", SMTPPort: 1})
	err := s.Send(context.Background(), nil, "subject", "body")
	assert.Error(t, err)
}

func TestSendUnreachableServer(t *testing.T) {
	s := email.NewSender(Models.EmailConfig{SMTPServer: "127.0.0.1", SMTPPort: 1, FromEmail: "x@example.com"})
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.Send(ctx, []string{"a@example.com"}, "subject", "body")
	assert.Error(t, err)
}

func TestTemplatesRender(t *testing.T) {
	tpl, err := email.NewTemplates()
	require.NoError(t, err)

	body, err := tpl.Render(email.TemplateWelcome, map[string]any{
		"Name":     "Bob",
		"Role":     "opic",
		"Email":    "bob@example.com",
		"Password": "s3cret",
	})
	require.NoError(t, err)
	assert.Contains(t, body, "Welcome, Bob")
	assert.Contains(t, body, "s3cret")

	for _, name := range []string{
		email.TemplateDependencyAdded,
		email.TemplateDependencyStatus,
		email.TemplateLeaveRequest,
		email.TemplateLeaveDecision,
	} {
		_, err := tpl.Render(name, map[string]any{})
		assert.NoError(t, err, name)
	}
}
