package Dispatch

import (
	"context"

	"Taskflow/Models"
)

type Notice struct {
	RecipientID uint
	Title       string
	Message     string
	Type        Models.NotificationType
	ReferenceID string
}

type AuditEntry struct {
	UserID     uint
	Action     string
	ObjectID   string
	ObjectType string
	Info       string
	// ParentID is resolved from the acting user's role when nil.
	ParentID *uint
}

// Mail is rendered from Template when set, otherwise Body is sent as is.
type Mail struct {
	To       []string
	Subject  string
	Template string
	Data     any
	Body     string
}

// NotificationSink delivers one notice to one recipient.
type NotificationSink interface {
	Notify(ctx context.Context, n Notice) error
}

type AuditSink interface {
	Record(ctx context.Context, e AuditEntry) error
}

type MailSink interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// Renderer turns a named mail template into an HTML body.
type Renderer interface {
	Render(name string, data any) (string, error)
}

// Effects collects side effects while an operation runs; they are handed
// to the Dispatcher only after the operation's transaction commits.
type Effects struct {
	Notices []Notice
	Audits  []AuditEntry
	Mails   []Mail
}

func (e *Effects) Notify(recipient uint, title, message string, kind Models.NotificationType, reference string) {
	if recipient == 0 {
		return
	}
	e.Notices = append(e.Notices, Notice{
		RecipientID: recipient,
		Title:       title,
		Message:     message,
		Type:        kind,
		ReferenceID: reference,
	})
}

func (e *Effects) Audit(userID uint, action, objectID, objectType, info string) {
	e.Audits = append(e.Audits, AuditEntry{
		UserID:     userID,
		Action:     action,
		ObjectID:   objectID,
		ObjectType: objectType,
		Info:       info,
	})
}

func (e *Effects) Mail(to []string, subject, template string, data any) {
	if len(to) == 0 {
		return
	}
	e.Mails = append(e.Mails, Mail{To: to, Subject: subject, Template: template, Data: data})
}

func (e *Effects) Empty() bool {
	return len(e.Notices) == 0 && len(e.Audits) == 0 && len(e.Mails) == 0
}

// Reset drops everything collected, e.g. before a retried attempt.
func (e *Effects) Reset() {
	e.Notices, e.Audits, e.Mails = nil, nil, nil
}
