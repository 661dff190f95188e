package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"sort"
	"strings"

	"Taskflow/Models"
)

// Sender delivers mail over SMTP, optionally wrapped in TLS.
type Sender struct {
	config Models.EmailConfig
	dialer net.Dialer
}

func NewSender(config Models.EmailConfig) *Sender {
	return &Sender{config: config}
}

// Send sends an HTML body to the given recipients.
func (s *Sender) Send(ctx context.Context, to []string, subject, body string) error {
	return s.SendMessage(ctx, Models.EmailMessage{
		To:      to,
		Subject: subject,
		Body:    body,
		IsHTML:  true,
	})
}

func (s *Sender) SendMessage(ctx context.Context, message Models.EmailMessage) error {
	recipients := make([]string, 0, len(message.To)+len(message.CC)+len(message.BCC))
	recipients = append(recipients, message.To...)
	recipients = append(recipients, message.CC...)
	recipients = append(recipients, message.BCC...)
	if len(recipients) == 0 {
		return fmt.Errorf("email has no recipients")
	}

	serverAddr := fmt.Sprintf("%s:%d", s.config.SMTPServer, s.config.SMTPPort)
	conn, err := s.dialer.DialContext(ctx, "tcp", serverAddr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	if s.config.TLSEnabled {
		conn = tls.Client(conn, &tls.Config{
			ServerName:         s.config.SMTPServer,
			InsecureSkipVerify: s.config.SkipTLSCheck,
		})
	}
	if deadline, ok := ctx.Deadline(); ok {
		conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.SMTPServer)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if !s.config.TLSEnabled {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{
				ServerName:         s.config.SMTPServer,
				InsecureSkipVerify: s.config.SkipTLSCheck,
			}); err != nil {
				return fmt.Errorf("STARTTLS failed: %w", err)
			}
		}
	}
	if s.config.Username != "" {
		auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.SMTPServer)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	if err := client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	for _, recipient := range recipients {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("failed to add recipient %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open data connection: %w", err)
	}
	if _, err := w.Write(BuildMessage(s.config, message)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close data connection: %w", err)
	}
	return client.Quit()
}

// BuildMessage renders headers and body in wire format. BCC recipients are
// never written into the headers.
func BuildMessage(config Models.EmailConfig, message Models.EmailMessage) []byte {
	headers := map[string]string{
		"From":    fmt.Sprintf("%s <%s>", config.FromName, config.FromEmail),
		"To":      strings.Join(message.To, ", "),
		"Subject": message.Subject,
	}
	if len(message.CC) > 0 {
		headers["Cc"] = strings.Join(message.CC, ", ")
	}
	if message.IsHTML {
		headers["MIME-Version"] = "1.0"
		headers["Content-Type"] = "text/html; charset=UTF-8"
	} else {
		headers["Content-Type"] = "text/plain; charset=UTF-8"
	}

	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\r\n", k, headers[k])
	}
	b.WriteString("\r\n")
	b.WriteString(message.Body)
	return []byte(b.String())
}
