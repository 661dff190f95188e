package Dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

type Options struct {
	Notifications NotificationSink
	Audit         AuditSink
	Mail          MailSink
	Renderer      Renderer
	Logger        logrus.FieldLogger
	// Async runs every dispatch on its own goroutine. Tests leave it off.
	Async bool
}

// Dispatcher delivers committed side effects. Failures are logged and
// never reach the caller.
type Dispatcher struct {
	opts Options
	wg   sync.WaitGroup
}

func New(opts Options) *Dispatcher {
	if opts.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		opts.Logger = l
	}
	return &Dispatcher{opts: opts}
}

func (d *Dispatcher) Dispatch(ctx context.Context, fx *Effects) {
	if fx == nil || fx.Empty() {
		return
	}
	batch := *fx
	if !d.opts.Async {
		d.deliver(ctx, batch)
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.deliver(context.WithoutCancel(ctx), batch)
	}()
}

// Wait blocks until every asynchronous dispatch has finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

func (d *Dispatcher) deliver(ctx context.Context, fx Effects) {
	defer func() {
		if r := recover(); r != nil {
			d.opts.Logger.WithField("panic", r).Error("side effect dispatch panicked")
		}
	}()

	if d.opts.Audit != nil {
		for _, e := range fx.Audits {
			if err := d.opts.Audit.Record(ctx, e); err != nil {
				d.opts.Logger.WithError(err).WithFields(logrus.Fields{
					"action":      e.Action,
					"object_id":   e.ObjectID,
					"object_type": e.ObjectType,
				}).Warn("failed to record audit log")
			}
		}
	}
	if d.opts.Notifications != nil {
		for _, n := range fx.Notices {
			if err := d.opts.Notifications.Notify(ctx, n); err != nil {
				d.opts.Logger.WithError(err).WithFields(logrus.Fields{
					"recipient": n.RecipientID,
					"type":      n.Type,
				}).Warn("failed to deliver notification")
			}
		}
	}
	if d.opts.Mail != nil {
		for _, m := range fx.Mails {
			if err := d.sendMail(ctx, m); err != nil {
				d.opts.Logger.WithError(err).WithField("subject", m.Subject).Warn("failed to send mail")
			}
		}
	}
}

func (d *Dispatcher) sendMail(ctx context.Context, m Mail) error {
	body := m.Body
	if m.Template != "" {
		if d.opts.Renderer == nil {
			return fmt.Errorf("no renderer configured for template %s", m.Template)
		}
		rendered, err := d.opts.Renderer.Render(m.Template, m.Data)
		if err != nil {
			return fmt.Errorf("failed to render %s: %w", m.Template, err)
		}
		body = rendered
	}
	return d.opts.Mail.Send(ctx, m.To, m.Subject, body)
}
