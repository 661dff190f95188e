// Package Commands is the taskflow command line: the API server plus the
// maintenance jobs an operator runs by hand.
package Commands

import (
	"context"
	"fmt"
	"os"

	"Taskflow/Config"
	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Services"
	"Taskflow/Store"
	"Taskflow/email"
	"Taskflow/logging"

	"github.com/sirupsen/logrus"
	"github.com/slack-go/slack"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env is what every subcommand shares once the root has loaded it.
type env struct {
	cfg *Config.Config
	log *logrus.Logger
	db  *gorm.DB
}

// NewRootCommand creates the taskflow root command.
func NewRootCommand() *cobra.Command {
	e := &env{}

	cmd := &cobra.Command{
		Use:           "taskflow",
		Short:         "Taskflow - project and task tracking API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := Config.Load()
			if err != nil {
				return err
			}
			log, err := logging.New(cfg.LogLevel, cfg.LogFile)
			if err != nil {
				return err
			}
			e.cfg, e.log = cfg, log
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			return e.close()
		},
	}

	cmd.AddCommand(newServeCommand(e))
	cmd.AddCommand(newMigrateCommand(e))
	cmd.AddCommand(newSeedRolesCommand(e))
	cmd.AddCommand(newRemindCommand(e))
	cmd.AddCommand(newCreateAdminCommand(e))

	return cmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// open connects to the configured database and migrates it.
func (e *env) open() (*gorm.DB, error) {
	if e.db != nil {
		return e.db, nil
	}
	db, err := Models.Connect(e.cfg.DBDriver, e.cfg.DBDSN, logging.Writer{Log: e.log})
	if err != nil {
		return nil, err
	}
	if err := Models.AutoMigrate(db); err != nil {
		return nil, err
	}
	e.db = db
	return db, nil
}

func (e *env) close() error {
	if e.db == nil {
		return nil
	}
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	e.db = nil
	return sqlDB.Close()
}

// core builds the services over the configured sinks. Push and Slack are
// only wired when their credentials are set, each behind its own breaker.
func (e *env) core(ctx context.Context, async bool) (*Services.Core, *Dispatch.Dispatcher, error) {
	db, err := e.open()
	if err != nil {
		return nil, nil, err
	}
	st := Store.New(db)
	clock := Models.SystemClock{Location: e.cfg.Location}

	sinks := Dispatch.Fanout{Dispatch.NewNotificationStore(st, clock)}
	if e.cfg.FirebaseCredentials != "" {
		messenger, err := Dispatch.NewFirebaseMessenger(ctx, e.cfg.FirebaseCredentials)
		if err != nil {
			e.log.WithError(err).Warn("push notifications disabled")
		} else {
			sinks = append(sinks, Dispatch.Guarded{
				Sink:    Dispatch.NewPushSink(st, messenger),
				Breaker: Dispatch.NewBreaker("push", breakerTimeout, e.log),
			})
		}
	}
	if e.cfg.SlackBotToken != "" {
		sinks = append(sinks, Dispatch.Guarded{
			Sink:    Dispatch.NewSlackSink(slack.New(e.cfg.SlackBotToken), e.cfg.SlackChannel),
			Breaker: Dispatch.NewBreaker("slack", breakerTimeout, e.log),
		})
	}

	opts := Dispatch.Options{
		Notifications: sinks,
		Audit:         Dispatch.NewAuditStore(st, clock),
		Logger:        e.log,
		Async:         async,
	}
	if e.cfg.SMTP.Enabled() {
		templates, err := email.NewTemplates()
		if err != nil {
			return nil, nil, err
		}
		opts.Mail = email.NewSender(e.cfg.SMTP)
		opts.Renderer = templates
	}

	dispatcher := Dispatch.New(opts)
	core := Services.NewCore(Services.Deps{
		Store:      st,
		Clock:      clock,
		Location:   e.cfg.Location,
		Dispatcher: dispatcher,
		Logger:     e.log,
	})
	return core, dispatcher, nil
}
