package Commands

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"Taskflow/Controllers"
	"Taskflow/CronJobs"
	"Taskflow/FiberConfig"
	"Taskflow/Services"

	"github.com/spf13/cobra"
)

const breakerTimeout = 30 * time.Second

func newServeCommand(e *env) *cobra.Command {
	var noReminders bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the deadline reminder job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			core, dispatcher, err := e.core(ctx, true)
			if err != nil {
				return err
			}
			defer dispatcher.Wait()

			if e.cfg.RoleSeedFile != "" {
				if _, err := seedRoles(ctx, core, e.cfg.RoleSeedFile); err != nil {
					return err
				}
			}

			if !noReminders {
				reminder := CronJobs.NewDeadlineReminder(
					Services.NewReminderService(core), e.cfg.ReminderSchedule, e.cfg.ReminderWindow, e.log)
				if err := reminder.Start(); err != nil {
					return err
				}
				defer reminder.Stop()
				e.log.WithField("next", reminder.Next()).Info("deadline reminders scheduled")
			}

			tokens := Services.NewTokens(e.cfg.JWTSecret, e.cfg.JWTTTL, nil)
			app := FiberConfig.NewApp(e.log)
			handlers := FiberConfig.NewHandlers(core, tokens, e.cfg.LeaveApprovers)
			handlers.Logs = Controllers.NewLogController(e.cfg.LogFile, nil, e.cfg.Location)
			FiberConfig.SetupRoutes(app, handlers)

			go func() {
				<-ctx.Done()
				e.log.Info("shutting down")
				if err := app.Shutdown(); err != nil {
					e.log.WithError(err).Error("server shutdown failed")
				}
			}()

			e.log.WithField("addr", e.cfg.HTTPAddr).Info("listening")
			return app.Listen(e.cfg.HTTPAddr)
		},
	}

	cmd.Flags().BoolVar(&noReminders, "no-reminders", false, "do not schedule deadline reminders")
	return cmd
}
