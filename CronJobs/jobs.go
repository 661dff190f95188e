package CronJobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Taskflow/Models"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Reminder sends the deadline notices for tasks due within window.
type Reminder interface {
	SendDueReminders(ctx context.Context, window time.Duration) ([]Models.Task, error)
}

// DeadlineReminder runs a Reminder on a cron schedule.
type DeadlineReminder struct {
	cronScheduler *cron.Cron
	reminder      Reminder
	window        time.Duration
	log           logrus.FieldLogger

	mu       sync.Mutex
	schedule string
	jobID    cron.EntryID
}

// NewDeadlineReminder creates a reminder job. Schedules use six fields,
// seconds first: "0 0 * * * *" runs at the top of every hour.
func NewDeadlineReminder(reminder Reminder, schedule string, window time.Duration, log logrus.FieldLogger) *DeadlineReminder {
	return &DeadlineReminder{
		cronScheduler: cron.New(cron.WithSeconds()),
		reminder:      reminder,
		window:        window,
		log:           log,
		schedule:      schedule,
	}
}

// Start schedules the job and starts the scheduler.
func (d *DeadlineReminder) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var err error
	d.jobID, err = d.cronScheduler.AddFunc(d.schedule, d.run)
	if err != nil {
		return fmt.Errorf("error scheduling cron job: %w", err)
	}
	d.cronScheduler.Start()
	d.log.WithField("schedule", d.schedule).Info("deadline reminder scheduler started")
	return nil
}

// Stop terminates the scheduler and waits for a running job to finish.
func (d *DeadlineReminder) Stop() {
	if d.cronScheduler != nil {
		<-d.cronScheduler.Stop().Done()
		d.log.Info("deadline reminder scheduler stopped")
	}
}

// UpdateSchedule replaces the job's schedule. The old one stays in place
// when the new expression does not parse.
func (d *DeadlineReminder) UpdateSchedule(schedule string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	id, err := d.cronScheduler.AddFunc(schedule, d.run)
	if err != nil {
		return fmt.Errorf("error updating schedule: %w", err)
	}
	d.cronScheduler.Remove(d.jobID)
	d.jobID = id
	d.schedule = schedule
	d.log.WithField("schedule", schedule).Info("deadline reminder schedule updated")
	return nil
}

// Next reports when the job runs next. It is zero before Start.
func (d *DeadlineReminder) Next() time.Time {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cronScheduler.Entry(d.jobID).Next
}

// RunNow sends reminders immediately and returns the tasks reminded.
func (d *DeadlineReminder) RunNow(ctx context.Context) ([]Models.Task, error) {
	d.log.Info("running manual deadline reminder")
	return d.remind(ctx)
}

func (d *DeadlineReminder) run() {
	d.remind(context.Background())
}

func (d *DeadlineReminder) remind(ctx context.Context) ([]Models.Task, error) {
	tasks, err := d.reminder.SendDueReminders(ctx, d.window)
	if err != nil {
		d.log.WithError(err).Error("deadline reminder failed")
		return nil, err
	}
	d.log.WithField("tasks", len(tasks)).Info("deadline reminders sent")
	return tasks, nil
}
