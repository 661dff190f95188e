package Services

import (
	"context"
	"fmt"
	"time"

	"Taskflow/Dispatch"
	"Taskflow/Models"
	"Taskflow/Store"

	"gorm.io/gorm"
)

// DefaultReminderWindow is how far ahead a due date triggers a reminder.
const DefaultReminderWindow = 24 * time.Hour

type ReminderService struct {
	*Core
}

func NewReminderService(core *Core) *ReminderService {
	return &ReminderService{Core: core}
}

// SendDueReminders notifies the assignee of every open task due within
// window that has not been reminded yet, and marks those tasks so each is
// reminded once. It returns the reminded tasks.
func (s *ReminderService) SendDueReminders(ctx context.Context, window time.Duration) ([]Models.Task, error) {
	if window <= 0 {
		window = DefaultReminderWindow
	}
	now := s.now().UTC()
	var due []Models.Task
	err := s.mutate(ctx, func(tx *Store.Store, fx *Dispatch.Effects) error {
		var err error
		due, err = Store.Find[Models.Task](tx, func(db *gorm.DB) *gorm.DB {
			return db.Where("due_date IS NOT NULL AND due_date >= ? AND due_date <= ?", now, now.Add(window)).
				Where("reminder_sent_at IS NULL AND assignee_id IS NOT NULL AND team_status <> ?", Models.TaskCompleted).
				Order("due_date, id")
		})
		if err != nil || len(due) == 0 {
			return err
		}
		ids := make([]uint, 0, len(due))
		for i := range due {
			ids = append(ids, due[i].ID)
			due[i].ReminderSentAt = &now
			fx.Notify(deref(due[i].AssigneeID), "Task Due Soon",
				fmt.Sprintf("Task %q (%s) is due on %s.", due[i].Name, due[i].TaskCode,
					due[i].DueDate.In(s.location).Format("2006-01-02 15:04")),
				Models.NotifyTask, idString(due[i].ID))
		}
		err = tx.DB().Model(&Models.Task{}).Where("id IN ?", ids).
			Update("reminder_sent_at", now).Error
		if err != nil {
			return fmt.Errorf("failed to mark reminded tasks: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return due, nil
}
