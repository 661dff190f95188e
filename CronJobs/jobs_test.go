package CronJobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"Taskflow/Models"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReminder struct {
	mu      sync.Mutex
	windows []time.Duration
	err     error
}

func (f *fakeReminder) SendDueReminders(_ context.Context, window time.Duration) ([]Models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, window)
	if f.err != nil {
		return nil, f.err
	}
	return []Models.Task{{Name: "Design"}}, nil
}

func (f *fakeReminder) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.windows)
}

func TestRunNow(t *testing.T) {
	log, hook := test.NewNullLogger()
	fake := &fakeReminder{}
	job := NewDeadlineReminder(fake, "0 0 * * * *", 2*time.Hour, log)

	tasks, err := job.RunNow(context.Background())
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
	assert.Equal(t, []time.Duration{2 * time.Hour}, fake.windows)
	assert.Equal(t, 1, hook.LastEntry().Data["tasks"])

	fake.err = errors.New("database is gone")
	_, err = job.RunNow(context.Background())
	assert.Error(t, err)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestScheduledRun(t *testing.T) {
	log, _ := test.NewNullLogger()
	fake := &fakeReminder{}
	job := NewDeadlineReminder(fake, "* * * * * *", time.Hour, log)
	require.NoError(t, job.Start())
	defer job.Stop()

	assert.Eventually(t, func() bool { return fake.calls() > 0 }, 3*time.Second, 50*time.Millisecond)
}

func TestUpdateSchedule(t *testing.T) {
	log, _ := test.NewNullLogger()
	job := NewDeadlineReminder(&fakeReminder{}, "0 0 1 * * *", time.Hour, log)
	require.NoError(t, job.Start())
	defer job.Stop()
	first := job.Next()
	assert.False(t, first.IsZero())

	assert.Error(t, job.UpdateSchedule("whenever"))
	assert.Equal(t, first, job.Next())

	require.NoError(t, job.UpdateSchedule("0 30 * * * *"))
	assert.Equal(t, 30, job.Next().Minute())
}

func TestInvalidScheduleFailsStart(t *testing.T) {
	log, _ := test.NewNullLogger()
	job := NewDeadlineReminder(&fakeReminder{}, "every hour", time.Hour, log)
	assert.Error(t, job.Start())
}
