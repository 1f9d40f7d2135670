package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sladesk-io/sladesk/internal/config"
	"github.com/sladesk-io/sladesk/internal/models"
)

func TestSweepJobDefaults(t *testing.T) {
	job := SweepJob(nil)
	assert.Equal(t, JobSweep, job.Slug)
	assert.Equal(t, "* * * * *", job.Schedule)
	assert.Equal(t, 300, job.TimeoutSeconds)
	assert.False(t, job.RunOnStartup)

	t.Run("configuration overrides", func(t *testing.T) {
		job := SweepJob(&config.SchedulerConfig{
			SweepSchedule: "*/5 * * * *",
			SweepTimeout:  60,
			RunOnStartup:  true,
		})
		assert.Equal(t, "*/5 * * * *", job.Schedule)
		assert.Equal(t, 60, job.TimeoutSeconds)
		assert.True(t, job.RunOnStartup)
	})
}

func TestRegisterHandler(t *testing.T) {
	s := NewService()

	s.RegisterHandler("x", func(context.Context, *models.ScheduledJob) error { return nil })
	assert.NotNil(t, s.getHandler("x"))

	s.RegisterHandler("x", nil)
	assert.Nil(t, s.getHandler("x"))

	t.Run("empty name ignored", func(t *testing.T) {
		s.RegisterHandler("", func(context.Context, *models.ScheduledJob) error { return nil })
		assert.Nil(t, s.getHandler(""))
	})
}

func TestInvalidJobsSkipped(t *testing.T) {
	s := NewService(WithJobs([]*models.ScheduledJob{
		nil,
		{Slug: "", Schedule: "* * * * *"},
		{Slug: "no-schedule"},
		{Slug: "ok", Handler: "ok", Schedule: "* * * * *"},
	}))
	assert.Nil(t, s.JobSnapshot("no-schedule"))
	assert.NotNil(t, s.JobSnapshot("ok"))
}

func TestRunOnStartupExecutesJob(t *testing.T) {
	var runs atomic.Int32
	s := NewService(WithJobs([]*models.ScheduledJob{
		{
			Name:         "startup",
			Slug:         "startup",
			Handler:      "startup",
			Schedule:     "0 0 1 1 *", // effectively never during the test
			RunOnStartup: true,
		},
	}))
	s.RegisterHandler("startup", func(context.Context, *models.ScheduledJob) error {
		runs.Add(1)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return runs.Load() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("scheduler did not stop")
	}

	t.Run("result recorded on the job", func(t *testing.T) {
		job := s.JobSnapshot("startup")
		require.NotNil(t, job)
		assert.Equal(t, "success", job.LastStatus)
		require.NotNil(t, job.LastRunAt)
	})
}

func TestJobFailureRecorded(t *testing.T) {
	s := NewService(WithJobs([]*models.ScheduledJob{
		{
			Name:         "failing",
			Slug:         "failing",
			Handler:      "failing",
			Schedule:     "0 0 1 1 *",
			RunOnStartup: true,
		},
	}))
	s.RegisterHandler("failing", func(context.Context, *models.ScheduledJob) error {
		return errors.New("boom")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = s.Run(ctx) }()

	require.Eventually(t, func() bool {
		job := s.JobSnapshot("failing")
		return job != nil && job.LastStatus == "failed"
	}, 2*time.Second, 10*time.Millisecond)

	job := s.JobSnapshot("failing")
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "boom")
}
