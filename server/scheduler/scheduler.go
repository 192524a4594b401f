package scheduler

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/robfig/cron/v3"

	"github.com/ericzzh/roomwarden/server/app"
)

// RunFunc is the body of a job. It gets the run deadline through ctx.
type RunFunc func(ctx context.Context, now time.Time) (*app.RunSummary, error)

type Job struct {
	Name     string
	Schedule string
	Enabled  bool
	Run      RunFunc
}

// Scheduler knows when a job runs next.
type Scheduler struct {
	job      Job
	schedule cron.Schedule
}

func newScheduler(job Job) (*Scheduler, error) {
	if job.Name == "" {
		return nil, errors.New("job without name")
	}
	if job.Run == nil {
		return nil, errors.Errorf("job %s has no body", job.Name)
	}

	schedule, err := cron.ParseStandard(job.Schedule)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid schedule %q for job %s", job.Schedule, job.Name)
	}

	return &Scheduler{job: job, schedule: schedule}, nil
}

func (s *Scheduler) Name() string {
	return s.job.Name
}

func (s *Scheduler) Enabled() bool {
	return s.job.Enabled
}

func (s *Scheduler) NextScheduleTime(now time.Time) time.Time {
	return s.schedule.Next(now)
}
