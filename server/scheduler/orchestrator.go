package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/ericzzh/roomwarden/server/app"
	"github.com/ericzzh/roomwarden/server/metrics"
)

var (
	ErrUnknownJob  = errors.New("unknown job")
	ErrJobDisabled = errors.New("job is disabled")
	ErrJobRunning  = errors.New("job is already running")
	ErrStopping    = errors.New("scheduler is stopping")
)

type JobStats struct {
	Name        string          `json:"name"`
	Schedule    string          `json:"schedule"`
	Enabled     bool            `json:"enabled"`
	Running     bool            `json:"running"`
	LastRun     *time.Time      `json:"last_run,omitempty"`
	LastSuccess *time.Time      `json:"last_success,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	RunCount    int             `json:"run_count"`
	ErrorCount  int             `json:"error_count"`
	NextRun     *time.Time      `json:"next_run,omitempty"`
	LastSummary *app.RunSummary `json:"last_summary,omitempty"`
}

type HealthStatus struct {
	Running bool       `json:"running"`
	Jobs    []JobStats `json:"jobs"`
}

type jobState struct {
	*Scheduler

	mu      sync.Mutex
	running bool
	stats   JobStats
}

func (st *jobState) tryAcquire() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.running {
		return false
	}
	st.running = true
	return true
}

func (st *jobState) release() {
	st.mu.Lock()
	st.running = false
	st.mu.Unlock()
}

func (st *jobState) setNextRun(next *time.Time) {
	st.mu.Lock()
	st.stats.NextRun = next
	st.mu.Unlock()
}

func (st *jobState) record(started, finished time.Time, summary *app.RunSummary, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.stats.LastRun = &started
	st.stats.RunCount++
	st.stats.LastSummary = summary
	if err != nil {
		st.stats.ErrorCount++
		st.stats.LastError = err.Error()
		return
	}
	st.stats.LastSuccess = &finished
}

func (st *jobState) snapshot() JobStats {
	st.mu.Lock()
	defer st.mu.Unlock()
	s := st.stats
	s.Running = st.running
	return s
}

// Orchestrator owns the recurring jobs. Each enabled job runs on its own
// worker goroutine, and a job never overlaps with itself: a trigger that
// arrives while the job runs is skipped.
type Orchestrator struct {
	logger  zerolog.Logger
	timeout time.Duration
	now     func() time.Time

	jobs  map[string]*jobState
	order []string

	lifecycle sync.Mutex
	mu        sync.Mutex
	started   bool
	stopping  bool
	workers   []*Worker
	inflight  sync.WaitGroup
}

// New validates the jobs and their schedules. timeout bounds every run.
func New(logger zerolog.Logger, timeout time.Duration, jobs ...Job) (*Orchestrator, error) {
	if timeout <= 0 {
		timeout = 10 * time.Minute
	}

	o := &Orchestrator{
		logger:  logger.With().Str("component", "scheduler").Logger(),
		timeout: timeout,
		now:     time.Now,
		jobs:    map[string]*jobState{},
	}

	for _, j := range jobs {
		if _, ok := o.jobs[j.Name]; ok {
			return nil, errors.Errorf("job %s registered twice", j.Name)
		}

		s, err := newScheduler(j)
		if err != nil {
			return nil, err
		}

		o.jobs[j.Name] = &jobState{
			Scheduler: s,
			stats: JobStats{
				Name:     j.Name,
				Schedule: j.Schedule,
				Enabled:  j.Enabled,
			},
		}
		o.order = append(o.order, j.Name)
	}

	return o, nil
}

// Start launches a worker per enabled job. Calling it again is a no-op.
func (o *Orchestrator) Start() {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.started {
		return
	}
	o.stopping = false

	for _, name := range o.order {
		st := o.jobs[name]
		if !st.Enabled() {
			o.logger.Info().Str("job", name).Msg("job disabled, not scheduled")
			continue
		}
		w := newWorker(o, st)
		o.workers = append(o.workers, w)
		go w.Run()
	}
	o.started = true

	o.logger.Info().Int("workers", len(o.workers)).Msg("scheduler started")
}

// Stop stops every worker, refuses new triggers and waits for every run in
// progress, including runs started with RunNow. Calling it again is a no-op.
func (o *Orchestrator) Stop() {
	o.lifecycle.Lock()
	defer o.lifecycle.Unlock()

	o.mu.Lock()
	workers := o.workers
	wasStarted := o.started
	o.workers = nil
	o.started = false
	o.stopping = true
	o.mu.Unlock()

	var wg sync.WaitGroup
	for _, w := range workers {
		wg.Add(1)
		go func(w *Worker) {
			defer wg.Done()
			w.Stop()
		}(w)
	}
	wg.Wait()
	o.inflight.Wait()

	if wasStarted {
		o.logger.Info().Msg("scheduler stopped")
	}
}

// enter registers a run unless the orchestrator is stopping.
func (o *Orchestrator) enter() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.stopping {
		return false
	}
	o.inflight.Add(1)
	return true
}

func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.started
}

// RunNow runs a job out of band in the caller's goroutine. It works on an
// orchestrator that was never started, and returns ErrStopping once Stop has
// been called.
func (o *Orchestrator) RunNow(ctx context.Context, name string) (*app.RunSummary, error) {
	st, ok := o.jobs[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownJob, name)
	}
	if !st.Enabled() {
		return nil, errors.Wrap(ErrJobDisabled, name)
	}

	o.logger.Info().Str("job", name).Msg("manual run requested")
	return o.execute(ctx, st)
}

func (o *Orchestrator) HealthStatus() HealthStatus {
	h := HealthStatus{Running: o.IsRunning(), Jobs: make([]JobStats, 0, len(o.order))}
	for _, name := range o.order {
		h.Jobs = append(h.Jobs, o.jobs[name].snapshot())
	}
	return h
}

func (o *Orchestrator) execute(ctx context.Context, st *jobState) (*app.RunSummary, error) {
	name := st.Name()
	if !o.enter() {
		return nil, errors.Wrap(ErrStopping, name)
	}
	defer o.inflight.Done()

	if !st.tryAcquire() {
		metrics.JobRunsTotal.WithLabelValues(name, "skipped").Inc()
		o.logger.Warn().Str("job", name).Msg("job still running, trigger skipped")
		return nil, errors.Wrap(ErrJobRunning, name)
	}
	defer st.release()

	metrics.JobRunning.WithLabelValues(name).Set(1)
	defer metrics.JobRunning.WithLabelValues(name).Set(0)

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	started := o.now()
	summary, err := o.safeRun(ctx, st, started)
	finished := o.now()

	metrics.JobRunDuration.WithLabelValues(name).Observe(finished.Sub(started).Seconds())
	st.record(started, finished, summary, err)
	observeItems(name, summary)

	if err != nil {
		metrics.JobRunsTotal.WithLabelValues(name, "error").Inc()
		o.logger.Error().Err(err).Str("job", name).Dur("took", finished.Sub(started)).Msg("job failed")
		return summary, err
	}

	metrics.JobRunsTotal.WithLabelValues(name, "success").Inc()
	ev := o.logger.Info().Str("job", name).Dur("took", finished.Sub(started))
	if summary != nil {
		ev = ev.Int("processed", summary.Processed).
			Int("changed", summary.Changed).
			Int("skipped", summary.Skipped).
			Int("errored", summary.Errored)
	}
	ev.Msg("job finished")

	return summary, nil
}

func (o *Orchestrator) safeRun(ctx context.Context, st *jobState, now time.Time) (summary *app.RunSummary, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("job %s panicked: %v", st.Name(), r)
		}
	}()
	return st.job.Run(ctx, now)
}

func observeItems(job string, s *app.RunSummary) {
	if s == nil {
		return
	}
	metrics.JobItemsTotal.WithLabelValues(job, "changed").Add(float64(s.Changed))
	metrics.JobItemsTotal.WithLabelValues(job, "unchanged").Add(float64(s.Unchanged()))
	metrics.JobItemsTotal.WithLabelValues(job, "skipped").Add(float64(s.Skipped))
	metrics.JobItemsTotal.WithLabelValues(job, "errored").Add(float64(s.Errored))
}
