package scheduler

import (
	"context"
	"time"
)

// Worker fires one job on its schedule until stopped.
type Worker struct {
	name    string
	stop    chan bool
	stopped chan bool
	state   *jobState
	o       *Orchestrator
}

func newWorker(o *Orchestrator, state *jobState) *Worker {
	return &Worker{
		name:    state.Name(),
		stop:    make(chan bool, 1),
		stopped: make(chan bool, 1),
		state:   state,
		o:       o,
	}
}

func (worker *Worker) Run() {
	worker.o.logger.Debug().Str("worker", worker.name).Msg("worker started")

	defer func() {
		worker.state.setNextRun(nil)
		worker.o.logger.Debug().Str("worker", worker.name).Msg("worker finished")
		worker.stopped <- true
	}()

	for {
		now := worker.o.now()
		next := worker.state.NextScheduleTime(now)
		worker.state.setNextRun(&next)

		timer := time.NewTimer(next.Sub(now))
		select {
		case <-worker.stop:
			timer.Stop()
			worker.o.logger.Debug().Str("worker", worker.name).Msg("worker received stop signal")
			return
		case <-timer.C:
			worker.DoJob()
		}
	}
}

// Stop returns once the run in progress, if any, has finished.
func (worker *Worker) Stop() {
	worker.o.logger.Debug().Str("worker", worker.name).Msg("worker stopping")
	worker.stop <- true
	<-worker.stopped
}

func (worker *Worker) DoJob() {
	// Errors are recorded on the job stats by execute.
	_, _ = worker.o.execute(context.Background(), worker.state)
}
