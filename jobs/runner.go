package jobs

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// minInterval is the floor for the runner tick to protect the datastore from
// misconfiguration.
const minInterval = time.Second

// Job is a unit of periodic background work. Run errors are logged by the
// runner; they never stop the timer.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Runner executes the registered jobs on a fixed interval. A tick that
// arrives while a run is still in progress is skipped.
type Runner struct {
	jobs     []Job
	interval time.Duration
	logger   *zap.Logger

	busy atomic.Bool
	stop chan struct{}
	done chan struct{}
}

// NewRunner constructs a job runner. Intervals below one second are clamped.
func NewRunner(interval time.Duration, logger *zap.Logger, jobs ...Job) *Runner {
	if logger == nil {
		panic("logger is required")
	}
	if interval < minInterval {
		interval = minInterval
	}
	return &Runner{
		jobs:     jobs,
		interval: interval,
		logger:   logger,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start launches the timer loop.
func (r *Runner) Start() {
	r.logger.Debug("initializing job runner", zap.Duration("interval", r.interval))

	go func() {
		defer close(r.done)

		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				r.RunOnce(context.Background())
			case <-r.stop:
				return
			}
		}
	}()
}

// Stop halts the timer and waits for the loop to exit. A sweep already in
// flight finishes on its own.
func (r *Runner) Stop() {
	r.logger.Debug("stopping job runner")
	close(r.stop)
	<-r.done
}

// RunOnce executes all jobs sequentially unless a previous run is still busy.
func (r *Runner) RunOnce(ctx context.Context) {
	if !r.busy.CompareAndSwap(false, true) {
		r.logger.Debug("skipping job run: another run is in progress")
		return
	}
	defer r.busy.Store(false)

	for _, job := range r.jobs {
		r.logger.Debug("running job", zap.String("job", job.Name()))
		if err := job.Run(ctx); err != nil {
			r.logger.Error("job failed", zap.String("job", job.Name()), zap.Error(err))
		}
	}
}
