// internal/app/system/workers/runner.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/codeswitch/internal/app/system/tasks"
	"go.uber.org/zap"
)

// Runner executes one job on its interval and whenever it is kicked.
// Kicks that arrive while a run is pending are coalesced.
type Runner struct {
	job    tasks.Job
	log    *zap.Logger
	kickCh chan struct{}
	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

func NewRunner(job tasks.Job, logger *zap.Logger) *Runner {
	return &Runner{
		job:    job,
		log:    logger,
		kickCh: make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

// Start begins the background loop.
func (w *Runner) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("worker started",
		zap.String("job", w.job.Name),
		zap.Duration("interval", w.job.Interval))
}

// Stop signals the loop to exit and waits for it. Safe to call twice.
func (w *Runner) Stop() {
	w.once.Do(func() { close(w.stopCh) })
	w.wg.Wait()
	w.log.Info("worker stopped", zap.String("job", w.job.Name))
}

// Kick requests an extra run without blocking the caller.
func (w *Runner) Kick() {
	select {
	case w.kickCh <- struct{}{}:
	default:
	}
}

func (w *Runner) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.execute()
		case <-w.kickCh:
			w.execute()
		}
	}
}

func (w *Runner) execute() {
	timeout := w.job.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := w.job.Run(ctx); err != nil {
		w.log.Error("job failed", zap.String("job", w.job.Name), zap.Error(err))
	}
}
