package watcher

import (
	"context"
	"time"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
	"github.com/conneroisu/assetpipe/internal/logging"
	"github.com/conneroisu/assetpipe/internal/task"
)

// worker runs one binding's task. Triggers are debounced on the trailing
// edge and a trigger that arrives mid-run is held in a one-slot buffer, so
// a burst during a run yields exactly one follow-up run.
type worker struct {
	task     task.Task
	delay    time.Duration
	trigger  chan struct{}
	logger   logging.Logger
	onResult ResultFunc
}

func newWorker(t task.Task, delay time.Duration, logger logging.Logger, onResult ResultFunc) *worker {
	return &worker{
		task:     t,
		delay:    delay,
		trigger:  make(chan struct{}, 1),
		logger:   logger,
		onResult: onResult,
	}
}

func (wk *worker) notify() {
	select {
	case wk.trigger <- struct{}{}:
	default:
	}
}

func (wk *worker) run(ctx context.Context) {
	// Each trigger replaces the pending timer channel, so only the last
	// trigger of a burst fires.
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return

		case <-wk.trigger:
			fire = time.After(wk.delay)

		case <-fire:
			fire = nil
			wk.execute(ctx)
		}
	}
}

// execute runs the task to completion even if ctx is cancelled meanwhile.
func (wk *worker) execute(ctx context.Context) {
	err := wk.task.Run(context.WithoutCancel(ctx))
	wk.onResult(wk.task.Name(), err)

	switch {
	case err == nil:
	case pipeerrors.IsRecoverable(err):
		wk.logger.Warn(ctx, err, "Task failed; waiting for the next change", "task", wk.task.Name())
	default:
		wk.logger.Error(ctx, err, "Task failed", "task", wk.task.Name())
	}
}
