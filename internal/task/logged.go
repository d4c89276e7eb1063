package task

import (
	"context"

	"github.com/conneroisu/assetpipe/internal/logging"
)

// LoggedTask logs the start, finish and duration of the task it wraps.
type LoggedTask struct {
	Task
	logger logging.Logger
}

// WithLogging wraps t so every run is logged.
func WithLogging(logger logging.Logger, t Task) *LoggedTask {
	return &LoggedTask{Task: t, logger: logger}
}

// Run logs around the wrapped task's Run.
func (l *LoggedTask) Run(ctx context.Context) error {
	op := logging.StartOperation(l.logger, l.Name())
	op.Debug(ctx, "Starting")

	err := l.Task.Run(ctx)
	if err != nil {
		op.EndWithError(ctx, err)
		return err
	}

	op.End(ctx)
	return nil
}
