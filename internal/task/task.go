// Package task defines the unit of build work and the two combinators that
// compose it.
//
// A Task has a name and a Run method that blocks until the work is done and
// returns its failure, if any. Start runs a task on its own goroutine and
// hands back a Result, an explicit future the caller can select on or wait
// for. Series and Parallel are themselves Tasks, so composites nest freely.
//
// Parallel failure policy: every member is started on a context derived from
// the caller's. The first member to fail cancels that context and its error
// is returned, but Parallel always waits for every member to return before
// it completes. Members that watch the context (the file watcher, the dev
// server) therefore shut down; one-shot build steps run to completion, so no
// output is left half written.
package task

import (
	"context"
	"fmt"
	"sync"
)

// Task is a named unit of asynchronous work.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Func adapts a function to the Task interface.
type Func struct {
	name string
	fn   func(ctx context.Context) error
}

// New returns a leaf task that runs fn.
func New(name string, fn func(ctx context.Context) error) *Func {
	return &Func{name: name, fn: fn}
}

// Name returns the task name.
func (f *Func) Name() string { return f.name }

// Run calls the wrapped function.
func (f *Func) Run(ctx context.Context) error { return f.fn(ctx) }

// Result is the completion signal of a started task.
type Result struct {
	name string
	done chan struct{}
	once sync.Once
	err  error
}

// Start runs t on a new goroutine and returns its Result.
func Start(ctx context.Context, t Task) *Result {
	r := &Result{name: t.Name(), done: make(chan struct{})}
	go func() {
		defer func() {
			if p := recover(); p != nil {
				r.complete(fmt.Errorf("task %s panicked: %v", t.Name(), p))
			}
		}()
		r.complete(t.Run(ctx))
	}()
	return r
}

func (r *Result) complete(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Name returns the name of the task that produced the result.
func (r *Result) Name() string { return r.name }

// Done is closed when the task has finished.
func (r *Result) Done() <-chan struct{} { return r.done }

// Wait blocks until the task has finished and returns its error.
func (r *Result) Wait() error {
	<-r.done
	return r.err
}

// Err returns the task error, or nil while the task is still running.
func (r *Result) Err() error {
	select {
	case <-r.done:
		return r.err
	default:
		return nil
	}
}
