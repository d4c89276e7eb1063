package task

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	pipeerrors "github.com/conneroisu/assetpipe/internal/errors"
)

// ErrEmptyComposite is returned when a composite is declared without members.
var ErrEmptyComposite = pipeerrors.NewConfigError(pipeerrors.ErrCodeEmptyComposite, "composite task has no members")

type composite struct {
	name    string
	members []Task
}

func newComposite(kind, name string, members []Task) (composite, error) {
	if len(members) == 0 {
		return composite{}, fmt.Errorf("%s %q: %w", kind, name, ErrEmptyComposite)
	}
	for i, m := range members {
		if m == nil {
			return composite{}, pipeerrors.NewConfigError(pipeerrors.ErrCodeConfigInvalid,
				fmt.Sprintf("%s %q: member %d is nil", kind, name, i))
		}
	}
	return composite{name: name, members: append([]Task(nil), members...)}, nil
}

// Name returns the composite name.
func (c composite) Name() string { return c.name }

// Members returns a copy of the member list.
func (c composite) Members() []Task { return append([]Task(nil), c.members...) }

// SeriesTask runs its members one after another.
type SeriesTask struct {
	composite
}

// Series returns a task that runs members in order. Each member starts only
// after the previous one completed; the first failure stops the series.
func Series(name string, members ...Task) (*SeriesTask, error) {
	c, err := newComposite("series", name, members)
	if err != nil {
		return nil, err
	}
	return &SeriesTask{composite: c}, nil
}

// Run executes the members in order.
func (s *SeriesTask) Run(ctx context.Context) error {
	for _, m := range s.members {
		if err := Start(ctx, m).Wait(); err != nil {
			return wrapMember(m, err)
		}
	}
	return nil
}

// ParallelTask runs its members concurrently.
type ParallelTask struct {
	composite
}

// Parallel returns a task that starts all members at once and completes
// when every member has returned. See the package documentation for the
// failure policy.
func Parallel(name string, members ...Task) (*ParallelTask, error) {
	c, err := newComposite("parallel", name, members)
	if err != nil {
		return nil, err
	}
	return &ParallelTask{composite: c}, nil
}

// Run starts every member and joins them.
func (p *ParallelTask) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, m := range p.members {
		m := m
		g.Go(func() error {
			if err := Start(gctx, m).Wait(); err != nil {
				return wrapMember(m, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// MemberError records which member of a composite failed.
type MemberError struct {
	Task string
	Err  error
}

func (e *MemberError) Error() string {
	return fmt.Sprintf("'%s' errored: %v", e.Task, e.Err)
}

func (e *MemberError) Unwrap() error { return e.Err }

// wrapMember names the failing leaf once; errors from nested composites
// already carry it.
func wrapMember(m Task, err error) error {
	var me *MemberError
	if errors.As(err, &me) {
		return err
	}
	return &MemberError{Task: m.Name(), Err: err}
}

// FailedTask returns the name of the leaf task behind err, if any.
func FailedTask(err error) string {
	var me *MemberError
	if errors.As(err, &me) {
		return me.Task
	}
	return ""
}
