// Copyright © 2015 Drake Wilson.  Copying, distribution, and modification of this software is governed by
// the MIT-style license in the file ../LICENSE.md.

/*
Package proc runs a fixed set of worker goroutines to completion as one fork-join step.
*/
package proc

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

var ErrNoTasks = errors.New("proc: task count must be positive")

// PanicError carries the value of a panic recovered from a task.
type PanicError struct {
	Task  int
	Value interface{}
}

func (pe *PanicError) Error() string {
	return fmt.Sprintf("panic in task #%d: %v", pe.Task, pe.Value)
}

// reportExitTo converts a panic in the current goroutine into a *PanicError stored in cell, clobbering any
// existing error.  It must be deferred directly.
func reportExitTo(task int, cell *error) {
	if panicked := recover(); panicked != nil {
		*cell = &PanicError{task, panicked}
	}
}

// ForkJoin runs task(ctx, id) for each id in [0, tasks) concurrently and waits for all of them.  It returns
// the first error any task produced; once one task fails, ctx passed to the others is canceled so they can
// stop early.  Results of the tasks are only safe to consume after ForkJoin returns nil.
func ForkJoin(ctx context.Context, tasks int, task func(ctx context.Context, id int) error) error {
	if tasks < 1 {
		return ErrNoTasks
	}

	g, gctx := errgroup.WithContext(ctx)
	for id := 0; id < tasks; id++ {
		id := id
		g.Go(func() (err error) {
			defer reportExitTo(id, &err)
			return task(gctx, id)
		})
	}

	return g.Wait()
}
