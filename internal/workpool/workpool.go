// Package workpool runs one task per input item on a bounded number of goroutines
// and blocks until every task has finished.
package workpool

import (
	"context"
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"
)

// PanicError is returned when a task panics. The stage that owns the pool
// treats it as a stage-level failure.
type PanicError struct {
	Index int
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %d panicked: %v", e.Index, e.Value)
}

// Map calls fn for every item with at most limit calls in flight and returns
// the results in input order. Per-item failures belong in R; an error returned
// by fn (or a panic) fails the whole call. Remaining tasks still run to completion.
func Map[T, R any](ctx context.Context, limit int, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if limit < 1 {
		limit = 1
	}
	results := make([]R, len(items))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() (err error) {
			defer func() {
				if v := recover(); v != nil {
					err = &PanicError{Index: i, Value: v, Stack: debug.Stack()}
				}
			}()
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
