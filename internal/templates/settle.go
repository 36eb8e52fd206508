package templates

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Outcome is the result of one settled task.
type Outcome[T any] struct {
	Value T
	Err   error
}

// Settle runs every task and returns one Outcome per task, in input order.
// A failing task never cancels or short-circuits the others. limit bounds how
// many tasks run at once; limit <= 0 means no bound.
func Settle[T any](ctx context.Context, limit int, tasks []func(context.Context) (T, error)) []Outcome[T] {
	outcomes := make([]Outcome[T], len(tasks))

	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, task := range tasks {
		g.Go(func() error {
			v, err := task(ctx)
			outcomes[i] = Outcome[T]{Value: v, Err: err}
			// Failures are recorded, never propagated
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
