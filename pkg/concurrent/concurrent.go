// Package concurrent holds small fan-out helpers used where the engine
// evaluates many independent pure calls, such as AI move scoring.
package concurrent

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// ForEach runs action for every item in its own goroutine and waits for all
// of them. The first error cancels the shared context and is returned.
func ForEach[T any](ctx context.Context, items []T, action func(context.Context, T) error) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, item := range items {
		g.Go(func() error {
			return action(ctx, item)
		})
	}
	return g.Wait()
}

// Map applies fn to every item concurrently, preserving input order in the
// result. workers <= 0 means one goroutine per item. The first error cancels
// the remaining work and is returned with a nil slice.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) (R, error)) ([]R, error) {
	out := make([]R, len(items))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, item := range items {
		g.Go(func() error {
			r, err := fn(ctx, item)
			if err != nil {
				return err
			}
			out[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Collect drains every input channel into one output channel, which closes
// after all inputs close.
func Collect[T any](chs ...<-chan T) <-chan T {
	out := make(chan T)
	g := errgroup.Group{}
	for _, ch := range chs {
		g.Go(func() error {
			for v := range ch {
				out <- v
			}
			return nil
		})
	}
	go func() {
		_ = g.Wait()
		close(out)
	}()
	return out
}
