package apiclient

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result carries either a value or the error that prevented it.
// Callers decide how to surface failures.
type Result[T any] struct {
	Value T
	Err   error
}

// Capture packs a (value, error) pair
func Capture[T any](v T, err error) Result[T] {
	return Result[T]{Value: v, Err: err}
}

// OK reports whether the call succeeded
func (r Result[T]) OK() bool {
	return r.Err == nil
}

// Unwrap returns the pair back
func (r Result[T]) Unwrap() (T, error) {
	return r.Value, r.Err
}

// Batch runs reqs concurrently under the client's concurrency cap.
// Results are in request order and one failure does not cancel the rest.
func (c *Client) Batch(ctx context.Context, reqs []Request) []Result[*Response] {
	results := make([]Result[*Response], len(reqs))
	var g errgroup.Group
	g.SetLimit(c.cfg.MaxConcurrent)
	for i, req := range reqs {
		g.Go(func() error {
			results[i] = Capture(c.Do(ctx, req))
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// All runs typed calls concurrently and collects their results in order
func All[T any](ctx context.Context, calls ...func(context.Context) (T, error)) []Result[T] {
	results := make([]Result[T], len(calls))
	var g errgroup.Group
	for i, fn := range calls {
		g.Go(func() error {
			results[i] = Capture(fn(ctx))
			return nil
		})
	}
	_ = g.Wait()
	return results
}
