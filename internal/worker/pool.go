// Package worker provides a small generic worker pool for fanning
// translation work out across dialogue lines.
package worker

import (
	"context"
	"sync"
)

// Result pairs one input with its outcome.
type Result[T any, R any] struct {
	Input T
	Value R
	Err   error
}

// ProcessFunc handles a single input.
type ProcessFunc[T any, R any] func(ctx context.Context, input T) (R, error)

// Pool runs inputs through a fixed number of workers.
type Pool[T any, R any] struct {
	workers int
	process ProcessFunc[T, R]
}

// NewPool creates a pool with the given concurrency (minimum 1).
func NewPool[T any, R any](workers int, fn ProcessFunc[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{workers: workers, process: fn}
}

// Execute runs all inputs through the pool and returns results in input
// order. Cancelling the context stops workers from picking up further
// inputs; already-running tasks finish.
func (p *Pool[T, R]) Execute(ctx context.Context, inputs []T) []Result[T, R] {
	results := make([]Result[T, R], len(inputs))
	indexes := make(chan int, len(inputs))

	var wg sync.WaitGroup
	for w := 0; w < p.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range indexes {
				if ctx.Err() != nil {
					return
				}
				value, err := p.process(ctx, inputs[idx])
				results[idx] = Result[T, R]{Input: inputs[idx], Value: value, Err: err}
			}
		}()
	}

	for i := range inputs {
		indexes <- i
	}
	close(indexes)

	wg.Wait()
	return results
}

// FirstError returns the first failed result's error, if any. Inputs the
// workers never reached (cancelled context) carry nil errors, so callers
// still check their context separately.
func FirstError[T any, R any](results []Result[T, R]) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}
