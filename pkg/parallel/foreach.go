package parallel

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrTaskPanic wraps the value recovered from a panicking task
var ErrTaskPanic = errors.New("task panicked")

// ForEach calls fn for every index in [0, n) on at most workers goroutines.
// Once a call fails or ctx is done, indices not yet started are skipped.
// The error returned is the one with the lowest index, so the outcome does
// not depend on scheduling.
func ForEach(ctx context.Context, n, workers int, fn func(ctx context.Context, i int) error, opts ...PoolOption) error {
	if n <= 0 {
		return nil
	}
	if workers > n {
		workers = n
	}

	pool, err := NewWorkerPool(workers, opts...)
	if err != nil {
		return err
	}

	errs := make([]error, n)
	var failed atomic.Bool

	for i := 0; i < n; i++ {
		idx := i
		submitted := pool.Submit(func() {
			if failed.Load() {
				return
			}
			if err := ctx.Err(); err != nil {
				errs[idx] = err
				failed.Store(true)
				return
			}
			if err := call(ctx, idx, fn); err != nil {
				errs[idx] = err
				failed.Store(true)
			}
		})
		if !submitted {
			errs[idx] = fmt.Errorf("task %d: pool closed", idx)
			break
		}
	}
	pool.Close()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func call(ctx context.Context, i int, fn func(ctx context.Context, i int) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: index %d: %v", ErrTaskPanic, i, r)
		}
	}()
	return fn(ctx, i)
}
