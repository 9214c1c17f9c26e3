// Package runsync blocks the caller on work that runs on its own goroutine.
package runsync

import (
	"context"
	"errors"
	"fmt"

	"github.com/sourcegraph/conc"
)

// ErrNilFunc is returned when no function is supplied.
var ErrNilFunc = errors.New("runsync: nil function")

// RunSync runs fn on a separate goroutine and waits for it to finish. A panic
// inside fn is recovered and returned as an error. The completion callbacks
// run on the caller's goroutine, in order, only when fn succeeds.
//
// If ctx is already done, fn is not started and ctx.Err() is returned. fn is
// expected to observe ctx itself; RunSync always waits for it to return.
func RunSync[T any](ctx context.Context, fn func(context.Context) (T, error), onCompletion ...func(T)) (T, error) {
	var zero T
	if fn == nil {
		return zero, ErrNilFunc
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return zero, err
	}

	var (
		out T
		err error
		wg  conc.WaitGroup
	)
	wg.Go(func() {
		out, err = fn(ctx)
	})
	if r := wg.WaitAndRecover(); r != nil {
		return zero, fmt.Errorf("runsync: %w", r.AsError())
	}
	if err != nil {
		return zero, err
	}
	for _, cb := range onCompletion {
		if cb != nil {
			cb(out)
		}
	}
	return out, nil
}

// Run is RunSync for work without a result.
func Run(ctx context.Context, fn func(context.Context) error, onCompletion ...func()) error {
	if fn == nil {
		return ErrNilFunc
	}
	_, err := RunSync(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	}, func(struct{}) {
		for _, cb := range onCompletion {
			if cb != nil {
				cb()
			}
		}
	})
	return err
}
