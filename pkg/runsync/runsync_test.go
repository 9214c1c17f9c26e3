package runsync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSyncReturnsResultAndRunsCallbacks(t *testing.T) {
	var seen []int
	out, err := RunSync(context.Background(), func(context.Context) (int, error) {
		time.Sleep(10 * time.Millisecond)
		return 7, nil
	}, func(v int) { seen = append(seen, v) }, nil, func(v int) { seen = append(seen, v*2) })

	require.NoError(t, err)
	assert.Equal(t, 7, out)
	assert.Equal(t, []int{7, 14}, seen)
}

func TestRunSyncPropagatesError(t *testing.T) {
	boom := errors.New("boom")
	called := false
	out, err := RunSync(context.Background(), func(context.Context) (string, error) {
		return "partial", boom
	}, func(string) { called = true })

	require.ErrorIs(t, err, boom)
	assert.Empty(t, out)
	assert.False(t, called, "callbacks must not run on failure")
}

func TestRunSyncRecoversPanic(t *testing.T) {
	_, err := RunSync(context.Background(), func(context.Context) (int, error) {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kaboom")
}

func TestRunSyncCancelledContextSkipsWork(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	started := false
	_, err := RunSync(ctx, func(context.Context) (int, error) {
		started = true
		return 1, nil
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.False(t, started)
}

func TestRunSyncWaitsForCooperativeCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := RunSync(ctx, func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunNilFunc(t *testing.T) {
	require.ErrorIs(t, Run(context.Background(), nil), ErrNilFunc)
	_, err := RunSync[int](context.Background(), nil)
	require.ErrorIs(t, err, ErrNilFunc)
}

func TestRunCompletion(t *testing.T) {
	done := 0
	err := Run(context.Background(), func(context.Context) error { return nil }, func() { done++ })
	require.NoError(t, err)
	assert.Equal(t, 1, done)

	err = Run(context.Background(), func(context.Context) error { return errors.New("x") }, func() { done++ })
	require.Error(t, err)
	assert.Equal(t, 1, done)
}
