package retry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/johnny-stegall/dynamo-go/internal/dynerr"
)

func TestDeliver_ExhaustsAfterKAttempts(t *testing.T) {
	calls := 0
	exec := New(Config{Attempts: 3, Backoff: Static, Sleep: 0, RetryKinds: []dynerr.Kind{dynerr.KindTransient}})

	err := exec.Deliver(context.Background(), func(ctx context.Context) error {
		calls++
		return dynerr.New(dynerr.KindTransient, assertionError("boom"))
	})

	require.Error(t, err)
	require.Equal(t, 3, calls)
	attempts, retries, failures := exec.Stats()
	require.Equal(t, int64(3), attempts)
	require.Equal(t, int64(2), retries)
	require.Equal(t, int64(1), failures)
}

func TestDeliver_FailFastOnFailKind(t *testing.T) {
	calls := 0
	exec := New(Config{
		Attempts:  5,
		Backoff:   Static,
		FailKinds: []dynerr.Kind{dynerr.KindConfig},
	})

	err := exec.Deliver(context.Background(), func(ctx context.Context) error {
		calls++
		return dynerr.New(dynerr.KindConfig, assertionError("bad config"))
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDeliver_UnmatchedKindFailsFast(t *testing.T) {
	calls := 0
	exec := New(Config{
		Attempts:   5,
		Backoff:    Static,
		RetryKinds: []dynerr.Kind{dynerr.KindTransient},
	})

	err := exec.Deliver(context.Background(), func(ctx context.Context) error {
		calls++
		return dynerr.New(dynerr.KindPermanent, assertionError("unmatched"))
	})

	require.Error(t, err)
	require.Equal(t, 1, calls)
}

func TestDeliver_SucceedsWithoutRetry(t *testing.T) {
	calls := 0
	exec := New(Config{Attempts: 3, Backoff: Static})

	err := exec.Deliver(context.Background(), func(ctx context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 1, calls)
}

func TestSleepFor_Static(t *testing.T) {
	d, err := SleepFor(Static, 100*time.Millisecond, 5)
	require.NoError(t, err)
	require.Equal(t, 100*time.Millisecond, d)
}

func TestSleepFor_Linear(t *testing.T) {
	d, err := SleepFor(Linear, 100*time.Millisecond, 3)
	require.NoError(t, err)
	require.Equal(t, 300*time.Millisecond, d)
}

func TestSleepFor_Exponential(t *testing.T) {
	d, err := SleepFor(Exponential, 100*time.Millisecond, 3)
	require.NoError(t, err)
	require.Equal(t, 900*time.Millisecond, d)
}

func TestSleepFor_RandomWithinBounds(t *testing.T) {
	base := 10 * time.Millisecond
	n := 4
	upper := base * time.Duration(1<<uint(n+1))
	for i := 0; i < 50; i++ {
		d, err := SleepFor(Random, base, n)
		require.NoError(t, err)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.Less(t, d, upper)
	}
}

func TestDeliver_ObservesCancellationBetweenAttempts(t *testing.T) {
	exec := New(Config{Attempts: 5, Backoff: Static, Sleep: 50 * time.Millisecond, RetryKinds: []dynerr.Kind{dynerr.KindTransient}})
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := exec.Deliver(ctx, func(ctx context.Context) error {
		calls++
		return dynerr.New(dynerr.KindTransient, assertionError("still failing"))
	})

	require.Error(t, err)
	require.Less(t, calls, 5)
}

type assertionError string

func (e assertionError) Error() string { return string(e) }
