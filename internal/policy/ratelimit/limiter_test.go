package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLimiterSpacesSequentialCalls(t *testing.T) {
	t.Parallel()

	interval := 40 * time.Millisecond
	l := New(Config{MinInterval: interval})
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		require.NoError(t, l.Wait(ctx))
	}
	elapsed := time.Since(start)
	require.GreaterOrEqual(t, elapsed, 4*interval-5*time.Millisecond,
		"5 calls should take at least 4 intervals, took %v", elapsed)
}

func TestLimiterSpacesConcurrentCalls(t *testing.T) {
	t.Parallel()

	interval := 30 * time.Millisecond
	l := New(Config{MinInterval: interval})
	ctx := context.Background()

	var (
		mu    sync.Mutex
		times []time.Time
		wg    sync.WaitGroup
	)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			require.NoError(t, l.Wait(ctx))
			mu.Lock()
			times = append(times, time.Now())
			mu.Unlock()
		}()
	}
	wg.Wait()

	first, last := times[0], times[0]
	for _, ts := range times {
		if ts.Before(first) {
			first = ts
		}
		if ts.After(last) {
			last = ts
		}
	}
	require.GreaterOrEqual(t, last.Sub(first), 4*interval-5*time.Millisecond)
}

func TestLimiterZeroIntervalDoesNotBlock(t *testing.T) {
	t.Parallel()

	l := New(Config{})
	start := time.Now()
	for i := 0; i < 10; i++ {
		require.NoError(t, l.Wait(context.Background()))
	}
	require.Less(t, time.Since(start), 50*time.Millisecond)
	require.Zero(t, l.Interval())
}

func TestLimiterHonoursCancellation(t *testing.T) {
	t.Parallel()

	l := New(Config{MinInterval: time.Hour})
	require.NoError(t, l.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	require.Error(t, l.Wait(ctx))
}
