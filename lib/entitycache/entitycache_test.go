package entitycache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSingleFlight(t *testing.T) {
	cache := New[int, string]()

	var fetches atomic.Int64
	release := make(chan struct{})

	const waiters = 16
	var wg sync.WaitGroup
	results := make([]string, waiters)
	errs := make([]error, waiters)

	for i := 0; i < waiters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = cache.Get(context.Background(), 95, func(ctx context.Context) (string, error) {
				fetches.Add(1)
				<-release
				return "tower of god", nil
			})
		}(i)
	}

	// give every goroutine time to join the in-flight fetch
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	require.Equal(t, int64(1), fetches.Load())
	for i := 0; i < waiters; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "tower of god", results[i])
	}
}

func TestFailureIsNotCached(t *testing.T) {
	cache := New[string, int]()
	boom := errors.New("upstream down")

	calls := 0
	_, err := cache.Get(context.Background(), "k", func(ctx context.Context) (int, error) {
		calls++
		return 0, boom
	})
	require.ErrorIs(t, err, boom)

	// no poisoned entry: the next call fetches again and can succeed
	v, err := cache.Get(context.Background(), "k", func(ctx context.Context) (int, error) {
		calls++
		return 42, nil
	})
	require.NoError(t, err)
	require.Equal(t, 42, v)
	require.Equal(t, 2, calls)
}

func TestCacheStability(t *testing.T) {
	cache := New[string, int]()

	calls := 0
	fetch := func(ctx context.Context) (int, error) {
		calls++
		return 7, nil
	}

	for i := 0; i < 5; i++ {
		v, err := cache.Get(context.Background(), "k", fetch)
		require.NoError(t, err)
		require.Equal(t, 7, v)
	}
	require.Equal(t, 1, calls)
	require.Equal(t, 1, cache.Len())
}

func TestWaiterCancellation(t *testing.T) {
	cache := New[string, int]()

	started := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = cache.Get(context.Background(), "k", func(ctx context.Context) (int, error) {
			close(started)
			<-release
			return 1, nil
		})
	}()
	<-started

	// a second caller joins the in-flight fetch, then gives up
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := cache.Get(ctx, "k", func(ctx context.Context) (int, error) {
			t.Error("should have joined the in-flight fetch, not started a new one")
			return 0, nil
		})
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// the abandoned fetch still completes and lands in the cache
	close(release)
	require.Eventually(t, func() bool {
		_, ok := cache.Peek("k")
		return ok
	}, time.Second, 10*time.Millisecond)
}
