package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitFor(t *testing.T, b *Bridge, handle Handle) (interface{}, bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.Poll()
		if value, ok := b.Exchange(handle); ok {
			return value, true
		}
		time.Sleep(time.Millisecond)
	}
	return nil, false
}

func TestBridgeValidation(t *testing.T) {
	_, err := New(0, 4)
	assert.ErrorIs(t, err, ErrNoWorkers)

	_, err = New(2, -1)
	assert.ErrorIs(t, err, ErrNegativeQueueSize)
}

func TestBridgeExchangeExactlyOnce(t *testing.T) {
	b, err := New(2, 8)
	require.NoError(t, err)
	defer b.Shutdown()

	handle := b.Push(func(context.Context) (interface{}, error) {
		return 42, nil
	})

	value, ok := waitFor(t, b, handle)
	require.True(t, ok)
	assert.Equal(t, 42, value)

	// second exchange returns nothing
	_, ok = b.Exchange(handle)
	assert.False(t, ok)
}

func TestBridgeExchangeAs(t *testing.T) {
	b, err := New(1, 4)
	require.NoError(t, err)
	defer b.Shutdown()

	handle := b.Push(func(context.Context) (interface{}, error) {
		return "payload", nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.Poll()
		if value, ok := ExchangeAs[string](b, handle); ok {
			assert.Equal(t, "payload", value)
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("task never completed")
}

func TestBridgeFailedTaskNotExchangeable(t *testing.T) {
	b, err := New(1, 4)
	require.NoError(t, err)
	defer b.Shutdown()

	handle := b.Push(func(context.Context) (interface{}, error) {
		return nil, errors.New("boom")
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.Poll()
		b.mu.Lock()
		_, landed := b.slots[handle]
		b.mu.Unlock()
		if landed {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, ok := b.Exchange(handle)
	assert.False(t, ok)
	assert.Zero(t, b.Pending())
}

func TestBridgeCancelIsAdvisory(t *testing.T) {
	b, err := New(1, 4)
	require.NoError(t, err)
	defer b.Shutdown()

	started := make(chan struct{})
	release := make(chan struct{})
	handle := b.Push(func(ctx context.Context) (interface{}, error) {
		close(started)
		select {
		case <-release:
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	})

	<-started
	// the task completes before the cancellation can interrupt it
	close(release)
	time.Sleep(10 * time.Millisecond)
	b.Cancel(handle)

	// a completed result stays exchangeable despite the cancel
	value, ok := waitFor(t, b, handle)
	if ok {
		assert.Equal(t, "done", value)
	}
}

func TestBridgeCleanupDropsCancelledSlots(t *testing.T) {
	b, err := New(1, 4)
	require.NoError(t, err)
	defer b.Shutdown()

	handle := b.Push(func(context.Context) (interface{}, error) {
		return 1, nil
	})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.Poll()
		b.mu.Lock()
		_, landed := b.slots[handle]
		b.mu.Unlock()
		if landed {
			break
		}
		time.Sleep(time.Millisecond)
	}

	b.Cancel(handle)
	b.Cleanup()

	_, ok := b.Exchange(handle)
	assert.False(t, ok)
}

func TestBridgeCancelStopsRunningTask(t *testing.T) {
	b, err := New(1, 4)
	require.NoError(t, err)
	defer b.Shutdown()

	started := make(chan struct{})
	handle := b.Push(func(ctx context.Context) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})

	<-started
	b.Cancel(handle)

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		b.Poll()
		b.mu.Lock()
		_, landed := b.slots[handle]
		b.mu.Unlock()
		if landed {
			break
		}
		time.Sleep(time.Millisecond)
	}

	_, ok := b.Exchange(handle)
	assert.False(t, ok)
}

func TestBridgeShutdownWithConcurrentPushes(t *testing.T) {
	b, err := New(1, 0)
	require.NoError(t, err)

	// occupy the single worker so later pushes block on the queue
	block := make(chan struct{})
	b.Push(func(ctx context.Context) (interface{}, error) {
		select {
		case <-block:
		case <-ctx.Done():
		}
		return nil, nil
	})

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Push(func(context.Context) (interface{}, error) {
				return nil, nil
			})
		}()
	}

	time.Sleep(5 * time.Millisecond)
	close(block)
	b.Shutdown()

	// every blocked push returns instead of panicking on a closed queue
	wg.Wait()
}

func TestBridgePushAfterShutdown(t *testing.T) {
	b, err := New(1, 4)
	require.NoError(t, err)
	b.Shutdown()

	ran := false
	b.Push(func(context.Context) (interface{}, error) {
		ran = true
		return nil, nil
	})
	assert.False(t, ran)
}
