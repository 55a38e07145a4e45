package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackgods/clinic-scheduling/internal/logger"
)

func init() {
	_ = logger.Init("error", "json")
}

func TestNewPool(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 4)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	assert.Equal(t, 4, p.Cap())
}

func TestPool_Submit(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 2)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	var executed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			executed.Add(1)
		}))
	}
	wg.Wait()

	assert.Equal(t, int32(10), executed.Load())
}

func TestPool_Submit_CancelledContext(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 2)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = p.Submit(ctx, func(ctx context.Context) {
		t.Error("task should not run with a cancelled context")
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPool_SubmitDetachedOutlivesCaller(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 2)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	done := make(chan error, 1)
	require.NoError(t, p.SubmitDetached(func(ctx context.Context) {
		done <- ctx.Err()
	}))

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("detached task did not run")
	}
}

func TestPool_PanicIsRecovered(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 1)
	require.NoError(t, err)
	defer p.Shutdown(time.Second)

	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		panic("boom")
	}))

	ran := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(ctx context.Context) {
		close(ran)
	}))

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("pool stopped accepting work after a panic")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	p, err := NewPool(context.Background(), "test", 1)
	require.NoError(t, err)
	p.Shutdown(time.Second)

	err = p.SubmitDetached(func(ctx context.Context) {})
	assert.ErrorIs(t, err, ErrPoolClosed)
}
