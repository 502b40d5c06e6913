package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGoroutinePool_RunsTasks(t *testing.T) {
	p := NewGoroutinePool(Config{Workers: 3, QueueSize: 10}, nil)

	var ran atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
			defer wg.Done()
			ran.Add(1)
			return nil
		}))
	}
	wg.Wait()
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, int32(10), ran.Load())
	stats := p.Stats()
	assert.Equal(t, 3, stats.Workers)
	assert.Equal(t, int64(10), stats.Submitted)
	assert.Equal(t, int64(10), stats.Completed)
}

func TestGoroutinePool_Full(t *testing.T) {
	p := NewGoroutinePool(Config{Workers: 1, QueueSize: 1}, nil)
	release := make(chan struct{})
	started := make(chan struct{})

	require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
		close(started)
		<-release
		return nil
	}))
	<-started
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { return nil }))

	err := p.Submit(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolFull)
	assert.Equal(t, int64(1), p.Stats().Rejected)

	close(release)
	require.NoError(t, p.Close(context.Background()))
}

func TestGoroutinePool_PanicAndFailureCounted(t *testing.T) {
	var recovered atomic.Value
	p := NewGoroutinePool(Config{Workers: 1, QueueSize: 2, PanicHandler: func(r any) { recovered.Store(r) }}, nil)

	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { panic("boom") }))
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error { return errors.New("fail") }))
	require.NoError(t, p.Close(context.Background()))

	assert.Equal(t, "boom", recovered.Load())
	assert.Equal(t, int64(2), p.Stats().Failed)
}

func TestGoroutinePool_Close(t *testing.T) {
	p := NewGoroutinePool(Config{Workers: 1, QueueSize: 1}, nil)
	release := make(chan struct{})
	require.NoError(t, p.Submit(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, p.Close(ctx), context.DeadlineExceeded)

	assert.ErrorIs(t, p.Submit(context.Background(), func(context.Context) error { return nil }), ErrPoolClosed)

	close(release)
	assert.NoError(t, p.Close(context.Background()))
}

func TestDefaultConfig(t *testing.T) {
	p := NewGoroutinePool(Config{}, nil)
	defer p.Close(context.Background())
	assert.Equal(t, DefaultConfig().Workers, p.Stats().Workers)
}
