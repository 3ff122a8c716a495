package pool

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_SubmitWait(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(2)
	defer p.Close()

	var ran atomic.Int32
	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int32(1), ran.Load())

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Submitted)
	assert.Equal(t, int64(1), stats.Completed)
	assert.Equal(t, int64(0), stats.Failed)
}

func TestWorkerPool_TaskError(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(1)
	defer p.Close()

	boom := errors.New("boom")
	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, int64(1), p.Stats().Failed)
}

func TestWorkerPool_PanicRecovered(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(1)
	defer p.Close()

	err := p.SubmitWait(context.Background(), func(ctx context.Context) error {
		panic("bad block")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "task panicked")
}

func TestWorkerPool_BoundedConcurrency(t *testing.T) {
	t.Parallel()

	const workers = 2
	p := NewWorkerPool(workers)
	defer p.Close()

	var active, peak atomic.Int32
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			_ = p.SubmitWait(context.Background(), func(ctx context.Context) error {
				cur := active.Add(1)
				for {
					old := peak.Load()
					if cur <= old || peak.CompareAndSwap(old, cur) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				active.Add(-1)
				return nil
			})
			done <- struct{}{}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	assert.LessOrEqual(t, peak.Load(), int32(workers))
}

func TestWorkerPool_SubmitAfterClose(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(1)
	p.Close()

	err := p.SubmitWait(context.Background(), func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrPoolClosed)
}

func TestWorkerPool_ContextCanceled(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(1)
	defer p.Close()

	release := make(chan struct{})
	go func() {
		_ = p.SubmitWait(context.Background(), func(ctx context.Context) error {
			<-release
			return nil
		})
	}()
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.SubmitWait(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
	close(release)
}
