package capture

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlockingPool_SubmitBlocksUntilTaskCompletes(t *testing.T) {
	p := NewBlockingPool(4)
	var ran int32

	err := p.Submit(context.Background(), func(ctx context.Context) error {
		time.Sleep(10 * time.Millisecond)
		atomic.StoreInt32(&ran, 1)
		return nil
	})

	require.NoError(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&ran), "Submit must not return before fn has run")
}

func TestBlockingPool_PropagatesTaskError(t *testing.T) {
	p := NewBlockingPool(1)
	boom := errors.New("boom")

	err := p.Submit(context.Background(), func(ctx context.Context) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestBlockingPool_RecoversPanic(t *testing.T) {
	p := NewBlockingPool(1)

	err := p.Submit(context.Background(), func(ctx context.Context) error {
		panic("kaboom")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panicked")
}

func TestBlockingPool_BoundsConcurrency(t *testing.T) {
	p := NewBlockingPool(2)

	var active, maxActive int32
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		go func() {
			results <- p.Submit(context.Background(), func(ctx context.Context) error {
				n := atomic.AddInt32(&active, 1)
				for {
					cur := atomic.LoadInt32(&maxActive)
					if n <= cur || atomic.CompareAndSwapInt32(&maxActive, cur, n) {
						break
					}
				}
				time.Sleep(20 * time.Millisecond)
				atomic.AddInt32(&active, -1)
				return nil
			})
		}()
	}

	for i := 0; i < 5; i++ {
		require.NoError(t, <-results)
	}
	assert.LessOrEqual(t, atomic.LoadInt32(&maxActive), int32(2), "no more than maxWorkers tasks should run concurrently")
}

func TestBlockingPool_Cap(t *testing.T) {
	assert.Equal(t, 4, NewBlockingPool(4).Cap())
	assert.Equal(t, 8, NewBlockingPool(0).Cap(), "non-positive maxWorkers defaults to 8")
}

func TestBlockingPool_SubmitFailsWhenContextCancelledWhileQueued(t *testing.T) {
	p := NewBlockingPool(1)

	blockCh := make(chan struct{})
	go p.Submit(context.Background(), func(ctx context.Context) error {
		<-blockCh
		return nil
	})
	time.Sleep(10 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Millisecond)
	defer cancel()

	err := p.Submit(ctx, func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(blockCh)
}
