package capture

import (
	"context"
	"fmt"

	"github.com/tatbot/camrig/internal/logging"
)

// BlockingPool bounds concurrent blocking device I/O the way the
// teacher's DefaultBoundedWorkerPool bounds camera-discovery work: a
// buffered channel as a counting semaphore, one goroutine per admitted
// task, panics recovered at the worker boundary. Unlike the teacher's
// fire-and-forget Submit, this pool's Submit blocks the caller until the
// task completes — the coordinator needs each device's outcome
// synchronously before it can aggregate the batch result.
type BlockingPool struct {
	sem    chan struct{}
	logger *logging.Logger
}

// Cap returns the maximum number of tasks this pool admits concurrently.
func (p *BlockingPool) Cap() int {
	return cap(p.sem)
}

// NewBlockingPool creates a pool admitting at most maxWorkers concurrent
// tasks. maxWorkers <= 0 defaults to 8.
func NewBlockingPool(maxWorkers int) *BlockingPool {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}
	return &BlockingPool{
		sem:    make(chan struct{}, maxWorkers),
		logger: logging.GetLogger("capture-pool"),
	}
}

// Submit blocks until a worker slot is free (or ctx is cancelled while
// waiting for one), then runs fn on a dedicated goroutine and blocks the
// caller until fn returns. If ctx is cancelled while fn is already
// running, Submit returns ctx.Err() immediately but the goroutine is
// allowed to finish its current frame before releasing its slot — per the
// cancellation contract, in-flight workers complete what they started.
func (p *BlockingPool) Submit(ctx context.Context, fn func(context.Context) error) error {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				p.logger.WithFields(logging.Fields{"panic": r}).Error("blocking worker panicked")
				done <- fmt.Errorf("capture: worker panicked: %v", r)
			}
			<-p.sem
		}()
		done <- fn(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
