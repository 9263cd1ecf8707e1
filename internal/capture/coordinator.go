package capture

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/logging"
	"github.com/tatbot/camrig/internal/pathutil"
	"github.com/tatbot/camrig/internal/registry"
	"golang.org/x/sync/errgroup"
)

// Coordinator drives one batch acquisition at a time across a set of
// devices: parallel open, barrier-aligned grab, non-blocking sink
// fan-out, aggregated outcome. Package golang.org/x/sync/errgroup is the
// teacher's own dependency for fan-out-with-error-aggregation (see
// internal/config/manager.go's validation pipeline in the teacher repo);
// it is reused here for Phase A.
type Coordinator struct {
	registry        *registry.Registry
	sink            FrameSink
	pool            *BlockingPool
	timestampFormat string
	logger          *logging.Logger
}

// NewCoordinator builds a Coordinator. sink may be nil (no sink
// configured); timestampFormat is a strftime pattern, e.g. "%Y%m%d_%H%M%S".
func NewCoordinator(reg *registry.Registry, sink FrameSink, pool *BlockingPool, timestampFormat string) *Coordinator {
	return &Coordinator{
		registry:        reg,
		sink:            sink,
		pool:            pool,
		timestampFormat: timestampFormat,
		logger:          logging.GetLogger("coordinator"),
	}
}

// RunBatch resolves sel against the registry, opens every target in
// parallel, aligns acquisition behind a shared barrier, and fans each
// result out to the sink. Devices that fail to open are dropped from the
// plan and logged; devices that fail during acquisition are reported as
// a failed Outcome. RunBatch itself only returns an error if it could not
// even attempt the batch (never as a result of per-device failures).
func (c *Coordinator) RunBatch(ctx context.Context, sel registry.Selector, cfg BatchConfig) (BatchOutcome, error) {
	leases := c.registry.Resolve(sel)
	if len(leases) == 0 {
		return BatchOutcome{Status: AllOK}, nil
	}

	survivors := c.openAll(ctx, leases)
	if len(survivors) == 0 {
		return BatchOutcome{Status: AllOK}, nil
	}

	if err := pathutil.EnsureOutputDirectory(cfg.OutDir); err != nil {
		return BatchOutcome{}, err
	}
	ts := pathutil.FormatTimestamp(time.Now().Local(), c.timestampFormat)

	// Every survivor parks at the barrier while holding its pool slot, so
	// the pool must admit all of them at once; a pool sized below the
	// barrier's party count would leave the overflow permanently blocked
	// in Submit while the admitted workers wait at the barrier for them.
	pool := c.pool
	if pool == nil || pool.Cap() < len(survivors) {
		pool = NewBlockingPool(len(survivors))
	}

	barrier := NewBarrier(len(survivors))
	outcomes := make([]Outcome, len(survivors))
	var wg sync.WaitGroup
	for i, lease := range survivors {
		i, lease := i, lease
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = c.runDevice(ctx, pool, lease, barrier, ts, cfg)
		}()
	}
	wg.Wait()

	if c.sink != nil {
		if err := c.sink.Flush(ctx); err != nil {
			c.logger.WithError(err).Warn("sink flush failed at batch end")
		}
	}

	c.closeAll(survivors)

	return BatchOutcome{Timestamp: ts, Outcomes: outcomes, Status: aggregateStatus(outcomes)}, nil
}

// openAll runs Phase A: parallel lease-acquire + Open, dropping losers.
func (c *Coordinator) openAll(ctx context.Context, leases []*registry.Lease) []*registry.Lease {
	var mu sync.Mutex
	survivors := make([]*registry.Lease, 0, len(leases))

	g, gctx := errgroup.WithContext(ctx)
	for _, lease := range leases {
		lease := lease
		g.Go(func() error {
			unlock, err := lease.Acquire(gctx)
			if err != nil {
				c.logger.WithFields(logging.Fields{"device": lease.Name()}).WithError(err).Warn("could not acquire lease during init, dropping from plan")
				return nil
			}
			defer unlock()

			if err := lease.Device().Open(gctx); err != nil {
				c.logger.WithFields(logging.Fields{"device": lease.Name()}).WithError(err).Warn("device failed to open, dropping from plan")
				return nil
			}

			mu.Lock()
			survivors = append(survivors, lease)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return survivors
}

func (c *Coordinator) closeAll(leases []*registry.Lease) {
	for _, lease := range leases {
		unlock, err := lease.Acquire(context.Background())
		if err != nil {
			continue
		}
		if err := lease.Device().Close(context.Background()); err != nil {
			c.logger.WithFields(logging.Fields{"device": lease.Name()}).WithError(err).Warn("device failed to close cleanly")
		}
		unlock()
	}
}

// runDevice is Phase B + Phase C for one surviving device: acquire, wait
// at the barrier, grab, fan out to the sink.
func (c *Coordinator) runDevice(ctx context.Context, pool *BlockingPool, lease *registry.Lease, barrier *Barrier, ts string, cfg BatchConfig) Outcome {
	name := lease.Name()
	outcome := Outcome{Device: name}

	err := pool.Submit(ctx, func(taskCtx context.Context) error {
		unlock, err := lease.Acquire(taskCtx)
		if err != nil {
			barrier.Abort()
			return err
		}
		defer unlock()

		if _, err := barrier.Await(); err != nil {
			return err
		}

		dev := lease.Device()
		switch cfg.Mode {
		case ModeRecord:
			result, err := c.recordDevice(taskCtx, dev, name, ts, cfg)
			outcome.Record = result
			return err
		default:
			f, err := dev.Snapshot(taskCtx)
			if err != nil {
				return err
			}
			outcome.Frame = f
			if c.sink != nil {
				if err := c.sink.EmitFrame(taskCtx, cfg.OutDir, ts, f); err != nil {
					c.logger.WithFields(logging.Fields{"device": name}).WithError(err).Warn("sink emit failed")
				}
			}
			return nil
		}
	})
	if err != nil {
		outcome.Err = err
	}
	return outcome
}

func (c *Coordinator) recordDevice(ctx context.Context, dev device.Device, name, ts string, cfg BatchConfig) (device.RecordResult, error) {
	finalPath := filepath.Join(cfg.OutDir, pathutil.FormatFilename(name, ts, cfg.VideoExt))
	tmpPath := finalPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return device.RecordResult{}, device.NewIOError(name, "record_create", err)
	}

	result, recErr := dev.Record(ctx, f, cfg.Duration)
	closeErr := f.Close()
	if recErr != nil {
		os.Remove(tmpPath)
		return result, recErr
	}
	if closeErr != nil {
		os.Remove(tmpPath)
		return result, device.NewIOError(name, "record_close", closeErr)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		return result, device.NewIOError(name, "record_rename", err)
	}

	if c.sink != nil {
		if err := c.sink.EmitVideoArtifact(ctx, cfg.OutDir, ts, name, finalPath, result.Width, result.Height, result.FPS); err != nil {
			c.logger.WithFields(logging.Fields{"device": name}).WithError(err).Warn("sink video artifact emit failed")
		}
	}

	return result, nil
}
