package timesync

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/logging"
	"github.com/tatbot/camrig/internal/registry"
)

// Verifier checks device clocks against the host and against each other.
// Each device is queried concurrently and every failure is absorbed into
// an Unknown result rather than aborting the pass, the same
// never-let-one-device-sink-the-batch discipline
// internal/capture.Coordinator applies to its own fan-out.
type Verifier struct {
	logger *logging.Logger
}

// NewVerifier builds a Verifier.
func NewVerifier() *Verifier {
	return &Verifier{logger: logging.GetLogger("timesync")}
}

// Verify samples the host clock once, queries every device selected by sel
// for its own clock, and reports each device's status against tolerance
// plus a full pairwise comparison across every device that answered. A
// device that does not support query_time, or that fails to answer, is
// reported Unknown rather than failing the whole pass. The returned error
// is always nil; a selector that resolves to no devices yields an empty
// report and a logged warning.
func (v *Verifier) Verify(ctx context.Context, reg *registry.Registry, sel registry.Selector, tolerance time.Duration) (Report, error) {
	leases := reg.Resolve(sel)
	hostTime := time.Now().UTC()
	report := Report{HostTime: hostTime, Tolerance: tolerance}

	if len(leases) == 0 {
		v.logger.Warn("no devices configured to verify time synchronization")
		return report, nil
	}

	results := make([]DeviceResult, len(leases))
	var wg sync.WaitGroup
	for i, lease := range leases {
		i, lease := i, lease
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = v.queryOne(ctx, lease, hostTime, tolerance)
		}()
	}
	wg.Wait()
	report.Devices = results

	report.Pairs = pairwiseCompare(results, tolerance)
	return report, nil
}

func (v *Verifier) queryOne(ctx context.Context, lease *registry.Lease, hostTime time.Time, tolerance time.Duration) DeviceResult {
	name := lease.Name()

	unlock, err := lease.Acquire(ctx)
	if err != nil {
		return DeviceResult{Name: name, Status: Unknown, Err: err}
	}
	defer unlock()

	camTime, err := lease.Device().QueryTime(ctx)
	if errors.Is(err, device.ErrTimeNotApplicable) {
		return DeviceResult{Name: name, Status: Unknown}
	}
	if err != nil {
		v.logger.WithFields(logging.Fields{"device": name}).WithError(err).Warn("failed to query device time")
		return DeviceResult{Name: name, Status: Unknown, Err: err}
	}

	delta := camTime.Sub(hostTime)
	if delta < 0 {
		delta = -delta
	}
	status := InSync
	if delta > tolerance {
		status = OutOfSync
		v.logger.WithFields(logging.Fields{"device": name, "delta": delta, "tolerance": tolerance}).Warn("device clock out of sync with host")
	}
	return DeviceResult{Name: name, Time: camTime, Delta: delta, Status: status}
}

// pairwiseCompare runs the O(n^2) cross-check over every device that
// returned a usable reading, in registry order, per
// operations/time_sync_op.rs's verify-times command.
func pairwiseCompare(results []DeviceResult, tolerance time.Duration) []PairResult {
	usable := make([]DeviceResult, 0, len(results))
	for _, r := range results {
		if r.Status != Unknown {
			usable = append(usable, r)
		}
	}
	if len(usable) < 2 {
		return nil
	}

	pairs := make([]PairResult, 0, len(usable)*(len(usable)-1)/2)
	for i := 0; i < len(usable); i++ {
		for j := i + 1; j < len(usable); j++ {
			delta := usable[i].Time.Sub(usable[j].Time)
			if delta < 0 {
				delta = -delta
			}
			pairs = append(pairs, PairResult{
				NameA: usable[i].Name, NameB: usable[j].Name,
				Delta: delta, InSync: delta <= tolerance,
			})
		}
	}
	return pairs
}
