package device

import (
	"context"
	"io"
	"time"

	"github.com/tatbot/camrig/internal/frame"
)

// RecordResult summarizes a completed (or aborted) video recording.
type RecordResult struct {
	FramesWritten int
	Width         int
	Height        int
	FPS           int
	Fourcc        string
	Warning       string // non-empty on a success-with-warning outcome
}

// Device is the capability set every adapter implements: open, snapshot,
// record, query_time, describe (spec.md §4.1). Adapters that cannot
// perform an operation (e.g. depth has no Record) return an error
// satisfying errors.Is against a sentinel from sentinels.go rather than
// panicking.
type Device interface {
	// Open prepares the device for use. A no-op for IP cameras (connections
	// are per-request); enumerates and configures the pipeline for depth
	// cameras.
	Open(ctx context.Context) error

	// Snapshot captures a single frame.
	Snapshot(ctx context.Context) (frame.Frame, error)

	// Record captures a video for the given duration, writing the
	// container/codec stream to w as frames arrive.
	Record(ctx context.Context, w io.Writer, duration time.Duration) (RecordResult, error)

	// QueryTime returns the device's current clock reading. Devices that
	// cannot report time return ErrTimeNotApplicable.
	QueryTime(ctx context.Context) (time.Time, error)

	// Describe returns the device's immutable descriptor.
	Describe() Descriptor

	// Close releases any resources Open acquired. Safe to call even if
	// Open was never called or already failed.
	Close(ctx context.Context) error
}
