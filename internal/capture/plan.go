package capture

import (
	"context"
	"time"

	"github.com/tatbot/camrig/internal/frame"
	"github.com/tatbot/camrig/internal/registry"
)

// Mode selects what a batch asks every surviving device to do.
type Mode int

const (
	// ModeSnapshot captures one frame per device.
	ModeSnapshot Mode = iota
	// ModeRecord captures a bounded-duration video per device. Devices
	// that do not support recording (depth cameras) report
	// device.ErrRecordNotSupported, which the coordinator folds into a
	// per-device failure outcome rather than aborting the batch.
	ModeRecord
)

// BatchConfig is the per-device configuration a RunBatch call applies
// uniformly across every surviving device. Extensions are resolved by
// the caller (cmd/camrig) from the application configuration so the
// coordinator stays free of a dependency on the config package.
type BatchConfig struct {
	Mode     Mode
	Duration time.Duration // only consulted when Mode == ModeRecord
	OutDir   string
	VideoExt string // recording container extension, e.g. "mp4"
}

// Task pairs a leased device with the batch it participates in.
type Task struct {
	Lease *registry.Lease
}

// Plan is the ordered set of devices a batch will operate on, after
// Phase A has dropped initialization failures.
type Plan []Task

// FrameSink is the narrow surface RunBatch needs from a sink router:
// deliver one decoded frame, or hand over a just-recorded video file for
// artifact replay, then flush at batch end. internal/sink.Router
// satisfies this structurally — capture never imports internal/sink.
type FrameSink interface {
	EmitFrame(ctx context.Context, outDir, ts string, f frame.Frame) error
	EmitVideoArtifact(ctx context.Context, outDir, ts, deviceName, path string, width, height, fps int) error
	Flush(ctx context.Context) error
}
