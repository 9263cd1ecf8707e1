package sink

import (
	"context"

	"github.com/tatbot/camrig/internal/frame"
	"github.com/tatbot/camrig/internal/logging"
)

// Router fans a single captured frame out to the always-on filesystem
// sink and, when enabled, the best-effort visualization sink. It
// satisfies capture.FrameSink structurally — internal/capture never
// imports this package.
type Router struct {
	fs     *FilesystemSink
	viz    *VizSink
	logger *logging.Logger
}

// NewRouter builds a Router. viz may be nil when visualization is disabled.
func NewRouter(fs *FilesystemSink, viz *VizSink) *Router {
	return &Router{fs: fs, viz: viz, logger: logging.GetLogger("sink-router")}
}

// EmitFrame writes f to disk, then mirrors it to the visualization feed
// if one is attached. A visualization failure is logged and swallowed:
// durable storage is the contract that must never break.
func (r *Router) EmitFrame(ctx context.Context, outDir, ts string, f frame.Frame) error {
	if err := r.fs.EmitFrame(ctx, outDir, ts, f); err != nil {
		return err
	}
	if r.viz != nil {
		r.viz.logFrame(f)
	}
	return nil
}

// EmitVideoArtifact hands a just-recorded file to the visualization sink
// for frame-by-frame replay. There is nothing for the filesystem sink to
// do here: the coordinator already wrote the recording to its final path.
func (r *Router) EmitVideoArtifact(ctx context.Context, outDir, ts, deviceName, path string, width, height, fps int) error {
	if r.viz == nil {
		return nil
	}
	return r.viz.replayVideoArtifact(ctx, deviceName, path, width, height, fps)
}

// Flush blocks until the visualization sink's outbound buffers drain. The
// filesystem sink has nothing to flush; every write already completed
// synchronously.
func (r *Router) Flush(ctx context.Context) error {
	if r.viz == nil {
		return nil
	}
	return r.viz.FlushBlocking(ctx)
}
