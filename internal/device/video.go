package device

import (
	"context"
	"io"
)

// RTSPSource is the narrow interface the record path uses to pull frames
// off an RTSP stream. The core never talks RTSP itself — consistent with
// spec.md §6 ("the system does not re-implement RTSP") — it delegates to
// whatever the platform's video stack provides, the same way the
// teacher's ffmpeg_manager.go wraps an external process behind a narrow
// interface instead of reimplementing a media pipeline in-process.
type RTSPSource interface {
	// Open connects to the given RTSP URL.
	Open(ctx context.Context, url string) error

	// ReadFrame blocks for the next decoded frame. w/h reflect the
	// stream's reported geometry the first time they become known.
	ReadFrame(ctx context.Context) (rgb []byte, w, h int, err error)

	// FPS returns the stream's reported frame rate, or 0 if unknown.
	FPS() float64

	// Close releases the connection. Safe to call multiple times.
	Close() error
}

// VideoWriter is the narrow interface the record path uses to encode
// frames into a container file with a given fourcc.
type VideoWriter interface {
	// WriteFrame encodes one RGB frame.
	WriteFrame(rgb []byte) error

	// Close flushes and finalizes the output file.
	Close() error
}

// RTSPSourceFactory and VideoWriterFactory let tests substitute fakes
// without touching a real RTSP endpoint or ffmpeg binary.
type RTSPSourceFactory func() RTSPSource
type VideoWriterFactory func(w io.Writer, width, height, fps int, fourcc string) (VideoWriter, error)
