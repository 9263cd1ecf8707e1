package sink

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/frame"
	"github.com/tatbot/camrig/internal/logging"
	"github.com/tatbot/camrig/internal/pathutil"
)

// FilesystemSink is always on: every successfully captured frame lands
// on disk regardless of whether visualization is enabled.
type FilesystemSink struct {
	logger         *logging.Logger
	pngCompression int // application.png_compression, 0-9
}

// NewFilesystemSink builds the durable sink. pngCompression is
// application.png_compression (0-9); it only affects depth-camera color
// and depth plane encoding — IP camera images are written verbatim.
func NewFilesystemSink(pngCompression int) *FilesystemSink {
	return &FilesystemSink{logger: logging.GetLogger("sink-fs"), pngCompression: pngCompression}
}

// EmitFrame writes f to {outDir}/{name}_{ts}.{ext}, choosing the
// extension and bytes by frame variant: raw bytes for an IpImage, RGB8
// PNG for a color plane, 16-bit grayscale PNG for a depth plane. A depth
// capture with both planes produces two files, one per plane, suffixing
// the device name so the filename contract stays a pure function of its
// three inputs.
func (s *FilesystemSink) EmitFrame(ctx context.Context, outDir, ts string, f frame.Frame) error {
	switch v := f.(type) {
	case frame.IPImage:
		return s.writeAtomic(outDir, pathutil.FormatFilename(v.Name, ts, extForImageFormat(v.DeclaredFormat)), v.Bytes)

	case frame.DepthCapture:
		if v.Color != nil {
			data, err := device.EncodeColorPNG(v.Color, s.pngCompression)
			if err != nil {
				return device.NewDecodeError(v.Name, "encode_color_png", err)
			}
			if err := s.writeAtomic(outDir, pathutil.FormatFilename(v.Name+"_color", ts, "png"), data); err != nil {
				return err
			}
		}
		if v.Depth != nil {
			data, err := device.EncodeDepthPNG(v.Depth, s.pngCompression)
			if err != nil {
				return device.NewDecodeError(v.Name, "encode_depth_png", err)
			}
			if err := s.writeAtomic(outDir, pathutil.FormatFilename(v.Name+"_depth", ts, "png"), data); err != nil {
				return err
			}
		}
		return nil

	default:
		return fmt.Errorf("sink: unrecognized frame variant %T", f)
	}
}

// EmitVideoArtifact is a no-op for the filesystem sink: the coordinator
// already wrote the recording directly to its final path.
func (s *FilesystemSink) EmitVideoArtifact(ctx context.Context, outDir, ts, deviceName, path string, width, height, fps int) error {
	return nil
}

// Flush is a no-op; every write already completed synchronously.
func (s *FilesystemSink) Flush(ctx context.Context) error { return nil }

// writeAtomic creates parent directories on demand and writes via a
// temp-file-then-rename so a reader never observes a partial file,
// matching the record path's write-temp-then-rename discipline.
func (s *FilesystemSink) writeAtomic(dir, name string, data []byte) error {
	if err := pathutil.EnsureOutputDirectory(dir); err != nil {
		return device.NewIOError(name, "mkdir", err)
	}

	final := filepath.Join(dir, name)
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return device.NewIOError(name, "create_temp", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return device.NewIOError(name, "write", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return device.NewIOError(name, "close", err)
	}
	if err := os.Rename(tmpPath, final); err != nil {
		os.Remove(tmpPath)
		return device.NewIOError(name, "rename", err)
	}
	return nil
}

func extForImageFormat(format string) string {
	if format == "" {
		return "jpg"
	}
	return format
}
