package device

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"time"

	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/frame"
	"github.com/tatbot/camrig/internal/logging"
)

const depthSnapshotTimeout = 5 * time.Second

// DepthSDKDevice is one enumerated native device, identified by serial.
type DepthSDKDevice struct {
	Serial string
}

// DepthStreamRequest describes one stream to enable in a pipeline.
type DepthStreamRequest struct {
	Enabled bool
	Width   int
	Height  int
	FPS     int
}

// DepthFrameset is the composite frame a pipeline wait returns: raw BGR8
// color bytes and/or raw Z16 depth samples, matching whichever streams
// were enabled.
type DepthFrameset struct {
	ColorBGR8    []byte // Width*Height*3 bytes, BGR order
	DepthZ16     []byte // Width*Height*2 bytes, little-endian uint16
	UnitsPerStep float64
}

// DepthSDK is the narrow boundary between camrig's domain logic and the
// native depth-camera SDK. No Go binding for this class of SDK exists
// anywhere in the retrieval pack (grep of every example's go.mod turns up
// nothing depth/point-cloud related) — this interface is the seam a real
// cgo or vendor-supplied binding would sit behind, the same isolation
// discipline the teacher applies to V4L2 ioctls.
type DepthSDK interface {
	Enumerate(ctx context.Context) ([]DepthSDKDevice, error)
	StartPipeline(ctx context.Context, serial string, color, depth DepthStreamRequest) error
	WaitForFrame(ctx context.Context, timeout time.Duration) (DepthFrameset, error)
	StopPipeline(ctx context.Context) error
}

// DepthCamera drives a depth-sensing camera. Every operation runs on the
// caller's goroutine; callers that need isolation from the async
// dispatcher submit through capture.BlockingPool, per spec.md §4.1.
type DepthCamera struct {
	desc   Descriptor
	sdk    DepthSDK
	logger *logging.Logger

	pipelineStarted bool
}

// NewDepthCamera builds a DepthCamera adapter over the given SDK binding.
func NewDepthCamera(desc Descriptor, sdk DepthSDK) *DepthCamera {
	return &DepthCamera{desc: desc, sdk: sdk, logger: logging.GetLogger("device-depth")}
}

func (c *DepthCamera) Describe() Descriptor { return c.desc }

// Open enumerates devices and fails if none is found or, when a serial is
// configured, if no enumerated device carries it. At least one stream must
// be enabled. Open stores no device choice and builds no pipeline: Snapshot
// passes the configured serial (empty when none is set) to StartPipeline,
// so with no serial the first enumerated device is not selected here.
func (c *DepthCamera) Open(ctx context.Context) error {
	name := c.desc.Depth.Name
	devices, err := c.sdk.Enumerate(ctx)
	if err != nil {
		return NewNativeSDKError(name, "enumerate", err)
	}
	if len(devices) == 0 {
		return NewNativeSDKError(name, "enumerate", fmt.Errorf("no depth devices found"))
	}

	if c.desc.Depth.Serial != "" {
		found := false
		for _, d := range devices {
			if d.Serial == c.desc.Depth.Serial {
				found = true
				break
			}
		}
		if !found {
			return NewNativeSDKError(name, "select_device", fmt.Errorf("serial %q not found", c.desc.Depth.Serial))
		}
	}

	if !c.desc.Depth.Color.Enabled && !c.desc.Depth.Depth.Enabled {
		return NewConfigError(name, "open", fmt.Errorf("at least one of color/depth must be enabled"))
	}

	return nil
}

func (c *DepthCamera) Close(ctx context.Context) error {
	if !c.pipelineStarted {
		return nil
	}
	err := c.sdk.StopPipeline(ctx)
	c.pipelineStarted = false
	if err != nil {
		return NewNativeSDKError(c.desc.Depth.Name, "stop_pipeline", err)
	}
	return nil
}

// Snapshot starts the pipeline, waits for one composite frame, and stops
// the pipeline unconditionally before returning — including on the error
// path, per spec.md §4.1.
func (c *DepthCamera) Snapshot(ctx context.Context) (frame.Frame, error) {
	name := c.desc.Depth.Name
	d := c.desc.Depth

	colorReq := streamRequest(d.Color)
	depthReq := streamRequest(d.Depth)

	if err := c.sdk.StartPipeline(ctx, d.Serial, colorReq, depthReq); err != nil {
		return nil, NewNativeSDKError(name, "start_pipeline", err)
	}
	c.pipelineStarted = true
	defer func() {
		if err := c.sdk.StopPipeline(ctx); err != nil {
			c.logger.WithFields(logging.Fields{"device": name}).WithError(err).Warn("failed to stop pipeline after snapshot")
		}
		c.pipelineStarted = false
	}()

	fs, err := c.sdk.WaitForFrame(ctx, depthSnapshotTimeout)
	if err != nil {
		return nil, NewNativeSDKError(name, "wait_for_frame", err)
	}

	result := frame.DepthCapture{Name: name}

	if d.Color.Enabled {
		rgb, err := bgr8ToRGB8(fs.ColorBGR8, d.Color.Width, d.Color.Height)
		if err != nil {
			return nil, NewDecodeError(name, "convert_color", err)
		}
		result.Color = &frame.ColorPlane{RGB8: rgb, Width: d.Color.Width, Height: d.Color.Height}
	}
	if d.Depth.Enabled {
		result.Depth = &frame.DepthPlane{
			Z16:          fs.DepthZ16,
			Width:        d.Depth.Width,
			Height:       d.Depth.Height,
			UnitsPerStep: fs.UnitsPerStep,
		}
	}

	return result, nil
}

// Record is not required in the core for depth cameras (spec.md §4.1).
func (c *DepthCamera) Record(ctx context.Context, _ io.Writer, _ time.Duration) (RecordResult, error) {
	return RecordResult{}, ErrRecordNotSupported
}

// QueryTime is not supported by depth cameras; the verifier treats this
// as a skip, not a failure.
func (c *DepthCamera) QueryTime(ctx context.Context) (time.Time, error) {
	return time.Time{}, ErrTimeNotApplicable
}

func streamRequest(s config.DepthStreamConfig) DepthStreamRequest {
	return DepthStreamRequest{Enabled: s.Enabled, Width: s.Width, Height: s.Height, FPS: s.FPS}
}

func bgr8ToRGB8(bgr []byte, width, height int) ([]byte, error) {
	expected := width * height * 3
	if len(bgr) != expected {
		return nil, fmt.Errorf("color buffer size %d != expected %d", len(bgr), expected)
	}
	rgb := make([]byte, len(bgr))
	for i := 0; i+2 < len(bgr); i += 3 {
		rgb[i], rgb[i+1], rgb[i+2] = bgr[i+2], bgr[i+1], bgr[i]
	}
	return rgb, nil
}

// pngCompressionLevel maps the configured application.png_compression
// knob (0-9, zlib/OpenCV-style, default 3 per config.defaultConfig) onto
// Go's four-level image/png.CompressionLevel enum.
func pngCompressionLevel(compression int) png.CompressionLevel {
	switch {
	case compression <= 0:
		return png.NoCompression
	case compression <= 3:
		return png.BestSpeed
	case compression <= 6:
		return png.DefaultCompression
	default:
		return png.BestCompression
	}
}

// EncodeColorPNG encodes an RGB8 plane as a lossless 8-bit PNG at the
// given configured compression level (application.png_compression).
func EncodeColorPNG(plane *frame.ColorPlane, pngCompression int) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, plane.Width, plane.Height))
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			i := (y*plane.Width + x) * 3
			img.Set(x, y, color.RGBA{R: plane.RGB8[i], G: plane.RGB8[i+1], B: plane.RGB8[i+2], A: 255})
		}
	}
	enc := png.Encoder{CompressionLevel: pngCompressionLevel(pngCompression)}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeDepthPNG encodes a Z16 plane as a 16-bit grayscale PNG at the
// given configured compression level (application.png_compression).
func EncodeDepthPNG(plane *frame.DepthPlane, pngCompression int) ([]byte, error) {
	img := image.NewGray16(image.Rect(0, 0, plane.Width, plane.Height))
	for y := 0; y < plane.Height; y++ {
		for x := 0; x < plane.Width; x++ {
			i := (y*plane.Width + x) * 2
			v := uint16(plane.Z16[i]) | uint16(plane.Z16[i+1])<<8
			img.SetGray16(x, y, color.Gray16{Y: v})
		}
	}
	enc := png.Encoder{CompressionLevel: pngCompressionLevel(pngCompression)}
	var buf bytes.Buffer
	if err := enc.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
