package device

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"
	"time"

	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDepthSDK struct {
	devices       []DepthSDKDevice
	enumerateErr  error
	startErr      error
	waitErr       error
	stopErr       error
	frameset      DepthFrameset
	startedColor  DepthStreamRequest
	startedDepth  DepthStreamRequest
	pipelineStart bool
}

func (f *fakeDepthSDK) Enumerate(ctx context.Context) ([]DepthSDKDevice, error) {
	return f.devices, f.enumerateErr
}

func (f *fakeDepthSDK) StartPipeline(ctx context.Context, serial string, color, depth DepthStreamRequest) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.startedColor, f.startedDepth = color, depth
	f.pipelineStart = true
	return nil
}

func (f *fakeDepthSDK) WaitForFrame(ctx context.Context, timeout time.Duration) (DepthFrameset, error) {
	if f.waitErr != nil {
		return DepthFrameset{}, f.waitErr
	}
	return f.frameset, nil
}

func (f *fakeDepthSDK) StopPipeline(ctx context.Context) error {
	f.pipelineStart = false
	return f.stopErr
}

func newDepthDescriptor(name, serial string, colorEnabled, depthEnabled bool) Descriptor {
	return Descriptor{Kind: KindDepth, Depth: &config.DepthCameraConfig{
		Name:   name,
		Serial: serial,
		Color:  config.DepthStreamConfig{Enabled: colorEnabled, Width: 2, Height: 1, FPS: 30},
		Depth:  config.DepthStreamConfig{Enabled: depthEnabled, Width: 2, Height: 1, FPS: 30},
	}}
}

func TestDepthCamera_Open_SelectsFirstDeviceWhenNoSerialConfigured(t *testing.T) {
	sdk := &fakeDepthSDK{devices: []DepthSDKDevice{{Serial: "abc"}}}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "", true, false), sdk)

	err := cam.Open(context.Background())
	require.NoError(t, err)
}

func TestDepthCamera_Open_SerialNotFound(t *testing.T) {
	sdk := &fakeDepthSDK{devices: []DepthSDKDevice{{Serial: "abc"}}}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "does-not-exist", true, false), sdk)

	err := cam.Open(context.Background())
	require.Error(t, err)
	var sdkErr *NativeSDKError
	assert.ErrorAs(t, err, &sdkErr)
}

func TestDepthCamera_Open_NoStreamsEnabledIsConfigError(t *testing.T) {
	sdk := &fakeDepthSDK{devices: []DepthSDKDevice{{Serial: "abc"}}}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "", false, false), sdk)

	err := cam.Open(context.Background())
	require.Error(t, err)
	var cfgErr *ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestDepthCamera_Open_NoDevicesFound(t *testing.T) {
	sdk := &fakeDepthSDK{devices: nil}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "", true, false), sdk)

	err := cam.Open(context.Background())
	require.Error(t, err)
	var sdkErr *NativeSDKError
	assert.ErrorAs(t, err, &sdkErr)
}

func TestDepthCamera_Snapshot_BothStreamsEnabled(t *testing.T) {
	colorBGR := []byte{10, 20, 30, 40, 50, 60} // 2x1 BGR8
	depthZ16 := []byte{0x01, 0x00, 0x02, 0x00} // 2x1 Z16, little-endian

	sdk := &fakeDepthSDK{
		devices:  []DepthSDKDevice{{Serial: "abc"}},
		frameset: DepthFrameset{ColorBGR8: colorBGR, DepthZ16: depthZ16, UnitsPerStep: 0.001},
	}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "abc", true, true), sdk)

	f, err := cam.Snapshot(context.Background())
	require.NoError(t, err)

	capture, ok := f.(frame.DepthCapture)
	require.True(t, ok)
	assert.Equal(t, "depth-a", capture.DeviceName())
	require.NotNil(t, capture.Color)
	require.NotNil(t, capture.Depth)
	assert.Equal(t, []byte{30, 20, 10, 60, 50, 40}, capture.Color.RGB8)
	assert.Equal(t, uint16(1), uint16(capture.Depth.Z16[0])|uint16(capture.Depth.Z16[1])<<8)
	assert.Equal(t, 0.001, capture.Depth.UnitsPerStep)
	assert.False(t, sdk.pipelineStart, "pipeline must be stopped after snapshot returns")
}

func TestDepthCamera_Snapshot_ColorOnly(t *testing.T) {
	colorBGR := []byte{10, 20, 30, 40, 50, 60}
	sdk := &fakeDepthSDK{
		devices:  []DepthSDKDevice{{Serial: "abc"}},
		frameset: DepthFrameset{ColorBGR8: colorBGR},
	}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "abc", true, false), sdk)

	f, err := cam.Snapshot(context.Background())
	require.NoError(t, err)

	capture := f.(frame.DepthCapture)
	assert.NotNil(t, capture.Color)
	assert.Nil(t, capture.Depth)
}

func TestDepthCamera_Snapshot_StopsPipelineEvenOnWaitError(t *testing.T) {
	sdk := &fakeDepthSDK{
		devices: []DepthSDKDevice{{Serial: "abc"}},
		waitErr: errors.New("timed out waiting for frame"),
	}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "abc", true, false), sdk)

	_, err := cam.Snapshot(context.Background())
	require.Error(t, err)
	var sdkErr *NativeSDKError
	assert.ErrorAs(t, err, &sdkErr)
	assert.False(t, sdk.pipelineStart, "pipeline must be stopped even when WaitForFrame fails")
}

func TestDepthCamera_Snapshot_StartPipelineFailure(t *testing.T) {
	sdk := &fakeDepthSDK{startErr: errors.New("device busy")}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "abc", true, false), sdk)

	_, err := cam.Snapshot(context.Background())
	require.Error(t, err)
	var sdkErr *NativeSDKError
	assert.ErrorAs(t, err, &sdkErr)
}

func TestDepthCamera_Record_NotSupported(t *testing.T) {
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "abc", true, false), &fakeDepthSDK{})

	_, err := cam.Record(context.Background(), nil, time.Second)
	assert.ErrorIs(t, err, ErrRecordNotSupported)
}

func TestDepthCamera_QueryTime_NotApplicable(t *testing.T) {
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "abc", true, false), &fakeDepthSDK{})

	_, err := cam.QueryTime(context.Background())
	assert.ErrorIs(t, err, ErrTimeNotApplicable)
}

func TestDepthCamera_Close_NoopWhenPipelineNeverStarted(t *testing.T) {
	sdk := &fakeDepthSDK{}
	cam := NewDepthCamera(newDepthDescriptor("depth-a", "abc", true, false), sdk)

	err := cam.Close(context.Background())
	assert.NoError(t, err)
}

func TestPNGCompressionLevel_MapsConfiguredRangeOntoPNGEnum(t *testing.T) {
	assert.Equal(t, png.NoCompression, pngCompressionLevel(0))
	assert.Equal(t, png.BestSpeed, pngCompressionLevel(1))
	assert.Equal(t, png.BestSpeed, pngCompressionLevel(3))
	assert.Equal(t, png.DefaultCompression, pngCompressionLevel(4))
	assert.Equal(t, png.DefaultCompression, pngCompressionLevel(6))
	assert.Equal(t, png.BestCompression, pngCompressionLevel(7))
	assert.Equal(t, png.BestCompression, pngCompressionLevel(9))
	assert.Equal(t, png.NoCompression, pngCompressionLevel(-1), "a negative level must not panic or index out of range")
}

func TestEncodeColorPNG_RoundTripsAtEveryCompressionLevel(t *testing.T) {
	plane := &frame.ColorPlane{RGB8: []byte{10, 20, 30, 40, 50, 60}, Width: 2, Height: 1}
	for _, level := range []int{0, 2, 5, 9} {
		data, err := EncodeColorPNG(plane, level)
		require.NoError(t, err, "level %d", level)
		assert.NotEmpty(t, data, "level %d", level)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, "level %d", level)
		r, g, b, _ := img.At(1, 0).RGBA()
		assert.Equal(t, []uint32{40, 50, 60}, []uint32{r >> 8, g >> 8, b >> 8}, "level %d", level)
	}
}

func TestEncodeDepthPNG_RoundTripsAtEveryCompressionLevel(t *testing.T) {
	plane := &frame.DepthPlane{Z16: []byte{0x01, 0x00, 0x02, 0x00}, Width: 2, Height: 1, UnitsPerStep: 0.001}
	for _, level := range []int{0, 2, 5, 9} {
		data, err := EncodeDepthPNG(plane, level)
		require.NoError(t, err, "level %d", level)
		assert.NotEmpty(t, data, "level %d", level)
		img, err := png.Decode(bytes.NewReader(data))
		require.NoError(t, err, "level %d", level)
		v, _, _, _ := img.At(1, 0).RGBA()
		assert.Equal(t, uint32(2), v, "level %d", level)
	}
}
