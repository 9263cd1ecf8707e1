package device

import (
	"context"
	"errors"
	"time"
)

// ErrDepthSDKUnavailable is returned by every UnavailableDepthSDK method.
// It signals that the process was built or configured without a real
// native depth-camera binding wired behind the DepthSDK seam.
var ErrDepthSDKUnavailable = errors.New("device: no depth camera SDK binding is wired into this build")

// UnavailableDepthSDK is the default DepthSDK: it fails every call rather
// than silently pretending hardware exists. cmd/camrig wires this in when
// no platform-specific binding was compiled in, so a depth device entry
// in configuration degrades to a clean per-device Open failure — dropped
// from the batch plan with a logged warning, per the coordinator's
// one-bad-device-never-aborts-the-group discipline — instead of a panic
// or a nil-pointer fault somewhere downstream.
type UnavailableDepthSDK struct{}

func (UnavailableDepthSDK) Enumerate(ctx context.Context) ([]DepthSDKDevice, error) {
	return nil, ErrDepthSDKUnavailable
}

func (UnavailableDepthSDK) StartPipeline(ctx context.Context, serial string, color, depth DepthStreamRequest) error {
	return ErrDepthSDKUnavailable
}

func (UnavailableDepthSDK) WaitForFrame(ctx context.Context, timeout time.Duration) (DepthFrameset, error) {
	return DepthFrameset{}, ErrDepthSDKUnavailable
}

func (UnavailableDepthSDK) StopPipeline(ctx context.Context) error {
	return ErrDepthSDKUnavailable
}
