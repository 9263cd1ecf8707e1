package config

import (
	"fmt"
	"net"
	"strings"
)

// ValidationError aggregates every invariant violation found in a single
// Validate pass, modeled on the teacher's config_validation.go pattern of
// collecting all problems instead of failing on the first one so a user
// sees every fix they need to make at once.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) add(format string, args ...interface{}) {
	e.Problems = append(e.Problems, fmt.Sprintf(format, args...))
}

// Validate checks every invariant spec.md §6 requires of a loaded
// configuration: non-empty output base, parseable IP addresses, unique
// device names, at least one device, and internally consistent per-device
// fields.
func Validate(c *Config) error {
	verr := &ValidationError{}

	if strings.TrimSpace(c.Application.OutputDirectoryBase) == "" {
		verr.add("application.output_directory_base must not be empty")
	}
	if c.Application.JPEGQuality < 1 || c.Application.JPEGQuality > 100 {
		verr.add("application.jpeg_quality must be between 1 and 100, got %d", c.Application.JPEGQuality)
	}
	if c.Application.PNGCompression < 0 || c.Application.PNGCompression > 9 {
		verr.add("application.png_compression must be between 0 and 9, got %d", c.Application.PNGCompression)
	}
	if c.Application.VideoFPS <= 0 {
		verr.add("application.video_fps must be positive, got %d", c.Application.VideoFPS)
	}
	if c.Application.TimeSyncToleranceSeconds < 0 {
		verr.add("application.time_sync_tolerance_seconds must not be negative")
	}

	if len(c.Devices) == 0 {
		verr.add("at least one device must be configured")
	}

	seen := make(map[string]bool, len(c.Devices))
	for i, d := range c.Devices {
		name := d.Name()
		if name == "" {
			verr.add("devices[%d]: name must not be empty", i)
			continue
		}
		if seen[name] {
			verr.add("devices[%d]: duplicate device name %q", i, name)
		}
		seen[name] = true

		switch d.Kind {
		case DeviceKindIP:
			validateIPDevice(verr, i, d.IP)
		case DeviceKindDepth:
			validateDepthDevice(verr, i, d.Depth)
		default:
			verr.add("devices[%d] (%s): unknown kind %q", i, name, d.Kind)
		}
	}

	if len(verr.Problems) > 0 {
		return verr
	}
	return nil
}

func validateIPDevice(verr *ValidationError, i int, ip *IPCameraConfig) {
	if ip == nil {
		verr.add("devices[%d]: kind=ip requires an ip block", i)
		return
	}
	if net.ParseIP(ip.IP) == nil {
		verr.add("devices[%d] (%s): ip %q is not a parseable IP address", i, ip.Name, ip.IP)
	}
	if ip.Username == "" {
		verr.add("devices[%d] (%s): username must not be empty", i, ip.Name)
	}
	if ip.RTSPPath == "" {
		verr.add("devices[%d] (%s): rtsp_path must not be empty", i, ip.Name)
	}
}

func validateDepthDevice(verr *ValidationError, i int, depth *DepthCameraConfig) {
	if depth == nil {
		verr.add("devices[%d]: kind=depth requires a depth block", i)
		return
	}
	if !depth.Color.Enabled && !depth.Depth.Enabled {
		verr.add("devices[%d] (%s): at least one of color/depth streams must be enabled", i, depth.Name)
	}
	if depth.Color.Enabled && (depth.Color.Width <= 0 || depth.Color.Height <= 0 || depth.Color.FPS <= 0) {
		verr.add("devices[%d] (%s): color stream width/height/fps must be positive", i, depth.Name)
	}
	if depth.Depth.Enabled && (depth.Depth.Width <= 0 || depth.Depth.Height <= 0 || depth.Depth.FPS <= 0) {
		verr.add("devices[%d] (%s): depth stream width/height/fps must be positive", i, depth.Name)
	}
}
