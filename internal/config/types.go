package config

import "time"

// DeviceKind tags which variant of DeviceConfig is populated.
type DeviceKind string

const (
	DeviceKindIP    DeviceKind = "ip"
	DeviceKindDepth DeviceKind = "depth"
)

// IPCameraConfig carries the per-device tuning for an IP-camera adapter.
// The password is never stored here; it is resolved at use time from
// an environment variable derived from the device name.
type IPCameraConfig struct {
	Name      string `mapstructure:"name"`
	IP        string `mapstructure:"ip"`
	Username  string `mapstructure:"username"`
	RTSPPath  string `mapstructure:"rtsp_path"`
	RTSPPort  int    `mapstructure:"rtsp_port"`  // default 554
	HTTPPort  int    `mapstructure:"http_port"`  // default 80
	ImageHint string `mapstructure:"image_hint"` // overrides Application.ImageFormat when set
}

// DepthStreamConfig tunes one of the two streams a depth camera may expose.
type DepthStreamConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Width   int  `mapstructure:"width"`
	Height  int  `mapstructure:"height"`
	FPS     int  `mapstructure:"fps"`
}

// DepthCameraConfig carries the per-device tuning for a depth-camera adapter.
type DepthCameraConfig struct {
	Name   string            `mapstructure:"name"`
	Serial string            `mapstructure:"serial"` // optional; first device wins if empty
	Color  DepthStreamConfig `mapstructure:"color"`
	Depth  DepthStreamConfig `mapstructure:"depth"`
}

// DeviceConfig is the tagged-union descriptor of spec.md §3: exactly one
// of IP / Depth is populated, selected by Kind.
type DeviceConfig struct {
	Kind  DeviceKind         `mapstructure:"kind"`
	IP    *IPCameraConfig    `mapstructure:"ip"`
	Depth *DepthCameraConfig `mapstructure:"depth"`
}

// Name returns the configured device name regardless of variant.
func (d DeviceConfig) Name() string {
	switch d.Kind {
	case DeviceKindIP:
		if d.IP != nil {
			return d.IP.Name
		}
	case DeviceKindDepth:
		if d.Depth != nil {
			return d.Depth.Name
		}
	}
	return ""
}

// VizConfig tunes the optional live visualization sink.
type VizConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Address         string        `mapstructure:"address"`           // websocket listen address, e.g. ":9871"
	FlushTimeout    time.Duration `mapstructure:"flush_timeout"`     // default 2s
	MemoryLimitMB   int           `mapstructure:"memory_limit_mb"`   // default 256
	DropAtLatencyMs int           `mapstructure:"drop_at_latency_ms"` // default 250; the loader replaces 0 with 250
}

// LoggingConfig mirrors the teacher's logging knobs.
type LoggingConfig struct {
	Level          string `mapstructure:"level"`
	Format         string `mapstructure:"format"`
	FileEnabled    bool   `mapstructure:"file_enabled"`
	FilePath       string `mapstructure:"file_path"`
	MaxFileSizeMB  int    `mapstructure:"max_file_size_mb"`
	BackupCount    int    `mapstructure:"backup_count"`
	ConsoleEnabled bool   `mapstructure:"console_enabled"`
}

// ApplicationConfig is the global capture tuning shared by every batch.
type ApplicationConfig struct {
	OutputDirectoryBase         string        `mapstructure:"output_directory_base"`
	ImageFormat                 string        `mapstructure:"image_format"` // jpg, jpeg, png, ...
	JPEGQuality                 int           `mapstructure:"jpeg_quality"` // default 95
	PNGCompression              int           `mapstructure:"png_compression"` // default 3
	VideoFormat                 string        `mapstructure:"video_format"` // mp4, avi
	VideoCodec                  string        `mapstructure:"video_codec"`  // mjpg, xvid, mp4v, h264
	VideoFPS                    int           `mapstructure:"video_fps"`
	VideoDurationDefaultSeconds int           `mapstructure:"video_duration_default_seconds"`
	FilenameTimestampFormat     string        `mapstructure:"filename_timestamp_format"` // strftime pattern
	TimeSyncToleranceSeconds    int           `mapstructure:"time_sync_tolerance_seconds"`
	CGITimePath                 string        `mapstructure:"cgi_time_path"` // default "/cgi-bin/global.cgi?action=getCurrentTime"
	HTTPTimeout                 time.Duration `mapstructure:"http_timeout"`  // default 10s
	Visualization               VizConfig     `mapstructure:"visualization"`
}

// Config is the complete service configuration consumed by camrig.
type Config struct {
	Application ApplicationConfig `mapstructure:"application"`
	Logging     LoggingConfig     `mapstructure:"logging"`
	Devices     []DeviceConfig    `mapstructure:"devices"`
}
