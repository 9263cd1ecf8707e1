package config

import "time"

// defaultConfig returns the baseline configuration applied before the YAML
// file and environment overrides are layered on top, mirroring the
// teacher's getDefaultConfig/setDefaults split (config_manager.go).
func defaultConfig() *Config {
	return &Config{
		Application: ApplicationConfig{
			OutputDirectoryBase:         "/var/lib/camrig/captures",
			ImageFormat:                 "jpg",
			JPEGQuality:                 95,
			PNGCompression:              3,
			VideoFormat:                 "mp4",
			VideoCodec:                  "mjpg",
			VideoFPS:                    15,
			VideoDurationDefaultSeconds: 5,
			FilenameTimestampFormat:     "%Y%m%d_%H%M%S",
			TimeSyncToleranceSeconds:    5,
			CGITimePath:                 "/cgi-bin/global.cgi?action=getCurrentTime",
			HTTPTimeout:                 10 * time.Second,
			Visualization: VizConfig{
				Enabled:         false,
				Address:         ":9871",
				FlushTimeout:    2 * time.Second,
				MemoryLimitMB:   256,
				DropAtLatencyMs: 250,
			},
		},
		Logging: LoggingConfig{
			Level:          "info",
			Format:         "text",
			FileEnabled:    false,
			ConsoleEnabled: true,
			MaxFileSizeMB:  10,
			BackupCount:    5,
		},
		Devices: nil,
	}
}

// setViperDefaults seeds a Viper instance with the same values as
// defaultConfig, in dotted-key form, so that a partially specified YAML
// document still resolves every field (teacher pattern: config_manager.go
// setDefaults).
func setViperDefaults(v viperSetter) {
	d := defaultConfig()
	v.SetDefault("application.output_directory_base", d.Application.OutputDirectoryBase)
	v.SetDefault("application.image_format", d.Application.ImageFormat)
	v.SetDefault("application.jpeg_quality", d.Application.JPEGQuality)
	v.SetDefault("application.png_compression", d.Application.PNGCompression)
	v.SetDefault("application.video_format", d.Application.VideoFormat)
	v.SetDefault("application.video_codec", d.Application.VideoCodec)
	v.SetDefault("application.video_fps", d.Application.VideoFPS)
	v.SetDefault("application.video_duration_default_seconds", d.Application.VideoDurationDefaultSeconds)
	v.SetDefault("application.filename_timestamp_format", d.Application.FilenameTimestampFormat)
	v.SetDefault("application.time_sync_tolerance_seconds", d.Application.TimeSyncToleranceSeconds)
	v.SetDefault("application.cgi_time_path", d.Application.CGITimePath)
	v.SetDefault("application.http_timeout", d.Application.HTTPTimeout)
	v.SetDefault("application.visualization.enabled", d.Application.Visualization.Enabled)
	v.SetDefault("application.visualization.address", d.Application.Visualization.Address)
	v.SetDefault("application.visualization.flush_timeout", d.Application.Visualization.FlushTimeout)
	v.SetDefault("application.visualization.memory_limit_mb", d.Application.Visualization.MemoryLimitMB)
	v.SetDefault("application.visualization.drop_at_latency_ms", d.Application.Visualization.DropAtLatencyMs)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file_enabled", d.Logging.FileEnabled)
	v.SetDefault("logging.console_enabled", d.Logging.ConsoleEnabled)
	v.SetDefault("logging.max_file_size_mb", d.Logging.MaxFileSizeMB)
	v.SetDefault("logging.backup_count", d.Logging.BackupCount)
}

// viperSetter is the subset of *viper.Viper used by setViperDefaults,
// narrowed so defaults.go doesn't need to import viper directly.
type viperSetter interface {
	SetDefault(key string, value interface{})
}

// applyZeroValueDefaults re-applies defaultConfig for any field Viper left
// at its Go zero value because the YAML document omitted the whole
// section (teacher pattern: config_manager.go applyDefaultsAfterUnmarshal,
// which fixes the bug where a present-but-empty YAML section resets
// peers to zero instead of to the default).
func applyZeroValueDefaults(c *Config) {
	d := defaultConfig()
	a := &c.Application
	if a.OutputDirectoryBase == "" {
		a.OutputDirectoryBase = d.Application.OutputDirectoryBase
	}
	if a.ImageFormat == "" {
		a.ImageFormat = d.Application.ImageFormat
	}
	if a.JPEGQuality == 0 {
		a.JPEGQuality = d.Application.JPEGQuality
	}
	if a.PNGCompression == 0 {
		a.PNGCompression = d.Application.PNGCompression
	}
	if a.VideoFormat == "" {
		a.VideoFormat = d.Application.VideoFormat
	}
	if a.VideoCodec == "" {
		a.VideoCodec = d.Application.VideoCodec
	}
	if a.VideoFPS == 0 {
		a.VideoFPS = d.Application.VideoFPS
	}
	if a.VideoDurationDefaultSeconds == 0 {
		a.VideoDurationDefaultSeconds = d.Application.VideoDurationDefaultSeconds
	}
	if a.FilenameTimestampFormat == "" {
		a.FilenameTimestampFormat = d.Application.FilenameTimestampFormat
	}
	if a.TimeSyncToleranceSeconds == 0 {
		a.TimeSyncToleranceSeconds = d.Application.TimeSyncToleranceSeconds
	}
	if a.CGITimePath == "" {
		a.CGITimePath = d.Application.CGITimePath
	}
	if a.HTTPTimeout == 0 {
		a.HTTPTimeout = d.Application.HTTPTimeout
	}
	if a.Visualization.Address == "" {
		a.Visualization.Address = d.Application.Visualization.Address
	}
	if a.Visualization.FlushTimeout == 0 {
		a.Visualization.FlushTimeout = d.Application.Visualization.FlushTimeout
	}
	if a.Visualization.MemoryLimitMB == 0 {
		a.Visualization.MemoryLimitMB = d.Application.Visualization.MemoryLimitMB
	}
	if a.Visualization.DropAtLatencyMs == 0 {
		a.Visualization.DropAtLatencyMs = d.Application.Visualization.DropAtLatencyMs
	}
	l := &c.Logging
	if l.Level == "" {
		l.Level = d.Logging.Level
	}
	if l.Format == "" {
		l.Format = d.Logging.Format
	}
	if l.MaxFileSizeMB == 0 {
		l.MaxFileSizeMB = d.Logging.MaxFileSizeMB
	}
	if l.BackupCount == 0 {
		l.BackupCount = d.Logging.BackupCount
	}
}
