package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/tatbot/camrig/internal/capture"
	"github.com/tatbot/camrig/internal/common"
	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/logging"
	"github.com/tatbot/camrig/internal/registry"
	"github.com/tatbot/camrig/internal/sink"
)

// environment bundles everything a command needs: the loaded
// configuration, the device registry built from it, a logger, and the
// pieces a command assembles a Coordinator from. One environment is built
// per process invocation and torn down once the command returns.
type environment struct {
	cfg      *config.Config
	registry *registry.Registry
	logger   *logging.Logger

	fs  *sink.FilesystemSink
	viz *sink.VizSink // nil unless --rerun was passed
}

// bootstrap loads configuration, configures logging, and builds the
// device registry. It returns before any command-specific flags (like
// --rerun) are known, so the visualization sink is attached later by
// attachVizSink.
func bootstrap(configPath string, debug bool) (*environment, error) {
	mgr := config.NewManager()
	if err := mgr.Load(configPath); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}
	cfg := mgr.Get()

	logLevel := cfg.Logging
	if debug {
		logLevel.Level = "debug"
	}
	if err := logging.SetupLogging(&logging.LoggingConfig{
		Level:          logLevel.Level,
		Format:         logLevel.Format,
		FileEnabled:    logLevel.FileEnabled,
		FilePath:       logLevel.FilePath,
		MaxFileSize:    logLevel.MaxFileSizeMB * 1024 * 1024,
		BackupCount:    logLevel.BackupCount,
		ConsoleEnabled: logLevel.ConsoleEnabled,
	}); err != nil {
		return nil, fmt.Errorf("configuring logging: %w", err)
	}
	logger := logging.GetLogger("camrig-cli")

	httpClient := &http.Client{Timeout: cfg.Application.HTTPTimeout}
	reg, err := registry.BuildFrom(cfg.Devices, func(dc config.DeviceConfig) (device.Device, error) {
		return buildDevice(dc, httpClient, cfg.Application)
	})
	if err != nil {
		return nil, fmt.Errorf("building device registry: %w", err)
	}

	return &environment{
		cfg:      cfg,
		registry: reg,
		logger:   logger,
		fs:       sink.NewFilesystemSink(cfg.Application.PNGCompression),
	}, nil
}

// buildDevice constructs the adapter matching dc's variant. Depth cameras
// are wired against device.UnavailableDepthSDK until a real native
// binding is compiled in behind that seam; an IP camera is always
// functional since it only needs network access.
func buildDevice(dc config.DeviceConfig, httpClient *http.Client, app config.ApplicationConfig) (device.Device, error) {
	desc := device.DescriptorFromConfig(dc)
	switch dc.Kind {
	case config.DeviceKindIP:
		return device.NewIPCamera(desc, httpClient, app), nil
	case config.DeviceKindDepth:
		return device.NewDepthCamera(desc, device.UnavailableDepthSDK{}), nil
	default:
		return nil, fmt.Errorf("unknown device kind %q for device %q", dc.Kind, dc.Name())
	}
}

// attachVizSink starts the live visualization sink when the command's
// --rerun flag was set. A listen failure is logged and swallowed: the
// command still runs, just without live visualization, consistent with
// the sink being best-effort everywhere else in the system.
func (env *environment) attachVizSink(enabled bool) {
	if !enabled {
		return
	}
	vizCfg := env.cfg.Application.Visualization
	vizCfg.Enabled = true

	viz, err := sink.NewVizSink(vizCfg)
	if err != nil {
		env.logger.WithError(err).Warn("could not start visualization sink, continuing without it")
		return
	}
	env.viz = viz
}

// router returns the FrameSink the coordinator should fan frames out to,
// reflecting whichever visualization sink (if any) was attached.
func (env *environment) router() capture.FrameSink {
	return sink.NewRouter(env.fs, env.viz)
}

// coordinator builds a Coordinator over the full registry, using the
// environment's current sink. The pool is sized to the full registry so
// every device selected into a batch can hold a slot simultaneously —
// RunBatch's barrier requires every survivor to be admitted at once.
func (env *environment) coordinator() *capture.Coordinator {
	return capture.NewCoordinator(env.registry, env.router(), capture.NewBlockingPool(env.registry.Len()), env.cfg.Application.FilenameTimestampFormat)
}

func (env *environment) timeSyncTolerance() time.Duration {
	return time.Duration(env.cfg.Application.TimeSyncToleranceSeconds) * time.Second
}

// shutdown tears down anything the environment started, notably the
// visualization sink's websocket server.
func (env *environment) shutdown() {
	if env.viz == nil {
		return
	}
	if err := common.StopWithTimeout(env.viz, 5*time.Second); err != nil {
		env.logger.WithError(err).Warn("visualization sink did not shut down cleanly")
	}
}
