package main

import (
	"context"
	"flag"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/tatbot/camrig/internal/capture"
	"github.com/tatbot/camrig/internal/registry"
)

type captureKind int

const (
	captureKindSnapshot captureKind = iota
	captureKindRecord
)

// runCapture implements both capture-image and capture-video: parse the
// shared flag set, resolve the device selector, run one batch, and report
// a summary. Per-device failures never turn into a non-zero exit — only a
// setup failure (flag parsing, selector resolution producing an error)
// does, per spec.md §6's exit-code contract.
func runCapture(ctx context.Context, env *environment, args []string, kind captureKind) error {
	name := "capture-image"
	if kind == captureKindRecord {
		name = "capture-video"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	cameras := fs.String("cameras", "all", "comma-separated device names, or \"all\"")
	output := fs.String("output", "", "output directory override (default: configured output base)")
	duration := fs.Int("duration", env.cfg.Application.VideoDurationDefaultSeconds, "recording duration in seconds (capture-video only)")
	rerun := fs.Bool("rerun", false, "enable the live visualization sink for this run")
	if err := fs.Parse(args); err != nil {
		return err
	}

	env.attachVizSink(*rerun)

	sel, err := selectorFromFlag(*cameras)
	if err != nil {
		return err
	}

	outDir := *output
	if outDir == "" {
		outDir = env.cfg.Application.OutputDirectoryBase
	}

	cfg := capture.BatchConfig{OutDir: outDir}
	switch kind {
	case captureKindSnapshot:
		cfg.Mode = capture.ModeSnapshot
	case captureKindRecord:
		cfg.Mode = capture.ModeRecord
		cfg.Duration = time.Duration(*duration) * time.Second
		cfg.VideoExt = env.cfg.Application.VideoFormat
	}

	coord := env.coordinator()
	outcome, err := coord.RunBatch(ctx, sel, cfg)
	if err != nil {
		return err
	}

	logOutcome(env, name, outcome, outDir)
	return nil
}

// selectorFromFlag parses a --cameras flag value into a registry.Selector.
func selectorFromFlag(value string) (registry.Selector, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return registry.All(), nil
	}

	parts := strings.Split(trimmed, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		names = append(names, p)
	}
	if len(names) == 0 {
		return registry.Selector{}, fmt.Errorf("--cameras must name at least one device, or be \"all\"")
	}
	return registry.Names(names), nil
}

func logOutcome(env *environment, command string, outcome capture.BatchOutcome, outDir string) {
	ok, failed := 0, 0
	for _, o := range outcome.Outcomes {
		if o.Ok() {
			ok++
		} else {
			failed++
			env.logger.WithError(o.Err).Warnf("%s: device %q failed", command, o.Device)
		}
	}
	env.logger.Infof("%s: status=%s timestamp=%s ok=%d failed=%d output=%s",
		command, outcome.Status, outcome.Timestamp, ok, failed, filepath.Clean(outDir))
}
