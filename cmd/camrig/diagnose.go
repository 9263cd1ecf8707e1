package main

import (
	"context"
	"flag"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/tatbot/camrig/internal/timesync"
)

// diagnosticVideoDuration matches the original implementation's fixed
// 5-second diagnostic recording length.
const diagnosticVideoDuration = 5 * time.Second

// runDiagnose implements test: a full diagnostic suite (time-sync check
// plus a snapshot and short recording per device), reported alongside host
// resource usage. A failed diagnostic result is reported, not returned as
// an error — only a batch that could not run at all is.
func runDiagnose(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("test", flag.ExitOnError)
	rerun := fs.Bool("rerun", false, "enable the live visualization sink for this run")
	if err := fs.Parse(args); err != nil {
		return err
	}
	env.attachVizSink(*rerun)

	logHostResources(env)

	coord := env.coordinator()
	report, err := coord.RunDiagnostics(ctx, timesync.NewVerifier(), env.timeSyncTolerance(),
		env.cfg.Application.OutputDirectoryBase, diagnosticVideoDuration, env.cfg.Application.VideoFormat)
	if err != nil {
		return err
	}

	for _, r := range report.Results {
		if r.Success {
			env.logger.Infof("test: PASS %s (%s)", r.TestName, r.Details)
		} else {
			env.logger.Warnf("test: FAIL %s (%s)", r.TestName, r.Details)
		}
	}
	if report.AllPassed() {
		env.logger.Info("test: all diagnostics passed")
	} else {
		env.logger.Warn("test: one or more diagnostics failed, see results above")
	}
	return nil
}

// logHostResources reports CPU, memory, and disk usage for the output
// directory's filesystem alongside the per-device diagnostic results, the
// same host-health context the original diagnostic suite's surrounding
// tooling reported out of band.
func logHostResources(env *environment) {
	if pct, err := cpu.Percent(200*time.Millisecond, false); err != nil {
		env.logger.WithError(err).Warn("test: could not read host CPU usage")
	} else if len(pct) > 0 {
		env.logger.Infof("test: host cpu_percent=%.1f", pct[0])
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		env.logger.WithError(err).Warn("test: could not read host memory usage")
	} else {
		env.logger.Infof("test: host mem_used_percent=%.1f mem_available_mb=%d", vm.UsedPercent, vm.Available/1024/1024)
	}

	outDir := env.cfg.Application.OutputDirectoryBase
	if outDir == "" {
		outDir = "."
	}
	if du, err := disk.Usage(outDir); err != nil {
		env.logger.WithError(err).Warn("test: could not read output disk usage")
	} else {
		env.logger.Infof("test: output disk_used_percent=%.1f disk_free_mb=%d", du.UsedPercent, du.Free/1024/1024)
	}
}
