// Package main implements camrig, the multi-camera synchronized
// acquisition CLI. It loads a device configuration, builds one adapter
// per device, and dispatches to a subcommand that drives a single batch
// (snapshot, record, time-sync check, or a diagnostic suite) through
// internal/capture.Coordinator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
)

const defaultConfigPath = "config/tatbot.yaml"

func main() {
	configPath := flag.String("config", defaultConfigPath, "path to the YAML configuration file")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	env, err := bootstrap(*configPath, *debug)
	if err != nil {
		// Logging may not be configured yet if the failure happened during
		// config load itself; fall back to stderr the same way the
		// teacher's cmd/cli/main.go does before its logger exists.
		fmt.Fprintf(os.Stderr, "camrig: setup failed: %v\n", err)
		os.Exit(1)
	}
	defer env.shutdown()

	command, commandArgs := args[0], args[1:]
	ctx := context.Background()

	var runErr error
	switch command {
	case "capture-image":
		runErr = runCapture(ctx, env, commandArgs, captureKindSnapshot)
	case "capture-video":
		runErr = runCapture(ctx, env, commandArgs, captureKindRecord)
	case "verify-times":
		runErr = runVerifyTimes(ctx, env, commandArgs)
	case "test":
		runErr = runDiagnose(ctx, env, commandArgs)
	case "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "camrig: unknown command %q\n", command)
		printUsage()
		os.Exit(1)
	}

	if runErr != nil {
		env.logger.WithError(runErr).Error("command failed during setup")
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `camrig [--config PATH] [--debug] <command> [flags]

Commands:
  capture-image   capture a single snapshot from one or more devices
  capture-video   record a bounded-duration video from one or more devices
  verify-times    compare configured devices' clocks against the host and each other
  test            run the diagnostic suite (time sync + per-device snapshot/record)

Common per-command flags:
  --cameras CSV|all   devices to target (default: all)
  --output DIR        output directory override (default: configured output base)
  --duration SECONDS  recording duration (capture-video only)
  --rerun             enable the live visualization sink for this run`)
}
