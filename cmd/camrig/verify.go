package main

import (
	"context"
	"flag"

	"github.com/tatbot/camrig/internal/registry"
	"github.com/tatbot/camrig/internal/timesync"
)

// runVerifyTimes implements verify-times: query every configured device's
// clock, compare against the host and against every other device, and log
// the result. It never fails the process for an out-of-sync device — only
// setup failures do.
func runVerifyTimes(ctx context.Context, env *environment, args []string) error {
	fs := flag.NewFlagSet("verify-times", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	verifier := timesync.NewVerifier()
	report, err := verifier.Verify(ctx, env.registry, registry.All(), env.timeSyncTolerance())
	if err != nil {
		return err
	}

	env.logger.Infof("verify-times: host_time=%s tolerance=%s", report.HostTime.Format("2006-01-02T15:04:05Z07:00"), report.Tolerance)
	for _, d := range report.Devices {
		if d.Status == timesync.Unknown {
			env.logger.WithError(d.Err).Warnf("verify-times: device %q could not be checked", d.Name)
			continue
		}
		env.logger.Infof("verify-times: device %q status=%s delta=%s", d.Name, d.Status, d.Delta)
	}
	for _, p := range report.Pairs {
		if !p.InSync {
			env.logger.Warnf("verify-times: %q and %q disagree by %s (tolerance %s)", p.NameA, p.NameB, p.Delta, report.Tolerance)
		}
	}

	if report.AllInSync() {
		env.logger.Info("verify-times: all devices in sync")
	} else {
		env.logger.Warn("verify-times: one or more devices out of sync, see warnings above")
	}
	return nil
}
