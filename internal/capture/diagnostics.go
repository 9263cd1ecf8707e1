package capture

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/tatbot/camrig/internal/registry"
	"github.com/tatbot/camrig/internal/timesync"
)

// DiagnosticResult is one named check's pass/fail outcome, mirroring
// original_source/src/operations/diagnostic_op.rs's summary table.
type DiagnosticResult struct {
	TestName string
	Success  bool
	Details  string
}

// DiagnosticReport is the full diagnostic suite's outcome.
type DiagnosticReport struct {
	Results []DiagnosticResult
}

// AllPassed reports whether every check in the suite succeeded.
func (r DiagnosticReport) AllPassed() bool {
	for _, res := range r.Results {
		if !res.Success {
			return false
		}
	}
	return true
}

// RunDiagnostics runs a time-synchronization check followed by, for every
// registered device, a single snapshot and a short video record, writing
// under {outDirBase}/diagnostics/{name}/{image|video}/. It never returns
// an error for a per-device or per-test failure — those are recorded as
// failed DiagnosticResults — only for something that prevents the suite
// from running at all.
func (c *Coordinator) RunDiagnostics(ctx context.Context, verifier *timesync.Verifier, tolerance time.Duration, outDirBase string, videoDuration time.Duration, videoExt string) (DiagnosticReport, error) {
	var report DiagnosticReport

	timeReport, err := verifier.Verify(ctx, c.registry, registry.All(), tolerance)
	if err != nil {
		report.Results = append(report.Results, DiagnosticResult{
			TestName: "time synchronization (all devices)",
			Success:  false,
			Details:  err.Error(),
		})
	} else {
		report.Results = append(report.Results, DiagnosticResult{
			TestName: "time synchronization (all devices)",
			Success:  timeReport.AllInSync(),
			Details:  fmt.Sprintf("%d device(s) checked, all_in_sync=%t", len(timeReport.Devices), timeReport.AllInSync()),
		})
	}

	leases := c.registry.Resolve(registry.All())
	if len(leases) == 0 {
		report.Results = append(report.Results, DiagnosticResult{
			TestName: "device capture tests",
			Success:  false,
			Details:  "no devices configured",
		})
		return report, nil
	}

	for _, lease := range leases {
		name := lease.Name()
		sel := registry.Names([]string{name})

		imgOutcome, err := c.RunBatch(ctx, sel, BatchConfig{
			Mode:   ModeSnapshot,
			OutDir: filepath.Join(outDirBase, "diagnostics", name, "image"),
		})
		report.Results = append(report.Results, diagnosticResultFor(fmt.Sprintf("image capture (%s)", name), imgOutcome, err))

		vidOutcome, err := c.RunBatch(ctx, sel, BatchConfig{
			Mode:     ModeRecord,
			Duration: videoDuration,
			OutDir:   filepath.Join(outDirBase, "diagnostics", name, "video"),
			VideoExt: videoExt,
		})
		report.Results = append(report.Results, diagnosticResultFor(fmt.Sprintf("video record (%s, %s)", name, videoDuration), vidOutcome, err))
	}

	return report, nil
}

func diagnosticResultFor(testName string, outcome BatchOutcome, runErr error) DiagnosticResult {
	if runErr != nil {
		return DiagnosticResult{TestName: testName, Success: false, Details: runErr.Error()}
	}
	if len(outcome.Outcomes) == 0 {
		return DiagnosticResult{TestName: testName, Success: false, Details: "device dropped during initialization"}
	}
	o := outcome.Outcomes[0]
	if !o.Ok() {
		return DiagnosticResult{TestName: testName, Success: false, Details: o.Err.Error()}
	}
	return DiagnosticResult{TestName: testName, Success: true, Details: "completed"}
}
