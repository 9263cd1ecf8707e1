package capture

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tatbot/camrig/internal/timesync"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinator_RunDiagnostics_AllPassWritesUnderDiagnosticsTree(t *testing.T) {
	dA := &fakeCapDevice{name: "cam-a"}
	reg := buildRegistry(t, dA)
	coord := NewCoordinator(reg, &fakeSink{}, NewBlockingPool(4), "%Y%m%d_%H%M%S")

	outDir := t.TempDir()
	report, err := coord.RunDiagnostics(context.Background(), timesync.NewVerifier(), time.Second, outDir, time.Second, "mp4")
	require.NoError(t, err)
	assert.True(t, report.AllPassed())
	assert.Len(t, report.Results, 3) // time sync + image + video

	_, err = os.Stat(filepath.Join(outDir, "diagnostics", "cam-a", "image"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(outDir, "diagnostics", "cam-a", "video"))
	assert.NoError(t, err)
}

func TestCoordinator_RunDiagnostics_DeviceFailurePropagatesAsFailedResult(t *testing.T) {
	dA := &fakeCapDevice{name: "cam-a", snapErr: errors.New("sensor fault")}
	reg := buildRegistry(t, dA)
	coord := NewCoordinator(reg, &fakeSink{}, NewBlockingPool(4), "%Y%m%d_%H%M%S")

	report, err := coord.RunDiagnostics(context.Background(), timesync.NewVerifier(), time.Second, t.TempDir(), time.Second, "mp4")
	require.NoError(t, err)
	assert.False(t, report.AllPassed())
}

func TestCoordinator_RunDiagnostics_NoDevicesReportsFailure(t *testing.T) {
	reg := buildRegistry(t)
	coord := NewCoordinator(reg, &fakeSink{}, NewBlockingPool(4), "%Y%m%d_%H%M%S")

	report, err := coord.RunDiagnostics(context.Background(), timesync.NewVerifier(), time.Second, t.TempDir(), time.Second, "mp4")
	require.NoError(t, err)
	assert.False(t, report.AllPassed())
}
