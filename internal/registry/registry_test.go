package registry

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeDevice struct {
	name string
}

func (d *fakeDevice) Open(ctx context.Context) error  { return nil }
func (d *fakeDevice) Close(ctx context.Context) error { return nil }
func (d *fakeDevice) Snapshot(ctx context.Context) (frame.Frame, error) {
	return frame.IPImage{Name: d.name}, nil
}
func (d *fakeDevice) Record(ctx context.Context, w io.Writer, dur time.Duration) (device.RecordResult, error) {
	return device.RecordResult{}, nil
}
func (d *fakeDevice) QueryTime(ctx context.Context) (time.Time, error) { return time.Time{}, nil }
func (d *fakeDevice) Describe() device.Descriptor                      { return device.Descriptor{} }

func fakeBuilder(dc config.DeviceConfig) (device.Device, error) {
	return &fakeDevice{name: dc.Name()}, nil
}

func deviceConfigs(names ...string) []config.DeviceConfig {
	out := make([]config.DeviceConfig, 0, len(names))
	for _, n := range names {
		out = append(out, config.DeviceConfig{Kind: config.DeviceKindIP, IP: &config.IPCameraConfig{Name: n}})
	}
	return out
}

func TestBuildFrom_PreservesInsertionOrder(t *testing.T) {
	reg, err := BuildFrom(deviceConfigs("cam-a", "cam-b", "cam-c"), fakeBuilder)
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	leases := reg.Resolve(All())
	require.Len(t, leases, 3)
	assert.Equal(t, []string{"cam-a", "cam-b", "cam-c"}, leaseNames(leases))
}

func TestBuildFrom_FailsFastOnDuplicateName(t *testing.T) {
	_, err := BuildFrom(deviceConfigs("cam-a", "cam-a"), fakeBuilder)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate device name")
}

func TestBuildFrom_PropagatesBuilderError(t *testing.T) {
	boom := errors.New("boom")
	_, err := BuildFrom(deviceConfigs("cam-a"), func(config.DeviceConfig) (device.Device, error) {
		return nil, boom
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestResolve_NamesPreservesRequestOrderAndDedups(t *testing.T) {
	reg, err := BuildFrom(deviceConfigs("cam-a", "cam-b", "cam-c"), fakeBuilder)
	require.NoError(t, err)

	leases := reg.Resolve(Names([]string{"cam-c", "cam-a", "cam-c"}))
	require.Len(t, leases, 2)
	assert.Equal(t, []string{"cam-c", "cam-a"}, leaseNames(leases))
}

func TestResolve_SkipsUnknownNamesSilently(t *testing.T) {
	reg, err := BuildFrom(deviceConfigs("cam-a"), fakeBuilder)
	require.NoError(t, err)

	leases := reg.Resolve(Names([]string{"cam-a", "does-not-exist"}))
	require.Len(t, leases, 1)
	assert.Equal(t, "cam-a", leases[0].Name())
}

func TestResolve_EmptyRegistryReturnsEmpty(t *testing.T) {
	reg, err := BuildFrom(nil, fakeBuilder)
	require.NoError(t, err)
	assert.Empty(t, reg.Resolve(All()))
}

func TestLease_AcquireIsExclusive(t *testing.T) {
	reg, err := BuildFrom(deviceConfigs("cam-a"), fakeBuilder)
	require.NoError(t, err)
	lease := reg.Resolve(All())[0]

	unlock, err := lease.Acquire(context.Background())
	require.NoError(t, err)

	acquired := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		_, err := lease.Acquire(ctx)
		if err == nil {
			close(acquired)
		}
	}()

	select {
	case <-acquired:
		t.Fatal("second Acquire should not succeed while the first holder has not unlocked")
	case <-time.After(30 * time.Millisecond):
	}

	unlock()
}

func TestLease_AcquireRespectsContextCancellation(t *testing.T) {
	reg, err := BuildFrom(deviceConfigs("cam-a"), fakeBuilder)
	require.NoError(t, err)
	lease := reg.Resolve(All())[0]

	unlock, err := lease.Acquire(context.Background())
	require.NoError(t, err)
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err = lease.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func leaseNames(leases []*Lease) []string {
	out := make([]string, len(leases))
	for i, l := range leases {
		out[i] = l.Name()
	}
	return out
}
