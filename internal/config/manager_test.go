package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
application:
  output_directory_base: /tmp/camrig-out
  image_format: jpg
  video_fps: 20
devices:
  - kind: ip
    ip:
      name: cam-a
      ip: 192.0.2.10
      username: admin
      rtsp_path: /stream1
`

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "tatbot.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestManager_LoadAppliesDefaultsAndValidates(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	m := NewManager()
	require.NoError(t, m.Load(path))

	cfg := m.Get()
	require.NotNil(t, cfg)
	assert.Equal(t, "/tmp/camrig-out", cfg.Application.OutputDirectoryBase)
	assert.Equal(t, 20, cfg.Application.VideoFPS)
	// Untouched by the YAML, so should fall back to defaultConfig.
	assert.Equal(t, 95, cfg.Application.JPEGQuality)
	assert.Equal(t, "%Y%m%d_%H%M%S", cfg.Application.FilenameTimestampFormat)
	require.Len(t, cfg.Devices, 1)
	assert.Equal(t, "cam-a", cfg.Devices[0].Name())
}

func TestManager_LoadRejectsMissingFile(t *testing.T) {
	m := NewManager()
	err := m.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestManager_LoadRejectsInvalidConfig(t *testing.T) {
	path := writeTempConfig(t, "application:\n  output_directory_base: /tmp\ndevices: []\n")

	m := NewManager()
	err := m.Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one device")
}

func TestManager_OnUpdateFiresAfterLoad(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	m := NewManager()
	var seen *Config
	m.OnUpdate(func(c *Config) { seen = c })

	require.NoError(t, m.Load(path))
	require.NotNil(t, seen)
	assert.Equal(t, m.Get(), seen)
}

func TestManager_WatchForChangesReloadsOnWrite(t *testing.T) {
	path := writeTempConfig(t, sampleYAML)

	m := NewManager()
	require.NoError(t, m.Load(path))
	require.Equal(t, 20, m.Get().Application.VideoFPS)

	require.NoError(t, m.WatchForChanges())
	defer m.StopWatching()

	changed := `
application:
  output_directory_base: /tmp/camrig-out
  image_format: jpg
  video_fps: 25
devices:
  - kind: ip
    ip:
      name: cam-a
      ip: 192.0.2.10
      username: admin
      rtsp_path: /stream1
`
	require.NoError(t, os.WriteFile(path, []byte(changed), 0o644))

	require.Eventually(t, func() bool {
		cfg := m.Get()
		return cfg != nil && cfg.Application.VideoFPS == 25
	}, time.Second, 10*time.Millisecond)
}
