package config

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"github.com/tatbot/camrig/internal/logging"
)

// Manager loads, validates, and (optionally) hot-reloads the capture
// engine's configuration, modeled on the teacher's ConfigManager
// (internal/config/config_manager.go): Viper-backed loading, a
// defaults-then-unmarshal-then-validate pipeline, and an optional
// fsnotify watcher that re-runs the whole pipeline on file change.
type Manager struct {
	mu         sync.RWMutex
	config     *Config
	configPath string
	logger     *logging.Logger
	callbacks  []func(*Config)

	watcher       *fsnotify.Watcher
	watcherStop   chan struct{}
	watcherActive bool
}

// NewManager creates a configuration manager with an unloaded config.
func NewManager() *Manager {
	return &Manager{
		logger: logging.GetLogger("config-manager"),
	}
}

// Load reads, defaults, validates, and stores the configuration at path.
// Environment variables prefixed CAMRIG_ override YAML values, using "_"
// in place of "." (teacher pattern: AutomaticEnv + SetEnvKeyReplacer).
func (m *Manager) Load(path string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("configuration file %q: %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	setViperDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetEnvPrefix("CAMRIG")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("reading configuration file %q: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return fmt.Errorf("unmarshaling configuration: %w", err)
	}
	applyZeroValueDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return err
	}

	old := m.config
	m.config = &cfg
	m.configPath = path

	m.logger.WithFields(logging.Fields{
		"config_path": path,
		"devices":     len(cfg.Devices),
	}).Info("configuration loaded")

	m.notifyLocked(old, &cfg)
	return nil
}

// Get returns the currently loaded configuration, or nil if none was
// loaded yet.
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

// OnUpdate registers a callback invoked after every successful Load or
// hot-reload, including the initial one.
func (m *Manager) OnUpdate(cb func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks = append(m.callbacks, cb)
}

func (m *Manager) notifyLocked(old, next *Config) {
	for _, cb := range m.callbacks {
		cb(next)
	}
	_ = old // reserved for future diffing; kept symmetric with teacher's signature
}

// WatchForChanges starts an fsnotify watcher on the loaded config file and
// reloads on every write, per the teacher's hot_reload.go. Disabled by
// default; the caller opts in explicitly since a capture batch already in
// flight should not be disrupted by an unrelated config edit mid-batch.
func (m *Manager) WatchForChanges() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watcherActive {
		return nil
	}
	if m.configPath == "" {
		return fmt.Errorf("cannot watch for changes before Load")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating file watcher: %w", err)
	}
	if err := watcher.Add(m.configPath); err != nil {
		watcher.Close()
		return fmt.Errorf("watching %q: %w", m.configPath, err)
	}

	m.watcher = watcher
	m.watcherStop = make(chan struct{})
	m.watcherActive = true

	go m.watchLoop(watcher, m.watcherStop)
	return nil
}

func (m *Manager) watchLoop(watcher *fsnotify.Watcher, stop chan struct{}) {
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if err := m.Load(m.configPath); err != nil {
				m.logger.WithError(err).Warn("hot reload failed, keeping previous configuration")
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			m.logger.WithError(err).Warn("configuration watcher error")
		case <-stop:
			return
		}
	}
}

// StopWatching stops the hot-reload watcher if one is active. Idempotent.
func (m *Manager) StopWatching() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.watcherActive {
		return nil
	}
	close(m.watcherStop)
	err := m.watcher.Close()
	m.watcherActive = false
	return err
}
