// Package config provides centralized configuration management for camrig.
//
// It handles YAML configuration loading via Viper, environment variable
// overrides, optional hot reload, and validation of every invariant the
// capture engine depends on before a batch is ever built.
//
// Usage pattern:
//   - Create a Manager with NewManager()
//   - Load configuration with Load(path)
//   - Access configuration with Manager.Get()
//   - Register for updates with Manager.OnUpdate(callback)
package config
