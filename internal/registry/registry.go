package registry

import (
	"fmt"

	"github.com/tatbot/camrig/internal/config"
	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/logging"
)

// Builder constructs one device.Device adapter from its configuration. The
// registry is deliberately ignorant of how an adapter is wired together
// (HTTP client, application defaults, depth SDK binding) — that belongs to
// whoever assembles the process (cmd/camrig), not to the registry itself.
type Builder func(config.DeviceConfig) (device.Device, error)

// Registry is the fixed set of device adapters built for one process
// lifetime, per spec.md §4.2: build once from configuration, resolve
// selectors against it many times.
type Registry struct {
	order  []*Lease
	byName map[string]*Lease
	logger *logging.Logger
}

// BuildFrom constructs one adapter per config entry via build, failing
// fast the first time two entries share a name (spec.md §4.2, §8 —
// "fails if any two configs share a name").
func BuildFrom(configs []config.DeviceConfig, build Builder) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Lease, len(configs)), logger: logging.GetLogger("registry")}

	for _, dc := range configs {
		name := dc.Name()
		if _, exists := r.byName[name]; exists {
			return nil, fmt.Errorf("registry: duplicate device name %q", name)
		}

		dev, err := build(dc)
		if err != nil {
			return nil, fmt.Errorf("registry: building device %q: %w", name, err)
		}

		lease := newLease(name, dev)
		r.byName[name] = lease
		r.order = append(r.order, lease)
	}

	return r, nil
}

// Len reports how many devices are registered.
func (r *Registry) Len() int { return len(r.order) }

// Resolve returns the leases matching sel: every device in registry
// insertion order for All(), or the requested names — de-duplicated,
// request order preserved — for Names(), silently skipping (with a
// warning) any name that isn't registered.
func (r *Registry) Resolve(sel Selector) []*Lease {
	if sel.isAll() {
		out := make([]*Lease, len(r.order))
		copy(out, r.order)
		return out
	}

	seen := make(map[string]bool, len(sel.names))
	out := make([]*Lease, 0, len(sel.names))
	for _, name := range sel.names {
		if seen[name] {
			continue
		}
		seen[name] = true

		lease, ok := r.byName[name]
		if !ok {
			r.logger.WithFields(logging.Fields{"device": name}).Warn("unknown device name requested, skipping")
			continue
		}
		out = append(out, lease)
	}
	return out
}
