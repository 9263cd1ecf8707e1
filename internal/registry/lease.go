package registry

import (
	"context"
	"sync"

	"github.com/tatbot/camrig/internal/device"
)

// Lease is an exclusive handle onto one registered device. Acquire blocks
// until the device is free or ctx is cancelled, the same contention
// discipline the teacher's config manager applies with a guarding mutex,
// adapted here to a context-aware wait so a cancelled batch never leaves a
// goroutine stuck on a lock forever.
type Lease struct {
	name string
	dev  device.Device
	mu   sync.Mutex
}

func newLease(name string, dev device.Device) *Lease {
	return &Lease{name: name, dev: dev}
}

// Name returns the device's configured name without requiring a lease.
func (l *Lease) Name() string { return l.name }

// Device returns the underlying adapter. Only safe to call between a
// successful Acquire and its matching unlock.
func (l *Lease) Device() device.Device { return l.dev }

// Acquire blocks until the lease is free, then returns an Unlock func the
// caller must invoke exactly once (defer-friendly) to release it. Returns
// ctx.Err() if ctx is cancelled first; the lock, once actually taken, is
// still released automatically so the lease is never left stuck.
func (l *Lease) Acquire(ctx context.Context) (unlock func(), err error) {
	acquired := make(chan struct{})
	go func() {
		l.mu.Lock()
		close(acquired)
	}()

	select {
	case <-acquired:
		return l.mu.Unlock, nil
	case <-ctx.Done():
		go func() {
			<-acquired
			l.mu.Unlock()
		}()
		return nil, ctx.Err()
	}
}
