// Package registry builds the fixed set of device adapters for a capture
// batch and resolves a selector (all devices, or a named subset) against
// it in a stable order.
package registry
