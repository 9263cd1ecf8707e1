// Package capture drives a batch acquisition across a set of devices:
// parallel initialization, barrier-aligned simultaneous grab, and
// non-blocking fan-out of the resulting frames to the sink router.
package capture
