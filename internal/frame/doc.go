// Package frame defines the captured-frame data model: the tagged variant
// produced by a device adapter and consumed by the sink router.
package frame
