// Package timesync checks whether configured devices' clocks agree with
// the host and with each other, without ever failing the caller — it only
// reports.
package timesync
