// Package device implements the per-device-type capture adapters:
// IPCamera (RTSP/HTTP-CGI) and DepthCamera (native SDK), unified behind
// the Device capability set {Open, Snapshot, Record, QueryTime, Describe}.
package device
