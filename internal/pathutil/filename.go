package pathutil

import (
	"fmt"
	"time"
)

// defaultTimestampFormat mirrors the original configuration's default
// filename_timestamp_format.
const defaultTimestampFormat = "%Y%m%d_%H%M%S"

// FormatTimestamp renders now using a strftime-style pattern (e.g.
// "%Y%m%d_%H%M%S"), once per batch so every artifact in that batch shares
// the same token. An empty pattern falls back to the default.
func FormatTimestamp(now time.Time, pattern string) string {
	if pattern == "" {
		pattern = defaultTimestampFormat
	}
	return now.Format(strftimeToGo(pattern))
}

// FormatFilename builds "{name}_{ts}.{ext}", the filename contract every
// sink and the coordinator agree on. It is a pure function: calling it
// twice with the same arguments yields identical strings.
func FormatFilename(name, ts, ext string) string {
	return fmt.Sprintf("%s_%s.%s", name, ts, ext)
}
