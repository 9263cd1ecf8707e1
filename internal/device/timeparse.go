package device

import (
	"fmt"
	"strings"
	"time"
)

// timeFormats are tried in order against each parse strategy, per
// spec.md §4.1.
var timeFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05-0700",
	"2006-01-02 15:04:05-0700",
}

// ParseDeviceTime tolerantly parses a CGI time-endpoint response body:
// first the whole cleaned body, then each whitespace-separated token,
// then the substring following the first '=' with surrounding quotes and
// semicolons trimmed. Returns an error if no strategy and no configured
// format succeeds.
func ParseDeviceTime(body string) (time.Time, error) {
	clean := strings.Trim(strings.TrimSpace(body), `"`)

	if t, ok := tryFormats(clean); ok {
		return t, nil
	}

	for _, token := range strings.Fields(clean) {
		if t, ok := tryFormats(token); ok {
			return t, nil
		}
	}

	if idx := strings.IndexByte(clean, '='); idx >= 0 {
		candidate := clean[idx+1:]
		candidate = strings.Trim(candidate, `"; `)
		if t, ok := tryFormats(candidate); ok {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("no configured time format matched body %q", body)
}

func tryFormats(s string) (time.Time, bool) {
	for _, layout := range timeFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
