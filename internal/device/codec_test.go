package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFourccFor(t *testing.T) {
	tests := []struct {
		name       string
		codec      string
		container  string
		wantFourcc string
		wantWarn   bool
	}{
		{"mjpg lowercase", "mjpg", "avi", "MJPG", false},
		{"mjpeg alias", "mjpeg", "mp4", "MJPG", false},
		{"xvid any container", "xvid", "mkv", "XVID", false},
		{"mp4v any container", "mp4v", "avi", "MP4V", false},
		{"h264 in avi", "h264", "avi", "H264", false},
		{"h264 in mp4", "h264", "mp4", "avc1", false},
		{"h264 uppercase", "H264", "MP4", "avc1", false},
		{"unknown codec falls back to mjpg with warning", "vp9", "mp4", "MJPG", true},
		{"empty codec falls back to mjpg with warning", "", "avi", "MJPG", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fourcc, warning := FourccFor(tt.codec, tt.container)
			assert.Equal(t, tt.wantFourcc, fourcc)
			if tt.wantWarn {
				assert.NotEmpty(t, warning, "unrecognized codec should carry a warning")
			} else {
				assert.Empty(t, warning)
			}
		})
	}
}
