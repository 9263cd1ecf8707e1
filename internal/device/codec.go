package device

import "strings"

// FourccFor maps a configured (codec, container) pair to the fourcc
// passed to the video writer, per spec.md §4.1's deterministic table.
// Total function: unrecognized input always falls back to MJPG, paired
// with a caller-visible warning so the fallback is never silent.
func FourccFor(codec, container string) (fourcc string, warning string) {
	c := strings.ToLower(strings.TrimSpace(codec))
	container = strings.ToLower(strings.TrimSpace(container))

	switch c {
	case "mjpg", "mjpeg":
		return "MJPG", ""
	case "xvid":
		return "XVID", ""
	case "mp4v":
		return "MP4V", ""
	case "h264":
		if container == "mp4" {
			return "avc1", ""
		}
		return "H264", ""
	default:
		return "MJPG", "unrecognized video_codec " + codec + ", falling back to MJPG"
	}
}
