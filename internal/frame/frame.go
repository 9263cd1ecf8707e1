package frame

// Frame is the sealed interface implemented by every producible frame
// variant. A type switch on the concrete type is the sanctioned way to
// inspect one, mirroring the tagged-union pattern spec.md §3 describes.
type Frame interface {
	// DeviceName returns the owning device's unique name.
	DeviceName() string

	frameMarker()
}

// IPImage is the frame variant produced by an IP camera snapshot: the raw,
// still-encoded bytes returned by the device's CGI endpoint.
type IPImage struct {
	Name           string
	Bytes          []byte
	DeclaredFormat string // image format hint from configuration, e.g. "jpg"
}

func (f IPImage) DeviceName() string { return f.Name }
func (IPImage) frameMarker()         {}

// ColorPlane is a decoded BGR8-sourced color frame, already converted to
// RGB8 for lossless PNG encoding.
type ColorPlane struct {
	RGB8   []byte
	Width  int
	Height int
}

// DepthPlane is a raw 16-bit depth frame plus the scale needed to turn a
// raw sample into meters.
type DepthPlane struct {
	Z16         []byte // little-endian uint16 samples, Width*Height*2 bytes
	Width       int
	Height      int
	UnitsPerStep float64 // meters represented by one raw step
}

// DepthCapture is the frame variant produced by a depth camera snapshot.
// At least one of Color/Depth is non-nil; which ones are present mirrors
// which streams were enabled in configuration.
type DepthCapture struct {
	Name  string
	Color *ColorPlane
	Depth *DepthPlane
}

func (f DepthCapture) DeviceName() string { return f.Name }
func (DepthCapture) frameMarker()         {}
