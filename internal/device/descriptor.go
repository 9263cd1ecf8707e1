package device

import (
	"strings"

	"github.com/tatbot/camrig/internal/config"
)

// Kind discriminates the two device descriptor variants.
type Kind string

const (
	KindIP    Kind = "ip"
	KindDepth Kind = "depth"
)

// Descriptor is the Go expression of spec.md §3's tagged device variant:
// one of IP/Depth is non-nil depending on Kind. It never carries a
// credential; passwords are resolved at use time via PasswordEnvVar.
type Descriptor struct {
	Kind  Kind
	IP    *config.IPCameraConfig
	Depth *config.DepthCameraConfig
}

// Name returns the descriptor's unique configured name.
func (d Descriptor) Name() string {
	switch d.Kind {
	case KindIP:
		if d.IP != nil {
			return d.IP.Name
		}
	case KindDepth:
		if d.Depth != nil {
			return d.Depth.Name
		}
	}
	return ""
}

// DescriptorFromConfig converts a validated config.DeviceConfig into a
// device.Descriptor.
func DescriptorFromConfig(dc config.DeviceConfig) Descriptor {
	switch dc.Kind {
	case config.DeviceKindIP:
		return Descriptor{Kind: KindIP, IP: dc.IP}
	case config.DeviceKindDepth:
		return Descriptor{Kind: KindDepth, Depth: dc.Depth}
	default:
		return Descriptor{}
	}
}

// PasswordEnvVar derives the environment variable a device's password is
// read from: upper-case the name, replace "-" with "_", append
// "_PASSWORD", per spec.md §3.
func PasswordEnvVar(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_")) + "_PASSWORD"
}
