package timesync

import "time"

// Status classifies one device's clock reading against the host.
type Status int

const (
	// InSync means the device responded and its clock agrees with the
	// host within tolerance.
	InSync Status = iota
	// OutOfSync means the device responded but its clock disagrees with
	// the host by more than tolerance.
	OutOfSync
	// Unknown means the device could not be checked: it does not support
	// query_time, or the query itself failed.
	Unknown
)

func (s Status) String() string {
	switch s {
	case InSync:
		return "in_sync"
	case OutOfSync:
		return "out_of_sync"
	default:
		return "unknown"
	}
}

// DeviceResult is one device's host-relative clock check.
type DeviceResult struct {
	Name   string
	Time   time.Time // zero if the device could not be queried
	Delta  time.Duration
	Status Status
	Err    error // set when Status == Unknown due to a query failure
}

// PairResult is one device-to-device clock comparison, only produced when
// at least two devices returned a usable reading.
type PairResult struct {
	NameA, NameB string
	Delta        time.Duration
	InSync       bool
}

// Report is the full outcome of one verification pass. It never signals
// failure on its own — a caller wanting a pass/fail exit code inspects
// AllInSync().
type Report struct {
	HostTime  time.Time
	Tolerance time.Duration
	Devices   []DeviceResult
	Pairs     []PairResult
}

// AllInSync reports whether every checked device (excluding Unknown ones)
// is within tolerance of the host and of every other checked device.
func (r Report) AllInSync() bool {
	for _, d := range r.Devices {
		if d.Status == OutOfSync {
			return false
		}
	}
	for _, p := range r.Pairs {
		if !p.InSync {
			return false
		}
	}
	return true
}
