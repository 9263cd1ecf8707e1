package capture

import (
	"github.com/tatbot/camrig/internal/device"
	"github.com/tatbot/camrig/internal/frame"
)

// Status summarizes a batch across all participating devices.
type Status string

const (
	AllOK     Status = "all_ok"
	Partial   Status = "partial"
	AllFailed Status = "all_failed"
)

// Outcome is one device's result within a batch.
type Outcome struct {
	Device string
	Frame  frame.Frame        // populated on a successful ModeSnapshot
	Record device.RecordResult // populated on a successful ModeRecord
	Err    error
}

// Ok reports whether this device's operation succeeded.
func (o Outcome) Ok() bool { return o.Err == nil }

// BatchOutcome is the aggregate result of one RunBatch call.
type BatchOutcome struct {
	Timestamp string
	Outcomes  []Outcome
	Status    Status
}

func aggregateStatus(outcomes []Outcome) Status {
	if len(outcomes) == 0 {
		return AllOK
	}
	okCount := 0
	for _, o := range outcomes {
		if o.Ok() {
			okCount++
		}
	}
	switch {
	case okCount == len(outcomes):
		return AllOK
	case okCount == 0:
		return AllFailed
	default:
		return Partial
	}
}
