package batteries

import (
	"fmt"

	"github.com/markusressel/battctl/internal/backend"
)

// Battery describes one located physical battery. Paths and the tool index
// are only filled in when the owning capability is assigned to a backend
// that uses them. Batteries are re-derived from live hardware state on
// every query, never persisted.
type Battery struct {
	// Label is the unit name, e.g. "BAT0".
	Label string `json:"label"`
	// Index is the tpacpi-bat battery index: 0 unresolved, 1 primary,
	// 2 auxiliary.
	Index int `json:"index"`
	// Dir is the battery data directory of the read backend.
	Dir string `json:"dir"`

	StartPath     string `json:"startPath"`
	StopPath      string `json:"stopPath"`
	DischargePath string `json:"dischargePath"`
}

// Telemetry is a live battery snapshot from the read backend.
// Unavailable values are -1.
type Telemetry struct {
	VoltageMilliVolt int
	Percent          int
	PowerMilliWatt   int
	RemainingMinutes int
	// Status is the raw backend state string, e.g. "Discharging" or "idle".
	Status string
}

// ThresholdIO reads and writes charge thresholds through one backend.
type ThresholdIO interface {
	ReadStart() (int, error)
	ReadStop() (int, error)
	WriteStart(value int) error
	WriteStop(value int) error
}

// DischargeIO drives the forced-discharge switch of one backend.
type DischargeIO interface {
	SetForceDischarge(on bool) error
	ForceDischargeActive() (bool, error)
}

// Reader produces live battery telemetry.
type Reader interface {
	ReadTelemetry() (Telemetry, error)
}

// CycleCounter is the optional reader extension for backends that expose
// the battery's charge cycle count.
type CycleCounter interface {
	CycleCount() (int, error)
}

// ThresholdIOFor returns the threshold control of the assigned backend.
func ThresholdIOFor(resolution backend.Resolution, bat Battery) (ThresholdIO, error) {
	control, err := controlFor(resolution.Assignment.Threshold, bat)
	if err != nil {
		return nil, err
	}
	return control, nil
}

// DischargeIOFor returns the discharge control of the assigned backend.
func DischargeIOFor(resolution backend.Resolution, bat Battery) (DischargeIO, error) {
	control, err := controlFor(resolution.Assignment.Discharge, bat)
	if err != nil {
		return nil, err
	}
	return control, nil
}

// ReaderFor returns the telemetry reader of the assigned backend.
func ReaderFor(resolution backend.Resolution, bat Battery) (Reader, error) {
	control, err := controlFor(resolution.Assignment.Read, bat)
	if err != nil {
		return nil, err
	}
	return control, nil
}

// control is the full per-backend surface; each backend implements all of
// it, the dispatchers hand out the narrow view a caller needs.
type control interface {
	ThresholdIO
	DischargeIO
	Reader
}

func controlFor(tag backend.Tag, bat Battery) (control, error) {
	switch tag {
	case backend.TagNatacpi:
		return &NatacpiControl{Bat: bat}, nil
	case backend.TagTpsmapi:
		return &SmapiControl{Bat: bat}, nil
	case backend.TagTpacpi:
		return &TpacpiControl{Bat: bat, Call: backend.RunTpacpiBat}, nil
	}
	return nil, fmt.Errorf("no backend assigned for battery %s", bat.Label)
}
