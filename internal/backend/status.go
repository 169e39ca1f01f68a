package backend

// Tag identifies one of the battery control interfaces.
type Tag string

const (
	// TagNone marks a capability no backend can serve on this machine.
	TagNone Tag = "none"
	// TagNatacpi is the native kernel interface under /sys/class/power_supply.
	TagNatacpi Tag = "natacpi"
	// TagTpacpi is the tpacpi-bat vendor tool driving firmware through the
	// acpi_call kernel interface.
	TagTpacpi Tag = "tpacpi"
	// TagTpsmapi is the tp_smapi kernel module sysfs tree.
	TagTpsmapi Tag = "tpsmapi"
)

type Capability int

const (
	CapabilityRead Capability = iota
	CapabilityThreshold
	CapabilityDischarge
)

func (c Capability) String() string {
	switch c {
	case CapabilityRead:
		return "read"
	case CapabilityThreshold:
		return "threshold"
	case CapabilityDischarge:
		return "discharge"
	}
	return "unknown"
}

// Status is the probe verdict of one backend for one capability.
type Status int

const (
	StatusUnknown Status = iota
	StatusSupported
	StatusReadOnly
	StatusDisabledByConfig
	StatusModuleNotLoaded
	StatusModuleNotInstalled
	StatusSuperseded
	StatusHardwareUnsupported
	StatusDeviceClassUnsupported
)

func (s Status) String() string {
	switch s {
	case StatusSupported:
		return "supported"
	case StatusReadOnly:
		return "read-only"
	case StatusDisabledByConfig:
		return "disabled by config"
	case StatusModuleNotLoaded:
		return "module not loaded"
	case StatusModuleNotInstalled:
		return "module not installed"
	case StatusSuperseded:
		return "superseded by another backend"
	case StatusHardwareUnsupported:
		return "no hardware support"
	case StatusDeviceClassUnsupported:
		return "no battery device"
	}
	return "unknown"
}

// ProbeResult holds one backend's status per capability.
type ProbeResult struct {
	Read      Status
	Threshold Status
	Discharge Status
}

// Snapshot is the combined probe result of all backends for one process
// invocation. It is immutable once produced.
type Snapshot struct {
	Natacpi ProbeResult
	Tpacpi  ProbeResult
	Tpsmapi ProbeResult
}

// MethodAssignment maps each capability to exactly one backend.
type MethodAssignment struct {
	Read      Tag
	Threshold Tag
	Discharge Tag
}

// ThresholdBounds holds the hardware family's threshold limits.
// StartMax and StopMax double as the factory default values; some firmware
// reports and accepts DefaultSentinel in their place.
type ThresholdBounds struct {
	StartMin        int
	StartMax        int
	StopMin         int
	StopMax         int
	MinGap          int
	DefaultSentinel int
}
