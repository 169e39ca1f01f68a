package backend

// Probe tests all three interfaces against the live machine state.
// Results are valid for the current invocation only: module load state and
// attribute visibility can change between runs, so callers must not cache
// a Snapshot across invocations.
func Probe() Snapshot {
	snapshot := Snapshot{
		Natacpi: probeNatacpi(),
		Tpacpi:  probeTpacpi(),
		Tpsmapi: probeTpsmapi(),
	}
	snapshot.applySupersede()
	return snapshot
}

// applySupersede marks the legacy tool superseded wherever the native
// interface fully covers a capability, regardless of the tool's own test
// result. Native always wins when both exist.
func (s *Snapshot) applySupersede() {
	if s.Natacpi.Read == StatusSupported && s.Tpacpi.Read == StatusSupported {
		s.Tpacpi.Read = StatusSuperseded
	}
	if s.Natacpi.Threshold == StatusSupported {
		s.Tpacpi.Threshold = StatusSuperseded
	}
	if s.Natacpi.Discharge == StatusSupported {
		s.Tpacpi.Discharge = StatusSuperseded
	}
}

// Get returns the probe result of the given backend.
func (s Snapshot) Get(tag Tag) ProbeResult {
	switch tag {
	case TagNatacpi:
		return s.Natacpi
	case TagTpacpi:
		return s.Tpacpi
	case TagTpsmapi:
		return s.Tpsmapi
	}
	return ProbeResult{}
}

// Capability returns the status of one capability within a probe result.
func (p ProbeResult) Capability(c Capability) Status {
	switch c {
	case CapabilityRead:
		return p.Read
	case CapabilityThreshold:
		return p.Threshold
	case CapabilityDischarge:
		return p.Discharge
	}
	return StatusUnknown
}
