package backend

// Quirks collects hardware-family specific firmware defects per backend.
type Quirks struct {
	// DoubleReadThreshold works around firmware that returns a stale
	// threshold value on the first read after boot. Affected paths must be
	// read twice, keeping the second result.
	DoubleReadThreshold bool

	// WriteDefaultAsZero re-encodes the factory default percentage back to
	// 0 on writes. The vendor tool's set protocol uses 0 as its default
	// sentinel, not the literal percentage.
	WriteDefaultAsZero bool
}

// QuirksFor returns the quirk set of the given backend on this hardware
// family. ThinkPad firmware shows the stale-read defect both through the
// native attributes and through tpacpi-bat; tp_smapi answers from a kernel
// cache and is not affected.
func QuirksFor(tag Tag) Quirks {
	switch tag {
	case TagNatacpi:
		return Quirks{DoubleReadThreshold: true}
	case TagTpacpi:
		return Quirks{DoubleReadThreshold: true, WriteDefaultAsZero: true}
	default:
		return Quirks{}
	}
}
