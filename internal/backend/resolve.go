package backend

import (
	"golang.org/x/exp/slices"
)

// Resolution is the authoritative method assignment for this invocation,
// together with the threshold bounds of the resolved hardware family.
type Resolution struct {
	Assignment MethodAssignment
	Bounds     ThresholdBounds

	// ThresholdReadOnly is set when the threshold capability could only be
	// assigned in read-only mode; reads work, writes must be refused.
	ThresholdReadOnly bool
}

// Precedence per capability. The vendor module wins for reads because it
// reports additional telemetry (cycle count, running time).
var (
	readPrecedence      = []Tag{TagTpsmapi, TagNatacpi, TagTpacpi}
	thresholdPrecedence = []Tag{TagNatacpi, TagTpsmapi, TagTpacpi}
	dischargePrecedence = []Tag{TagNatacpi, TagTpsmapi, TagTpacpi}
)

// ThinkPad firmware accepts start 0..96 and stop 1..100 with a minimum
// gap of 4; tp_smapi narrows both ranges. The max values double as the
// factory defaults, encoded as 0 on the wire.
var (
	thinkpadBounds = ThresholdBounds{StartMin: 0, StartMax: 96, StopMin: 1, StopMax: 100, MinGap: 4, DefaultSentinel: 0}
	smapiBounds    = ThresholdBounds{StartMin: 2, StartMax: 96, StopMin: 6, StopMax: 100, MinGap: 4, DefaultSentinel: 0}
)

// Resolve combines the probe snapshot into exactly one backend per
// capability. Pure given the snapshot; callers re-probe and re-resolve on
// every invocation.
func Resolve(snapshot Snapshot) Resolution {
	resolution := Resolution{
		Assignment: MethodAssignment{
			Read:      TagNone,
			Threshold: TagNone,
			Discharge: TagNone,
		},
	}

	for _, tag := range readPrecedence {
		status := snapshot.Get(tag).Read
		if status == StatusSupported || status == StatusReadOnly {
			resolution.Assignment.Read = tag
			break
		}
	}

	for _, tag := range thresholdPrecedence {
		if snapshot.Get(tag).Threshold == StatusSupported {
			resolution.Assignment.Threshold = tag
			break
		}
	}
	if resolution.Assignment.Threshold == TagNone {
		// fall back to read-only threshold access so current values can
		// still be queried
		for _, tag := range thresholdPrecedence {
			if snapshot.Get(tag).Threshold == StatusReadOnly {
				resolution.Assignment.Threshold = tag
				resolution.ThresholdReadOnly = true
				break
			}
		}
	}

	for _, tag := range dischargePrecedence {
		if snapshot.Get(tag).Discharge == StatusSupported {
			resolution.Assignment.Discharge = tag
			break
		}
	}

	resolution.Bounds = boundsFor(resolution.Assignment.Threshold)
	return resolution
}

func boundsFor(tag Tag) ThresholdBounds {
	switch tag {
	case TagNatacpi, TagTpacpi:
		return thinkpadBounds
	case TagTpsmapi:
		return smapiBounds
	}
	// unrecognized family: zero bounds, threshold operations unsupported
	return ThresholdBounds{}
}

// UsesSysfsData reports whether the tag reads battery data from a sysfs
// tree (as opposed to the index-addressed vendor tool).
func UsesSysfsData(tag Tag) bool {
	return slices.Contains([]Tag{TagNatacpi, TagTpsmapi}, tag)
}
