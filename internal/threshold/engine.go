package threshold

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/batteries"
	"github.com/markusressel/battctl/internal/ui"
)

// Unset marks a threshold field that should be left unchanged.
const Unset = -1

// Request is a validated (start, stop) pair. Fields are either a value
// within the backend's bounds or Unset.
type Request struct {
	Start int
	Stop  int
}

var (
	ErrUnsupported  = errors.New("threshold control is not available on this machine")
	ErrNoneGiven    = errors.New("no threshold value given")
	ErrOnlyOneGiven = errors.New("start and stop thresholds must be given together")
)

// ParseError reports a threshold argument that is not a non-negative
// integer of at most 3 digits.
type ParseError struct {
	Which string
	Raw   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s threshold %q is not a valid percentage", e.Which, e.Raw)
}

// OutOfRangeError reports a threshold value outside the backend's bounds.
type OutOfRangeError struct {
	Which string
	Value int
	Min   int
	Max   int
}

func (e *OutOfRangeError) Error() string {
	return fmt.Sprintf("%s threshold %d is out of range [%d, %d]", e.Which, e.Value, e.Min, e.Max)
}

// GapError reports a pair violating the backend's minimum start/stop gap.
type GapError struct {
	Start  int
	Stop   int
	MinGap int
}

func (e *GapError) Error() string {
	return fmt.Sprintf("stop threshold must exceed the start threshold by at least %d, got start %d and stop %d", e.MinGap, e.Start, e.Stop)
}

// FieldOutcome classifies the result of one threshold field write.
type FieldOutcome int

const (
	// OutcomeSkipped means the field was Unset in the request.
	OutcomeSkipped FieldOutcome = iota
	// OutcomeUnchanged means the hardware already had the requested value.
	OutcomeUnchanged
	// OutcomeWritten means the value was written to the backend.
	OutcomeWritten
	// OutcomeWriteError means the backend rejected the write.
	OutcomeWriteError
	// OutcomeUnsupported means no writable threshold backend is assigned.
	OutcomeUnsupported
)

func (o FieldOutcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeWritten:
		return "written"
	case OutcomeWriteError:
		return "write error"
	case OutcomeUnsupported:
		return "unsupported"
	}
	return "unknown"
}

// FieldResult is the per-field outcome of a Write.
type FieldResult struct {
	Outcome FieldOutcome
	Value   int
	Err     error
}

// WriteResult reports both field outcomes of one Write. A failed field
// never aborts the other one; partial success is preserved.
type WriteResult struct {
	Start FieldResult
	Stop  FieldResult
}

// Failed reports whether any field write was rejected by the backend.
func (r WriteResult) Failed() bool {
	return r.Start.Outcome == OutcomeWriteError || r.Stop.Outcome == OutcomeWriteError
}

// Engine validates, reads and writes charge thresholds through the
// assigned backend, applying the hardware family's bounds and quirks.
type Engine struct {
	io       batteries.ThresholdIO
	bounds   backend.ThresholdBounds
	quirks   backend.Quirks
	tag      backend.Tag
	readOnly bool
}

func NewEngine(resolution backend.Resolution, io batteries.ThresholdIO) *Engine {
	return &Engine{
		io:       io,
		bounds:   resolution.Bounds,
		quirks:   backend.QuirksFor(resolution.Assignment.Threshold),
		tag:      resolution.Assignment.Threshold,
		readOnly: resolution.ThresholdReadOnly,
	}
}

// Bounds returns the threshold bounds of the resolved hardware family.
func (e *Engine) Bounds() backend.ThresholdBounds {
	return e.bounds
}

// ReadStart returns the active start threshold, normalized so the
// on-wire default sentinel reads as the factory default percentage.
func (e *Engine) ReadStart() (int, error) {
	return e.read(func() (int, error) { return e.io.ReadStart() }, e.bounds.StartMax)
}

// ReadStop returns the active stop threshold, normalized like ReadStart.
func (e *Engine) ReadStop() (int, error) {
	return e.read(func() (int, error) { return e.io.ReadStop() }, e.bounds.StopMax)
}

// Current reads both active thresholds.
func (e *Engine) Current() (start int, stop int, err error) {
	start, err = e.ReadStart()
	if err != nil {
		return 0, 0, err
	}
	stop, err = e.ReadStop()
	if err != nil {
		return 0, 0, err
	}
	return start, stop, nil
}

func (e *Engine) read(read func() (int, error), factoryDefault int) (int, error) {
	if e.tag == backend.TagNone || e.io == nil {
		return 0, ErrUnsupported
	}
	value, err := read()
	if err != nil {
		return 0, err
	}
	if e.quirks.DoubleReadThreshold {
		// the first read after boot may be stale, the second is trusted
		if second, err := read(); err == nil {
			value = second
		}
	}
	if value == e.bounds.DefaultSentinel {
		value = factoryDefault
	}
	return value, nil
}

// Validate parses and checks a requested threshold pair. Empty strings
// mean "not given". A value of 0 selects the factory default and maps to
// the bound's max value.
func (e *Engine) Validate(startRaw string, stopRaw string) (Request, error) {
	if e.tag == backend.TagNone {
		return Request{}, ErrUnsupported
	}

	request := Request{Start: Unset, Stop: Unset}

	if startRaw != "" {
		value, err := e.parseValue("start", startRaw, e.bounds.StartMin, e.bounds.StartMax)
		if err != nil {
			return Request{}, err
		}
		request.Start = value
	}
	if stopRaw != "" {
		value, err := e.parseValue("stop", stopRaw, e.bounds.StopMin, e.bounds.StopMax)
		if err != nil {
			return Request{}, err
		}
		request.Stop = value
	}

	if request.Start == Unset && request.Stop == Unset {
		return Request{}, ErrNoneGiven
	}
	if request.Start == Unset || request.Stop == Unset {
		return Request{}, ErrOnlyOneGiven
	}
	if request.Start+e.bounds.MinGap > request.Stop {
		return Request{}, &GapError{Start: request.Start, Stop: request.Stop, MinGap: e.bounds.MinGap}
	}
	return request, nil
}

func (e *Engine) parseValue(which string, raw string, min int, max int) (int, error) {
	if len(raw) > 3 {
		return 0, &ParseError{Which: which, Raw: raw}
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, &ParseError{Which: which, Raw: raw}
	}
	if value == e.bounds.DefaultSentinel {
		return max, nil
	}
	if value < min || value > max {
		return 0, &OutOfRangeError{Which: which, Value: value, Min: min, Max: max}
	}
	return value, nil
}

// Write applies a validated request to the backend. The write order is
// chosen so that the driver's own pairwise gap check cannot transiently
// reject a valid final pair.
func (e *Engine) Write(request Request) WriteResult {
	if e.tag == backend.TagNone || e.readOnly || e.io == nil {
		unsupported := FieldResult{Outcome: OutcomeUnsupported}
		return WriteResult{Start: unsupported, Stop: unsupported}
	}

	curStart, startErr := e.ReadStart()
	curStop, stopErr := e.ReadStop()
	startKnown := startErr == nil
	stopKnown := stopErr == nil
	if startKnown && stopKnown && curStart >= curStop {
		// some firmware reports an inverted pair, trust neither value
		startKnown = false
		stopKnown = false
	}

	stopFirst := request.Start != Unset &&
		(!stopKnown || request.Start > curStop-e.bounds.MinGap)

	var result WriteResult
	writeStart := func() {
		result.Start = e.writeField("start", request.Start, curStart, startKnown, e.io.WriteStart, e.bounds.StartMax)
	}
	writeStop := func() {
		result.Stop = e.writeField("stop", request.Stop, curStop, stopKnown, e.io.WriteStop, e.bounds.StopMax)
	}

	if stopFirst {
		writeStop()
		writeStart()
	} else {
		writeStart()
		writeStop()
	}
	return result
}

func (e *Engine) writeField(which string, value int, current int, currentKnown bool, write func(int) error, factoryDefault int) FieldResult {
	if value == Unset {
		return FieldResult{Outcome: OutcomeSkipped}
	}
	if currentKnown && value == current {
		ui.Debug("%s threshold already at %d, skipping write", which, value)
		return FieldResult{Outcome: OutcomeUnchanged, Value: value}
	}

	encoded := value
	if e.quirks.WriteDefaultAsZero && value == factoryDefault {
		encoded = e.bounds.DefaultSentinel
	}
	if err := write(encoded); err != nil {
		ui.Warning("Failed to write %s threshold %d: %v", which, value, err)
		return FieldResult{Outcome: OutcomeWriteError, Value: value, Err: err}
	}
	return FieldResult{Outcome: OutcomeWritten, Value: value}
}
