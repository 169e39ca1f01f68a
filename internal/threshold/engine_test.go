package threshold

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markusressel/battctl/internal/backend"
)

var (
	nativeBounds = backend.ThresholdBounds{StartMin: 0, StartMax: 96, StopMin: 1, StopMax: 100, MinGap: 4, DefaultSentinel: 0}
	moduleBounds = backend.ThresholdBounds{StartMin: 2, StartMax: 96, StopMin: 6, StopMax: 100, MinGap: 4, DefaultSentinel: 0}
)

type fakeThresholdIO struct {
	start int
	stop  int

	// stale values drained before start/stop settle, oldest first
	pendingStart []int
	pendingStop  []int

	writeLog       []string
	failStartWrite bool
	failStopWrite  bool
}

func (f *fakeThresholdIO) ReadStart() (int, error) {
	if len(f.pendingStart) > 0 {
		value := f.pendingStart[0]
		f.pendingStart = f.pendingStart[1:]
		return value, nil
	}
	return f.start, nil
}

func (f *fakeThresholdIO) ReadStop() (int, error) {
	if len(f.pendingStop) > 0 {
		value := f.pendingStop[0]
		f.pendingStop = f.pendingStop[1:]
		return value, nil
	}
	return f.stop, nil
}

func (f *fakeThresholdIO) WriteStart(value int) error {
	if f.failStartWrite {
		return fmt.Errorf("write rejected")
	}
	f.start = value
	f.writeLog = append(f.writeLog, fmt.Sprintf("start=%d", value))
	return nil
}

func (f *fakeThresholdIO) WriteStop(value int) error {
	if f.failStopWrite {
		return fmt.Errorf("write rejected")
	}
	f.stop = value
	f.writeLog = append(f.writeLog, fmt.Sprintf("stop=%d", value))
	return nil
}

func engineFor(tag backend.Tag, bounds backend.ThresholdBounds, io *fakeThresholdIO) *Engine {
	resolution := backend.Resolution{
		Assignment: backend.MethodAssignment{Threshold: tag},
		Bounds:     bounds,
	}
	return NewEngine(resolution, io)
}

func TestValidate_FactoryDefaults(t *testing.T) {
	// GIVEN
	engine := engineFor(backend.TagNatacpi, nativeBounds, &fakeThresholdIO{})

	// WHEN: 0 selects the factory default
	request, err := engine.Validate("0", "0")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 96, request.Start)
	assert.Equal(t, 100, request.Stop)
}

func TestValidate_MinimumGap(t *testing.T) {
	// GIVEN
	engine := engineFor(backend.TagNatacpi, nativeBounds, &fakeThresholdIO{})

	// WHEN / THEN: gap of 3 fails, gap of 4 passes
	_, err := engine.Validate("96", "99")
	var gapErr *GapError
	require.ErrorAs(t, err, &gapErr)
	assert.Equal(t, 4, gapErr.MinGap)

	request, err := engine.Validate("95", "99")
	require.NoError(t, err)
	assert.Equal(t, 95, request.Start)
	assert.Equal(t, 99, request.Stop)
}

func TestValidate_IncompletePairs(t *testing.T) {
	// GIVEN
	engine := engineFor(backend.TagNatacpi, nativeBounds, &fakeThresholdIO{})

	// WHEN / THEN
	_, err := engine.Validate("", "")
	assert.ErrorIs(t, err, ErrNoneGiven)

	_, err = engine.Validate("75", "")
	assert.ErrorIs(t, err, ErrOnlyOneGiven)

	_, err = engine.Validate("", "80")
	assert.ErrorIs(t, err, ErrOnlyOneGiven)
}

func TestValidate_OutOfRange(t *testing.T) {
	// GIVEN
	engine := engineFor(backend.TagNatacpi, nativeBounds, &fakeThresholdIO{})

	// WHEN
	_, err := engine.Validate("97", "100")

	// THEN
	var rangeErr *OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "start", rangeErr.Which)
	assert.Equal(t, 96, rangeErr.Max)
}

func TestValidate_ModuleNarrowsBounds(t *testing.T) {
	// GIVEN the vendor module's narrower ranges
	engine := engineFor(backend.TagTpsmapi, moduleBounds, &fakeThresholdIO{})

	// WHEN
	_, err := engine.Validate("1", "100")

	// THEN: start 1 is below the module's minimum of 2
	var rangeErr *OutOfRangeError
	require.ErrorAs(t, err, &rangeErr)
	assert.Equal(t, "start", rangeErr.Which)
	assert.Equal(t, 2, rangeErr.Min)
}

func TestValidate_MalformedInput(t *testing.T) {
	engine := engineFor(backend.TagNatacpi, nativeBounds, &fakeThresholdIO{})

	for _, raw := range []string{"abc", "1000", "-5", "7.5"} {
		_, err := engine.Validate(raw, "80")
		var parseErr *ParseError
		assert.ErrorAs(t, err, &parseErr, "input %q", raw)
	}
}

func TestValidate_NoBackendAssigned(t *testing.T) {
	// GIVEN
	engine := engineFor(backend.TagNone, backend.ThresholdBounds{}, &fakeThresholdIO{})

	// WHEN
	_, err := engine.Validate("60", "80")

	// THEN
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestRead_DoubleReadOnAffectedFamilies(t *testing.T) {
	// GIVEN firmware whose first read after boot is stale
	io := &fakeThresholdIO{start: 75, pendingStart: []int{50}}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN
	start, err := engine.ReadStart()

	// THEN: the second read wins
	require.NoError(t, err)
	assert.Equal(t, 75, start)
}

func TestRead_SingleReadForVendorModule(t *testing.T) {
	// GIVEN: the module answers from a kernel cache, no stale-read defect
	io := &fakeThresholdIO{start: 75, pendingStart: []int{50}}
	engine := engineFor(backend.TagTpsmapi, moduleBounds, io)

	// WHEN
	start, err := engine.ReadStart()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 50, start)
}

func TestRead_NormalizesDefaultSentinel(t *testing.T) {
	// GIVEN firmware reporting "default" as 0
	io := &fakeThresholdIO{start: 0, stop: 0}
	engine := engineFor(backend.TagTpsmapi, moduleBounds, io)

	// WHEN
	start, stop, err := engine.Current()

	// THEN
	require.NoError(t, err)
	assert.Equal(t, 96, start)
	assert.Equal(t, 100, stop)
}

func TestWrite_StopFirstWhenRaising(t *testing.T) {
	// GIVEN current (90, 92) and a request that would violate the gap
	// against the current stop
	io := &fakeThresholdIO{start: 90, stop: 92}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN
	result := engine.Write(Request{Start: 95, Stop: 99})

	// THEN
	assert.Equal(t, OutcomeWritten, result.Start.Outcome)
	assert.Equal(t, OutcomeWritten, result.Stop.Outcome)
	assert.Equal(t, []string{"stop=99", "start=95"}, io.writeLog)
}

func TestWrite_StartFirstWhenLowering(t *testing.T) {
	// GIVEN current (90, 92) and a new start that fits under the current
	// stop
	io := &fakeThresholdIO{start: 90, stop: 92}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN
	result := engine.Write(Request{Start: 10, Stop: 99})

	// THEN
	assert.False(t, result.Failed())
	assert.Equal(t, []string{"start=10", "stop=99"}, io.writeLog)
}

func TestWrite_Idempotent(t *testing.T) {
	// GIVEN
	io := &fakeThresholdIO{start: 60, stop: 80}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN
	first := engine.Write(Request{Start: 60, Stop: 80})

	// THEN: nothing touched the hardware
	assert.Equal(t, OutcomeUnchanged, first.Start.Outcome)
	assert.Equal(t, OutcomeUnchanged, first.Stop.Outcome)
	assert.Empty(t, io.writeLog)
}

func TestWrite_PartialFieldRequest(t *testing.T) {
	// GIVEN
	io := &fakeThresholdIO{start: 60, stop: 80}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN: only the stop value changes
	result := engine.Write(Request{Start: Unset, Stop: 90})

	// THEN
	assert.Equal(t, OutcomeSkipped, result.Start.Outcome)
	assert.Equal(t, OutcomeWritten, result.Stop.Outcome)
	assert.Equal(t, []string{"stop=90"}, io.writeLog)
}

func TestWrite_DistrustsInvertedCurrents(t *testing.T) {
	// GIVEN a defective reading where start >= stop
	io := &fakeThresholdIO{start: 96, stop: 90}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN: the requested start equals the bogus current value
	result := engine.Write(Request{Start: 96, Stop: 100})

	// THEN: both fields are written anyway, stop first since the current
	// pair is untrusted
	assert.Equal(t, OutcomeWritten, result.Start.Outcome)
	assert.Equal(t, OutcomeWritten, result.Stop.Outcome)
	assert.Equal(t, []string{"stop=100", "start=96"}, io.writeLog)
}

func TestWrite_LegacyToolEncodesDefaultAsZero(t *testing.T) {
	// GIVEN the vendor tool backend
	io := &fakeThresholdIO{start: 60, stop: 80}
	engine := engineFor(backend.TagTpacpi, nativeBounds, io)

	// WHEN: factory defaults are requested
	result := engine.Write(Request{Start: 96, Stop: 100})

	// THEN: the set protocol carries 0, not the literal percentage
	assert.False(t, result.Failed())
	assert.Equal(t, []string{"stop=0", "start=0"}, io.writeLog)
}

func TestWrite_FieldFailureDoesNotAbortTheOther(t *testing.T) {
	// GIVEN a backend rejecting stop writes
	io := &fakeThresholdIO{start: 60, stop: 80, failStopWrite: true}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN
	result := engine.Write(Request{Start: 50, Stop: 90})

	// THEN
	assert.Equal(t, OutcomeWritten, result.Start.Outcome)
	assert.Equal(t, OutcomeWriteError, result.Stop.Outcome)
	assert.Error(t, result.Stop.Err)
	assert.True(t, result.Failed())
	assert.Equal(t, []string{"start=50"}, io.writeLog)
}

func TestWrite_ReadOnlyAssignment(t *testing.T) {
	// GIVEN a model where the module only exposes thresholds read-only
	io := &fakeThresholdIO{start: 60, stop: 80}
	resolution := backend.Resolution{
		Assignment:        backend.MethodAssignment{Threshold: backend.TagTpsmapi},
		Bounds:            moduleBounds,
		ThresholdReadOnly: true,
	}
	engine := NewEngine(resolution, io)

	// WHEN
	result := engine.Write(Request{Start: 50, Stop: 90})

	// THEN: reads still work, writes are refused
	assert.Equal(t, OutcomeUnsupported, result.Start.Outcome)
	assert.Equal(t, OutcomeUnsupported, result.Stop.Outcome)
	assert.Empty(t, io.writeLog)

	start, err := engine.ReadStart()
	require.NoError(t, err)
	assert.Equal(t, 60, start)
}

func TestWriteReadRoundTrip(t *testing.T) {
	// GIVEN
	io := &fakeThresholdIO{start: 96, stop: 100}
	engine := engineFor(backend.TagNatacpi, nativeBounds, io)

	// WHEN
	request, err := engine.Validate("70", "85")
	require.NoError(t, err)
	result := engine.Write(request)
	require.False(t, result.Failed())

	// THEN
	start, stop, err := engine.Current()
	require.NoError(t, err)
	assert.Equal(t, 70, start)
	assert.Equal(t, 85, stop)
}
