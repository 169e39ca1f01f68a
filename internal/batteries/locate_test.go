package batteries

import (
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/configuration"
)

var testIgnored = regexp.MustCompile(configuration.DefaultIgnoredBatteryPattern)

func writeAttr(t *testing.T, dir string, name string, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content+"\n"), 0644))
}

func fakeNativeBattery(t *testing.T, root string, label string) string {
	t.Helper()
	dir := filepath.Join(root, label)
	writeAttr(t, dir, "type", "Battery")
	writeAttr(t, dir, "present", "1")
	writeAttr(t, dir, "charge_control_start_threshold", "75")
	writeAttr(t, dir, "charge_control_end_threshold", "80")
	writeAttr(t, dir, "charge_behaviour", "[auto] force-discharge")
	return dir
}

func nativeResolution() backend.Resolution {
	return backend.Resolution{
		Assignment: backend.MethodAssignment{
			Read:      backend.TagNatacpi,
			Threshold: backend.TagNatacpi,
			Discharge: backend.TagNatacpi,
		},
	}
}

func TestLocate_Default(t *testing.T) {
	// GIVEN
	psRoot := t.TempDir()
	fakeNativeBattery(t, psRoot, "BAT0")
	fakeNativeBattery(t, psRoot, "BAT1")

	// WHEN
	bat, err := locateAt(nativeResolution(), psRoot, "", nil, testIgnored, SelectorDefault)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "BAT0", bat.Label)
	assert.Equal(t, filepath.Join(psRoot, "BAT0"), bat.Dir)
	assert.Equal(t, filepath.Join(psRoot, "BAT0", "charge_control_start_threshold"), bat.StartPath)
	assert.Equal(t, filepath.Join(psRoot, "BAT0", "charge_control_end_threshold"), bat.StopPath)
	assert.Equal(t, filepath.Join(psRoot, "BAT0", "charge_behaviour"), bat.DischargePath)
	// the tool index stays unresolved while no capability uses it
	assert.Equal(t, 0, bat.Index)
}

func TestLocate_ByLabel(t *testing.T) {
	// GIVEN
	psRoot := t.TempDir()
	fakeNativeBattery(t, psRoot, "BAT0")
	fakeNativeBattery(t, psRoot, "BAT1")

	// WHEN
	bat, err := locateAt(nativeResolution(), psRoot, "", nil, testIgnored, "bat1")

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "BAT1", bat.Label)
}

func TestLocate_NotFound(t *testing.T) {
	// GIVEN
	psRoot := t.TempDir()
	fakeNativeBattery(t, psRoot, "BAT0")

	// WHEN
	_, err := locateAt(nativeResolution(), psRoot, "", nil, testIgnored, "BAT5")

	// THEN
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocate_NoReadBackend(t *testing.T) {
	// GIVEN
	resolution := backend.Resolution{
		Assignment: backend.MethodAssignment{
			Read:      backend.TagNone,
			Threshold: backend.TagNone,
			Discharge: backend.TagNone,
		},
	}

	// WHEN
	_, err := locateAt(resolution, t.TempDir(), "", nil, testIgnored, SelectorDefault)

	// THEN
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocate_SkipsIgnoredUnits(t *testing.T) {
	// GIVEN a present unit matching the ignored pattern
	psRoot := t.TempDir()
	fakeNativeBattery(t, psRoot, "hid-aa:bb:cc-battery")
	fakeNativeBattery(t, psRoot, "BAT1")

	// WHEN
	bat, err := locateAt(nativeResolution(), psRoot, "", nil, testIgnored, SelectorDefault)

	// THEN
	require.NoError(t, err)
	assert.Equal(t, "BAT1", bat.Label)
}

func TestLocate_MixedBackends(t *testing.T) {
	// GIVEN reads through tp_smapi, writes through natacpi
	psRoot := t.TempDir()
	smapiRoot := t.TempDir()
	fakeNativeBattery(t, psRoot, "BAT0")
	writeAttr(t, filepath.Join(smapiRoot, "BAT0"), "installed", "1")

	resolution := backend.Resolution{
		Assignment: backend.MethodAssignment{
			Read:      backend.TagTpsmapi,
			Threshold: backend.TagNatacpi,
			Discharge: backend.TagNatacpi,
		},
	}

	// WHEN
	bat, err := locateAt(resolution, psRoot, smapiRoot, nil, testIgnored, SelectorDefault)

	// THEN: data comes from the module tree, control paths from natacpi
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(smapiRoot, "BAT0"), bat.Dir)
	assert.Equal(t, filepath.Join(psRoot, "BAT0", "charge_control_start_threshold"), bat.StartPath)
	assert.Equal(t, filepath.Join(psRoot, "BAT0", "charge_behaviour"), bat.DischargePath)
}

func TestLocateAll_TpacpiIndexResolution(t *testing.T) {
	// GIVEN a firmware that answers the secondary-index query
	call := func(args ...string) (string, error) {
		return "80 (%)", nil
	}
	resolution := backend.Resolution{
		Assignment: backend.MethodAssignment{
			Read:      backend.TagTpacpi,
			Threshold: backend.TagTpacpi,
			Discharge: backend.TagTpacpi,
		},
	}

	// WHEN
	all, err := locateAllAt(resolution, "", "", call, testIgnored)

	// THEN
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "BAT0", all[0].Label)
	assert.Equal(t, 1, all[0].Index)
	assert.Equal(t, "BAT1", all[1].Label)
	assert.Equal(t, 2, all[1].Index)
}

func TestResolveTpacpiIndex_SingleSlotMisreportingAsBAT1(t *testing.T) {
	// GIVEN a firmware that rejects the secondary-index query
	call := func(args ...string) (string, error) {
		return "error", nil
	}

	// WHEN / THEN: the second enumerated unit is actually the primary
	assert.Equal(t, 1, resolveTpacpiIndex(1, call))
	assert.Equal(t, 1, resolveTpacpiIndex(0, call))
}
