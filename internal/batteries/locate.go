package batteries

import (
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/markusressel/battctl/internal/backend"
)

// ErrNotFound is returned when no unit in the active read backend's
// namespace matches the selector.
var ErrNotFound = errors.New("no matching battery found")

// SelectorDefault picks the first battery in the read backend's
// enumeration order.
const SelectorDefault = "default"

// Locate resolves the battery matching selector against live hardware
// state. selector is a label such as "BAT0", or SelectorDefault (or empty)
// for the first battery of the active read backend.
func Locate(resolution backend.Resolution, selector string) (Battery, error) {
	return locateAt(resolution, backend.PowerSupplyPath, backend.SmapiBasePath, backend.RunTpacpiBat, backend.IgnoredUnitPattern(), selector)
}

// LocateAll returns every battery of the active read backend, in
// enumeration order.
func LocateAll(resolution backend.Resolution) ([]Battery, error) {
	return locateAllAt(resolution, backend.PowerSupplyPath, backend.SmapiBasePath, backend.RunTpacpiBat, backend.IgnoredUnitPattern())
}

func locateAt(resolution backend.Resolution, psRoot string, smapiRoot string, call backend.CallFunc, ignored *regexp.Regexp, selector string) (Battery, error) {
	all, err := locateAllAt(resolution, psRoot, smapiRoot, call, ignored)
	if err != nil {
		return Battery{}, err
	}

	if selector == "" || strings.EqualFold(selector, SelectorDefault) {
		return all[0], nil
	}
	for _, bat := range all {
		if strings.EqualFold(bat.Label, selector) {
			return bat, nil
		}
	}
	return Battery{}, ErrNotFound
}

func locateAllAt(resolution backend.Resolution, psRoot string, smapiRoot string, call backend.CallFunc, ignored *regexp.Regexp) ([]Battery, error) {
	read := resolution.Assignment.Read

	var labels []string
	var dirs map[string]string

	switch {
	case backend.UsesSysfsData(read):
		labels, dirs = labelsFromDirs(sysfsBatteries(read, psRoot, smapiRoot, ignored))
	case read == backend.TagTpacpi:
		labels = tpacpiLabels(call)
		dirs = map[string]string{}
	default:
		return nil, ErrNotFound
	}

	if len(labels) == 0 {
		return nil, ErrNotFound
	}

	result := make([]Battery, 0, len(labels))
	for i, label := range labels {
		bat := Battery{
			Label: label,
			Dir:   dirs[label],
		}
		resolveBackendPaths(resolution, &bat, i, psRoot, smapiRoot, call)
		result = append(result, bat)
	}
	return result, nil
}

// sysfsBatteries enumerates the battery directories of a sysfs-backed
// read backend in its own tree.
func sysfsBatteries(read backend.Tag, psRoot string, smapiRoot string, ignored *regexp.Regexp) []string {
	if read == backend.TagTpsmapi {
		return backend.SmapiBatteries(smapiRoot, ignored)
	}
	return backend.PowerSupplyBatteries(psRoot, ignored)
}

func labelsFromDirs(batteryDirs []string) ([]string, map[string]string) {
	var labels []string
	dirs := map[string]string{}
	for _, dir := range batteryDirs {
		label := filepath.Base(dir)
		labels = append(labels, label)
		dirs[label] = dir
	}
	return labels, dirs
}

// tpacpiLabels enumerates the tool's index namespace: index 1 always, and
// index 2 when the firmware answers a secondary query.
func tpacpiLabels(call backend.CallFunc) []string {
	labels := []string{"BAT0"}
	if tpacpiIndexResponds(call, "2") {
		labels = append(labels, "BAT1")
	}
	return labels
}

func tpacpiIndexResponds(call backend.CallFunc, index string) bool {
	out, err := call("-g", "ST", index)
	if err != nil {
		return false
	}
	_, err = backend.ParseTpacpiValue(out)
	return err == nil
}

// resolveBackendPaths fills in the identifiers each assigned backend needs:
// sysfs attribute paths for natacpi/tp_smapi, the tool index for tpacpi.
// position is the battery's place in enumeration order (0 = first).
func resolveBackendPaths(resolution backend.Resolution, bat *Battery, position int, psRoot string, smapiRoot string, call backend.CallFunc) {
	assignment := resolution.Assignment

	switch assignment.Threshold {
	case backend.TagNatacpi:
		dir := filepath.Join(psRoot, bat.Label)
		bat.StartPath = backend.FindNatacpiFile(dir, backend.NatacpiStartFiles)
		bat.StopPath = backend.FindNatacpiFile(dir, backend.NatacpiStopFiles)
	case backend.TagTpsmapi:
		dir := filepath.Join(smapiRoot, bat.Label)
		bat.StartPath = filepath.Join(dir, backend.SmapiStartFile)
		bat.StopPath = filepath.Join(dir, backend.SmapiStopFile)
	}

	switch assignment.Discharge {
	case backend.TagNatacpi:
		bat.DischargePath = filepath.Join(psRoot, bat.Label, backend.NatacpiDischargeFile)
	case backend.TagTpsmapi:
		bat.DischargePath = filepath.Join(smapiRoot, bat.Label, backend.SmapiDischargeFile)
	}

	if assignment.Threshold == backend.TagTpacpi || assignment.Discharge == backend.TagTpacpi || assignment.Read == backend.TagTpacpi {
		bat.Index = resolveTpacpiIndex(position, call)
	}
}

// resolveTpacpiIndex maps enumeration position to the tool's battery
// index. The first battery is always primary index 1. A second unit is
// auxiliary index 2 only when the firmware answers a secondary query;
// single-slot variants misreport their primary as BAT1.
func resolveTpacpiIndex(position int, call backend.CallFunc) int {
	if position == 0 {
		return 1
	}
	if tpacpiIndexResponds(call, "2") {
		return 2
	}
	return 1
}
