package backend

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/markusressel/battctl/internal/util"
)

const (
	// PowerSupplyPath is the native battery namespace.
	PowerSupplyPath = "/sys/class/power_supply"
	// SmapiBasePath is the tp_smapi module's own sysfs tree.
	SmapiBasePath = "/sys/devices/platform/smapi"
)

// PowerSupplyBatteries lists the directories under root that look like
// physical batteries: type "Battery", present, and not matching the
// ignored-unit pattern. The result is sorted by name so that BAT0
// enumerates before BAT1.
func PowerSupplyBatteries(root string, ignored *regexp.Regexp) []string {
	var result []string
	entries, err := os.ReadDir(root)
	if err != nil {
		return result
	}

	for _, entry := range entries {
		name := entry.Name()
		if ignored != nil && ignored.MatchString(name) {
			continue
		}

		dir := filepath.Join(root, name)
		supplyType, err := util.ReadStringFromFile(filepath.Join(dir, "type"))
		if err != nil || supplyType != "Battery" {
			continue
		}
		present, err := util.ReadIntFromFile(filepath.Join(dir, "present"))
		if err != nil || present != 1 {
			continue
		}

		result = append(result, dir)
	}

	sort.Strings(result)
	return result
}

// SmapiBatteries lists installed battery directories under the tp_smapi
// tree. The module names slots BAT0/BAT1 regardless of what is installed,
// so "installed" is the presence signal there.
func SmapiBatteries(root string, ignored *regexp.Regexp) []string {
	var result []string
	entries, err := os.ReadDir(root)
	if err != nil {
		return result
	}

	for _, entry := range entries {
		name := entry.Name()
		if ignored != nil && ignored.MatchString(name) {
			continue
		}

		dir := filepath.Join(root, name)
		installedPath := filepath.Join(dir, "installed")
		if !util.FileExists(installedPath) {
			continue
		}
		installed, err := util.ReadIntFromFile(installedPath)
		if err != nil || installed != 1 {
			continue
		}

		result = append(result, dir)
	}

	sort.Strings(result)
	return result
}
