package backend

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/ui"
	"github.com/markusressel/battctl/internal/util"
)

const (
	// TpacpiBatTool is the vendor command-line tool talking to firmware
	// through the acpi_call kernel interface.
	TpacpiBatTool = "tpacpi-bat"
	// AcpiCallPath is the special file the tool needs to operate.
	AcpiCallPath = "/proc/acpi/call"

	tpacpiBatTimeout = 2 * time.Second
)

// CallFunc invokes tpacpi-bat with the given arguments and returns its
// trimmed stdout. Split out so probes and controls can be tested without
// the tool.
type CallFunc func(args ...string) (string, error)

// RunTpacpiBat is the production CallFunc.
func RunTpacpiBat(args ...string) (string, error) {
	return util.SafeCmdExecution(TpacpiBatTool, args, tpacpiBatTimeout)
}

func probeTpacpi() ProbeResult {
	return probeTpacpiAt(
		configuration.CurrentConfig.Tpacpi.Enable,
		util.IsThinkPad(),
		util.FileExists(AcpiCallPath),
		util.ToolInPath(TpacpiBatTool),
		RunTpacpiBat,
	)
}

func probeTpacpiAt(enabled bool, isThinkPad bool, callFileExists bool, toolResolvable bool, call CallFunc) ProbeResult {
	uniform := func(s Status) ProbeResult {
		return ProbeResult{Read: s, Threshold: s, Discharge: s}
	}

	if !isThinkPad {
		return uniform(StatusHardwareUnsupported)
	}
	if !enabled {
		return uniform(StatusDisabledByConfig)
	}

	if !callFileExists {
		// the tool ships with the acpi_call module; when its metadata
		// resolves the module is merely not loaded
		if toolResolvable {
			return uniform(StatusModuleNotLoaded)
		}
		return uniform(StatusModuleNotInstalled)
	}

	out, err := call("-g", "ST", "1")
	if err != nil {
		ui.Warning("%s is present but malfunctioning: %v", TpacpiBatTool, err)
		return uniform(StatusHardwareUnsupported)
	}
	if _, err := ParseTpacpiValue(out); err != nil {
		ui.Warning("%s returned garbled output %q", TpacpiBatTool, out)
		return uniform(StatusHardwareUnsupported)
	}

	return uniform(StatusSupported)
}

// ParseTpacpiValue parses tpacpi-bat stdout: a bare integer or a yes/no
// token, optionally followed by a unit suffix such as " (%)".
func ParseTpacpiValue(out string) (int, error) {
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty %s output", TpacpiBatTool)
	}

	switch strings.ToLower(fields[0]) {
	case "yes":
		return 1, nil
	case "no":
		return 0, nil
	}

	value, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0, fmt.Errorf("unexpected %s output %q: %w", TpacpiBatTool, out, err)
	}
	return value, nil
}
