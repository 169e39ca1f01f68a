package cmd

import (
	"bytes"
	"strconv"

	"github.com/markusressel/battctl/cmd/global"
	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/batteries"
	"github.com/markusressel/battctl/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"

	thresholdengine "github.com/markusressel/battctl/internal/threshold"
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Detect battery control interfaces",
	Long:  `Probes all battery control interfaces and prints their status, the resolved methods and the detected batteries`,
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()
		loadConfig()

		snapshot := backend.Probe()
		resolution := backend.Resolve(snapshot)

		tableConfig := &table.Config{
			ShowIndex:       false,
			Color:           !global.NoColor,
			AlternateColors: true,
			TitleColorCode:  ansi.ColorCode("white+buf"),
			AltColorCodes: []string{
				ansi.ColorCode("white"),
				ansi.ColorCode("white:236"),
			},
		}

		printProbeTable(tableConfig, snapshot, resolution)
		printBatteryTable(tableConfig, resolution)
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func printProbeTable(tableConfig *table.Config, snapshot backend.Snapshot, resolution backend.Resolution) {
	ui.Printfln("> Backends")

	capabilities := []backend.Capability{
		backend.CapabilityRead,
		backend.CapabilityThreshold,
		backend.CapabilityDischarge,
	}
	assigned := map[backend.Capability]backend.Tag{
		backend.CapabilityRead:      resolution.Assignment.Read,
		backend.CapabilityThreshold: resolution.Assignment.Threshold,
		backend.CapabilityDischarge: resolution.Assignment.Discharge,
	}

	var rows [][]string
	for _, capability := range capabilities {
		row := []string{capability.String()}
		for _, tag := range []backend.Tag{backend.TagNatacpi, backend.TagTpsmapi, backend.TagTpacpi} {
			row = append(row, snapshot.Get(tag).Capability(capability).String())
		}
		row = append(row, string(assigned[capability]))
		rows = append(rows, row)
	}

	printTable(table.Table{
		Headers: []string{"Capability", "natacpi", "tp_smapi", "tpacpi-bat", "Assigned"},
		Rows:    rows,
	}, tableConfig)
}

func printBatteryTable(tableConfig *table.Config, resolution backend.Resolution) {
	ui.Printfln("> Batteries")

	all, err := batteries.LocateAll(resolution)
	if err != nil {
		ui.Printfln("  none found")
		return
	}

	var rows [][]string
	for _, bat := range all {
		chargeText := "N/A"
		stateText := "N/A"
		cyclesText := "N/A"
		if reader, err := batteries.ReaderFor(resolution, bat); err == nil {
			if telemetry, err := reader.ReadTelemetry(); err == nil {
				if telemetry.Percent >= 0 {
					chargeText = strconv.Itoa(telemetry.Percent) + " %"
				}
				stateText = telemetry.Status
			}
			if counter, ok := reader.(batteries.CycleCounter); ok {
				if cycles, err := counter.CycleCount(); err == nil {
					cyclesText = strconv.Itoa(cycles)
				}
			}
		}

		startText := "N/A"
		stopText := "N/A"
		if io, err := batteries.ThresholdIOFor(resolution, bat); err == nil {
			engine := thresholdengine.NewEngine(resolution, io)
			if start, stop, err := engine.Current(); err == nil {
				startText = strconv.Itoa(start) + " %"
				stopText = strconv.Itoa(stop) + " %"
			}
		}

		rows = append(rows, []string{bat.Label, chargeText, stateText, cyclesText, startText, stopText})
	}

	printTable(table.Table{
		Headers: []string{"Battery", "Charge", "State", "Cycles", "Start", "Stop"},
		Rows:    rows,
	}, tableConfig)
}

func printTable(tab table.Table, tableConfig *table.Config) {
	var buf bytes.Buffer
	if err := tab.WriteTable(&buf, tableConfig); err != nil {
		ui.Fatal("Error printing table: %v", err)
	}
	ui.Printfln(buf.String())
}
