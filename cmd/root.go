package cmd

import (
	"fmt"
	"os"

	"github.com/markusressel/battctl/cmd/config"
	"github.com/markusressel/battctl/cmd/global"
	"github.com/markusressel/battctl/cmd/threshold"
	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/batteries"
	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/ui"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	thresholdengine "github.com/markusressel/battctl/internal/threshold"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "battctl",
	Short: "A CLI to manage laptop battery charge thresholds and calibration.",
	Long: `battctl discovers the battery control interfaces of the running
machine, picks the authoritative one per capability and manages charge
thresholds and forced discharge through it.`,
	// without a subcommand, print what was detected on this machine
	Run: func(cmd *cobra.Command, args []string) {
		setupUi()
		printHeader()

		loadConfig()

		resolution := backend.Resolve(backend.Probe())
		printSummary(resolution)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&global.CfgFile, "config", "c", "", "config file (default is $HOME/battctl.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&global.NoColor, "no-color", "", false, "Disable all terminal output coloration")
	rootCmd.PersistentFlags().BoolVarP(&global.NoStyle, "no-style", "", false, "Disable all terminal output styling")
	rootCmd.PersistentFlags().BoolVarP(&global.Verbose, "verbose", "v", false, "More verbose output")

	rootCmd.AddCommand(config.Command)
	rootCmd.AddCommand(threshold.Command)
}

func setupUi() {
	ui.SetDebugEnabled(global.Verbose)

	if global.NoColor {
		pterm.DisableColor()
	}
	if global.NoStyle {
		pterm.DisableStyling()
	}
}

func loadConfig() {
	configPath := configuration.DetectConfigFile()
	if configPath != "" {
		ui.Debug("Using configuration file at: %s", configPath)
	}
	configuration.LoadConfig()
	if err := configuration.Validate(); err != nil {
		ui.Fatal("Config validation error: %v", err)
	}
}

func printSummary(resolution backend.Resolution) {
	assignment := resolution.Assignment
	ui.Printfln("Methods: read=%s threshold=%s discharge=%s", assignment.Read, assignment.Threshold, assignment.Discharge)

	all, err := batteries.LocateAll(resolution)
	if err != nil {
		ui.Warning("No batteries found: %v", err)
		return
	}

	for _, bat := range all {
		ui.Printfln("> %s", bat.Label)

		if reader, err := batteries.ReaderFor(resolution, bat); err == nil {
			if telemetry, err := reader.ReadTelemetry(); err == nil {
				ui.Printfln("  charge: %d %%, state: %s", telemetry.Percent, telemetry.Status)
			}
		}

		if assignment.Threshold == backend.TagNone {
			continue
		}
		io, err := batteries.ThresholdIOFor(resolution, bat)
		if err != nil {
			continue
		}
		engine := thresholdengine.NewEngine(resolution, io)
		if start, stop, err := engine.Current(); err == nil {
			ui.Printfln("  thresholds: start %d %%, stop %d %%", start, stop)
		}
	}
}

// Print a large text with the LetterStyle from the standard theme.
func printHeader() {
	err := pterm.DefaultBigText.WithLetters(
		pterm.NewLettersFromStringWithStyle("batt", pterm.NewStyle(pterm.FgLightGreen)),
		pterm.NewLettersFromStringWithStyle("ctl", pterm.NewStyle(pterm.FgWhite)),
	).Render()
	if err != nil {
		fmt.Println("battctl")
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.OnInitialize(func() {
		configuration.InitConfig(global.CfgFile)
	})

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
