package threshold

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/markusressel/battctl/cmd/global"
	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/batteries"
	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/ui"

	thresholdengine "github.com/markusressel/battctl/internal/threshold"
)

var battery string

var Command = &cobra.Command{
	Use:              "threshold",
	Short:            "Charge threshold related commands",
	Long:             ``,
	TraverseChildren: true,
}

func init() {
	Command.PersistentFlags().StringVarP(
		&battery,
		"battery", "b",
		batteries.SelectorDefault,
		"Battery label, e.g. BAT0",
	)
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

func setupEngine() (*thresholdengine.Engine, batteries.Battery, error) {
	setupUi()

	configPath := configuration.DetectConfigFile()
	if configPath != "" {
		ui.Debug("Using configuration file at: %s", configPath)
	}
	configuration.LoadConfig()
	if err := configuration.Validate(); err != nil {
		ui.Fatal("Config validation error: %v", err)
	}

	resolution := backend.Resolve(backend.Probe())
	bat, err := batteries.Locate(resolution, battery)
	if err != nil {
		return nil, batteries.Battery{}, err
	}

	// without an assigned threshold backend the engine still exists and
	// reports every operation as unsupported
	io, err := batteries.ThresholdIOFor(resolution, bat)
	if err != nil {
		io = nil
	}
	return thresholdengine.NewEngine(resolution, io), bat, nil
}
