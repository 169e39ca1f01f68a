package cmd

import (
	"errors"
	"strconv"

	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/batteries"
	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/ui"
	"github.com/spf13/cobra"

	thresholdengine "github.com/markusressel/battctl/internal/threshold"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply the configured charge thresholds",
	Long: `Applies the per-battery charge thresholds from the configuration file,
e.g. from a power-event hook or on boot`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()
		loadConfig()

		targets := configuration.CurrentConfig.Thresholds
		if len(targets) == 0 {
			ui.Warning("No thresholds configured, nothing to apply")
			return nil
		}

		resolution := backend.Resolve(backend.Probe())

		failed := false
		for _, target := range targets {
			selector := target.Battery
			if selector == "" {
				selector = batteries.SelectorDefault
			}

			bat, err := batteries.Locate(resolution, selector)
			if err != nil {
				// one missing battery must not stop the remaining targets
				ui.Warning("Battery %s not found, skipping", selector)
				continue
			}

			io, err := batteries.ThresholdIOFor(resolution, bat)
			if err != nil {
				io = nil
			}
			engine := thresholdengine.NewEngine(resolution, io)

			request, err := engine.Validate(
				strconv.Itoa(int(target.Start)),
				strconv.Itoa(int(target.Stop)),
			)
			if err != nil {
				ui.Error("%s: %v", bat.Label, err)
				failed = true
				continue
			}

			result := engine.Write(request)
			printFieldResult(bat.Label, "start", result.Start)
			printFieldResult(bat.Label, "stop", result.Stop)
			if result.Failed() || result.Start.Outcome == thresholdengine.OutcomeUnsupported {
				failed = true
			}
		}

		if failed {
			return errors.New("applying thresholds failed for at least one battery")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(applyCmd)
}

func printFieldResult(label string, which string, result thresholdengine.FieldResult) {
	switch result.Outcome {
	case thresholdengine.OutcomeWritten:
		ui.Success("%s: %s threshold set to %d %%", label, which, result.Value)
	case thresholdengine.OutcomeUnchanged:
		ui.Info("%s: %s threshold already at %d %%", label, which, result.Value)
	case thresholdengine.OutcomeWriteError:
		ui.Error("%s: writing %s threshold failed: %v", label, which, result.Err)
	case thresholdengine.OutcomeUnsupported:
		ui.Error("%s: setting the %s threshold is not supported on this machine", label, which)
	}
}
