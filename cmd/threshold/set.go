package threshold

import (
	"errors"

	"github.com/markusressel/battctl/internal/ui"
	"github.com/spf13/cobra"

	thresholdengine "github.com/markusressel/battctl/internal/threshold"
)

var (
	startArg string
	stopArg  string
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Set the charge thresholds",
	Long: `Sets the charge start and stop thresholds of a battery.
A value of 0 selects the factory default.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, bat, err := setupEngine()
		if err != nil {
			return err
		}

		request, err := engine.Validate(startArg, stopArg)
		if err != nil {
			return err
		}

		result := engine.Write(request)
		printFieldResult(bat.Label, "start", result.Start)
		printFieldResult(bat.Label, "stop", result.Stop)

		if result.Failed() {
			return errors.New("one or more threshold writes failed")
		}
		return nil
	},
}

func init() {
	setCmd.Flags().StringVar(&startArg, "start", "", "Charge start threshold in percent (0 = factory default)")
	setCmd.Flags().StringVar(&stopArg, "stop", "", "Charge stop threshold in percent (0 = factory default)")
	Command.AddCommand(setCmd)
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
