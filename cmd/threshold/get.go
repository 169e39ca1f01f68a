package threshold

import (
	"strconv"

	"github.com/markusressel/battctl/internal/ui"
	"github.com/spf13/cobra"
)

var getCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the active charge thresholds",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, bat, err := setupEngine()
		if err != nil {
			return err
		}

		startText := "unavailable"
		if start, err := engine.ReadStart(); err == nil {
			startText = strconv.Itoa(start) + " %"
		} else {
			ui.Debug("Unable to read start threshold: %v", err)
		}

		stopText := "unavailable"
		if stop, err := engine.ReadStop(); err == nil {
			stopText = strconv.Itoa(stop) + " %"
		} else {
			ui.Debug("Unable to read stop threshold: %v", err)
		}

		ui.Printfln("%s: start %s, stop %s", bat.Label, startText, stopText)
		return nil
	},
}

func init() {
	Command.AddCommand(getCmd)
}
