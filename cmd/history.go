package cmd

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/markusressel/battctl/cmd/global"
	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/discharge"
	"github.com/markusressel/battctl/internal/persistence"
	"github.com/markusressel/battctl/internal/ui"
	"github.com/mgutz/ansi"
	"github.com/spf13/cobra"
	"github.com/tomlazar/table"
)

var historyGraph bool

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show past discharge sessions",
	Long:  `Lists the recorded discharge sessions, oldest first`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()
		loadConfig()

		p := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
		sessions, err := p.LoadDischargeSessions()
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			ui.Info("No discharge sessions recorded yet")
			return nil
		}

		var rows [][]string
		for _, session := range sessions {
			lastPercentText := "N/A"
			if session.LastPercent >= 0 {
				lastPercentText = strconv.Itoa(session.LastPercent) + " %"
			}
			rows = append(rows, []string{
				session.StartedAt.Local().Format("2006-01-02 15:04"),
				session.Battery,
				session.FinishedAt.Sub(session.StartedAt).Round(time.Minute).String(),
				lastPercentText,
				session.Outcome.String(),
			})
		}

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
		var buf bytes.Buffer
		tab := table.Table{
			Headers: []string{"Started", "Battery", "Duration", "Last Charge", "Outcome"},
			Rows:    rows,
		}
		if err := tab.WriteTable(&buf, tableConfig); err != nil {
			ui.Fatal("Error printing table: %v", err)
		}
		ui.Printfln(buf.String())

		if historyGraph {
			printChargeGraph(sessions[len(sessions)-1])
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().BoolVar(&historyGraph, "graph", false, "Plot the charge curve of the last session")
	rootCmd.AddCommand(historyCmd)
}

func printChargeGraph(session discharge.Session) {
	var data []float64
	for _, sample := range session.Samples {
		if sample.Telemetry.Percent >= 0 {
			data = append(data, float64(sample.Telemetry.Percent))
		}
	}
	if len(data) < 2 {
		ui.Info("Not enough samples recorded for a charge graph")
		return
	}

	caption := fmt.Sprintf("%s charge during the last session (%%)", session.Battery)
	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Caption(caption),
	)
	ui.Printfln("%s", graph)
}
