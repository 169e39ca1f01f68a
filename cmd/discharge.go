package cmd

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/batteries"
	"github.com/markusressel/battctl/internal/configuration"
	"github.com/markusressel/battctl/internal/discharge"
	"github.com/markusressel/battctl/internal/persistence"
	"github.com/markusressel/battctl/internal/ui"
	"github.com/oklog/run"
	"github.com/spf13/cobra"
)

var dischargeBattery string

var dischargeCmd = &cobra.Command{
	Use:   "discharge",
	Short: "Force-discharge a battery for recalibration",
	Long: `Forces a battery to discharge down to 0 % even while on AC power,
monitoring live telemetry until the battery is empty. Interrupting the
command restores normal charging.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		setupUi()
		loadConfig()

		resolution := backend.Resolve(backend.Probe())
		if resolution.Assignment.Discharge == backend.TagNone {
			return errors.New("forced discharge is not available on this machine")
		}

		bat, err := batteries.Locate(resolution, dischargeBattery)
		if err != nil {
			return err
		}
		dischargeIO, err := batteries.DischargeIOFor(resolution, bat)
		if err != nil {
			return err
		}
		reader, err := batteries.ReaderFor(resolution, bat)
		if err != nil {
			return err
		}

		controller := &discharge.Controller{
			Discharge: dischargeIO,
			Reader:    reader,
			Battery:   bat,
			OnSample:  printSample,
		}

		var session discharge.Session

		ctx, cancel := context.WithCancel(context.Background())
		var g run.Group
		g.Add(func() error {
			var runErr error
			session, runErr = controller.Run(ctx)
			return runErr
		}, func(error) {
			cancel()
		})
		g.Add(run.SignalHandler(context.Background(), syscall.SIGINT, syscall.SIGTERM))

		runErr := g.Run()
		var signalErr run.SignalError
		if errors.As(runErr, &signalErr) {
			runErr = nil
		}

		if session.Outcome != discharge.OutcomeUnknown {
			saveSession(session)
			reportOutcome(session)
		}

		if runErr != nil {
			return runErr
		}
		if session.Outcome == discharge.OutcomePartialUnknownStop {
			return errors.New("discharge stopped unexpectedly")
		}
		return nil
	},
}

func init() {
	dischargeCmd.Flags().StringVarP(
		&dischargeBattery,
		"battery", "b",
		batteries.SelectorDefault,
		"Battery label, e.g. BAT0",
	)
	rootCmd.AddCommand(dischargeCmd)
}

func printSample(sample discharge.Sample) {
	telemetry := sample.Telemetry
	remainingText := "unknown"
	if telemetry.RemainingMinutes >= 0 {
		remainingText = formatMinutes(telemetry.RemainingMinutes)
	}
	ui.Printfln("%3d %%  %5d mV  %5d mW  remaining %s  [%s]",
		telemetry.Percent,
		telemetry.VoltageMilliVolt,
		sample.SmoothedPowerMilliWatt,
		remainingText,
		telemetry.Status,
	)
}

func formatMinutes(minutes int) string {
	if minutes < 60 {
		return fmt.Sprintf("%dm", minutes)
	}
	return fmt.Sprintf("%dh%02dm", minutes/60, minutes%60)
}

func saveSession(session discharge.Session) {
	p := persistence.NewPersistence(configuration.CurrentConfig.DbPath)
	if err := p.Init(); err != nil {
		ui.Warning("Unable to initialize session journal: %v", err)
		return
	}
	if err := p.SaveDischargeSession(session); err != nil {
		ui.Warning("Unable to save discharge session: %v", err)
	}
}

func reportOutcome(session discharge.Session) {
	switch session.Outcome {
	case discharge.OutcomeCompleted:
		ui.Success("Battery %s fully discharged, recalibration can begin", session.Battery)
	case discharge.OutcomePartialACRemoved:
		ui.Warning("Discharge of %s stopped at %d %% after an AC power event", session.Battery, session.LastPercent)
	case discharge.OutcomePartialUnknownStop:
		ui.Error("Discharge of %s stopped unexpectedly at %d %%", session.Battery, session.LastPercent)
	case discharge.OutcomeMalfunction:
		ui.Error("Discharge of %s failed, normal charging restored", session.Battery)
	case discharge.OutcomeCancelled:
		ui.Info("Discharge of %s cancelled, normal charging restored", session.Battery)
	}
}
