package discharge

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofrs/flock"

	"github.com/markusressel/battctl/internal/backend"
	"github.com/markusressel/battctl/internal/batteries"
	"github.com/markusressel/battctl/internal/ui"
	"github.com/markusressel/battctl/internal/util"
)

// Outcome is the terminal state of one discharge session.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	// OutcomeCompleted means the battery reached 0 percent.
	OutcomeCompleted
	// OutcomePartialACRemoved means discharge stopped early after an AC
	// power event, a benign interruption.
	OutcomePartialACRemoved
	// OutcomePartialUnknownStop means discharge stopped early with the
	// machine still on battery power, a hardware or firmware anomaly.
	OutcomePartialUnknownStop
	// OutcomeMalfunction means the backend refused discharge or the
	// hardware never confirmed it.
	OutcomeMalfunction
	// OutcomeCancelled means the user interrupted the session.
	OutcomeCancelled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomePartialACRemoved:
		return "partial (AC removed)"
	case OutcomePartialUnknownStop:
		return "partial (unknown stop)"
	case OutcomeMalfunction:
		return "malfunction"
	case OutcomeCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ErrLocked is returned when another discharge or recalibration operation
// already holds the machine-wide lock.
var ErrLocked = errors.New("another discharge operation is pending")

// DefaultLockPath serializes discharge sessions across all processes on
// the machine.
const DefaultLockPath = "/run/lock/battctl-discharge.lock"

const (
	defaultConfirmInterval = 1 * time.Second
	defaultMonitorInterval = 5 * time.Second
	defaultConfirmPolls    = 15

	// samples kept for power smoothing, one minute at the default
	// monitor interval
	powerWindowSize = 12
)

// Sample is one telemetry observation taken during the monitoring loop.
type Sample struct {
	Time                   time.Time           `json:"time"`
	Telemetry              batteries.Telemetry `json:"telemetry"`
	SmoothedPowerMilliWatt int                 `json:"smoothedPowerMilliWatt"`
}

// Session is the record of one discharge invocation.
type Session struct {
	Battery    string    `json:"battery"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Outcome    Outcome   `json:"outcome"`
	// LastPercent is the last observed remaining capacity, -1 if never
	// observed.
	LastPercent int      `json:"lastPercent"`
	Samples     []Sample `json:"samples,omitempty"`
}

// Controller runs the forced-discharge state machine for one battery.
// Zero-value intervals fall back to the defaults.
type Controller struct {
	Discharge batteries.DischargeIO
	Reader    batteries.Reader
	Battery   batteries.Battery

	LockPath        string
	ConfirmInterval time.Duration
	MonitorInterval time.Duration
	ConfirmPolls    int

	// ACOnline reports whether the machine currently draws AC power,
	// used to classify early termination. Defaults to ACPowerOnline.
	ACOnline func() bool

	// OnSample, if set, is invoked for every telemetry observation.
	OnSample func(Sample)
}

// Run drives the session to a terminal state. Cancelling ctx at any
// point after initiation turns discharge off, releases the lock and
// reports OutcomeCancelled. The returned error is non-nil only for lock
// contention and malfunction; partial and cancelled sessions are regular
// results.
func (c *Controller) Run(ctx context.Context) (Session, error) {
	session := Session{
		Battery:     c.Battery.Label,
		StartedAt:   time.Now(),
		LastPercent: -1,
	}

	lock := flock.New(c.lockPath())
	locked, err := lock.TryLock()
	if err != nil {
		session.Outcome = OutcomeMalfunction
		session.FinishedAt = time.Now()
		return session, fmt.Errorf("unable to acquire discharge lock: %w", err)
	}
	if !locked {
		session.Outcome = OutcomeMalfunction
		session.FinishedAt = time.Now()
		return session, ErrLocked
	}

	// every path below must turn discharge off and release the lock,
	// exactly once
	cleanupDone := false
	cleanup := func() {
		if cleanupDone {
			return
		}
		cleanupDone = true
		if err := c.Discharge.SetForceDischarge(false); err != nil {
			ui.Warning("Failed to restore normal charging for %s: %v", c.Battery.Label, err)
		}
		if err := lock.Unlock(); err != nil {
			ui.Warning("Failed to release discharge lock: %v", err)
		}
	}
	defer cleanup()

	ui.Info("Initiating forced discharge of %s", c.Battery.Label)
	if err := c.Discharge.SetForceDischarge(true); err != nil {
		session.Outcome = OutcomeMalfunction
		session.FinishedAt = time.Now()
		return session, fmt.Errorf("backend refused forced discharge: %w", err)
	}

	confirmed := false
	for poll := 0; poll < c.confirmPolls(); poll++ {
		if err := sleepCtx(ctx, c.confirmInterval()); err != nil {
			return c.cancelled(session), nil
		}
		active, err := c.Discharge.ForceDischargeActive()
		if err == nil && active {
			confirmed = true
			break
		}
	}
	if !confirmed {
		session.Outcome = OutcomeMalfunction
		session.FinishedAt = time.Now()
		return session, fmt.Errorf("hardware did not confirm discharge within %d polls", c.confirmPolls())
	}
	ui.Info("Discharge confirmed, monitoring until empty")

	window := util.CreateRollingWindow(powerWindowSize)
	sawDischarging := false
	for {
		telemetry, telemetryErr := c.Reader.ReadTelemetry()
		if telemetryErr != nil {
			ui.Warning("Unable to read battery telemetry: %v", telemetryErr)
		} else {
			if telemetry.Percent >= 0 {
				session.LastPercent = telemetry.Percent
			}
			sample := Sample{
				Time:                   time.Now(),
				Telemetry:              telemetry,
				SmoothedPowerMilliWatt: telemetry.PowerMilliWatt,
			}
			if telemetry.PowerMilliWatt >= 0 {
				window.Append(float64(telemetry.PowerMilliWatt))
				sample.SmoothedPowerMilliWatt = int(util.GetWindowAvg(window))
			}
			session.Samples = append(session.Samples, sample)
			if c.OnSample != nil {
				c.OnSample(sample)
			}
			if isDischargingStatus(telemetry.Status) {
				sawDischarging = true
			}
		}

		active, activeErr := c.Discharge.ForceDischargeActive()
		if activeErr != nil || !active {
			break
		}
		// quirky firmware keeps the flag set after the battery empties,
		// the raw status string is the secondary completion signal
		if telemetryErr == nil && sawDischarging && !isDischargingStatus(telemetry.Status) {
			break
		}

		if err := sleepCtx(ctx, c.monitorInterval()); err != nil {
			return c.cancelled(session), nil
		}
	}

	session.FinishedAt = time.Now()
	switch {
	case session.LastPercent == 0:
		session.Outcome = OutcomeCompleted
	case c.acOnline():
		session.Outcome = OutcomePartialACRemoved
	default:
		session.Outcome = OutcomePartialUnknownStop
	}
	return session, nil
}

func (c *Controller) cancelled(session Session) Session {
	ui.Info("Discharge of %s cancelled, restoring normal charging", c.Battery.Label)
	session.Outcome = OutcomeCancelled
	session.FinishedAt = time.Now()
	return session
}

func (c *Controller) lockPath() string {
	if c.LockPath == "" {
		return DefaultLockPath
	}
	return c.LockPath
}

func (c *Controller) confirmInterval() time.Duration {
	if c.ConfirmInterval <= 0 {
		return defaultConfirmInterval
	}
	return c.ConfirmInterval
}

func (c *Controller) monitorInterval() time.Duration {
	if c.MonitorInterval <= 0 {
		return defaultMonitorInterval
	}
	return c.MonitorInterval
}

func (c *Controller) confirmPolls() int {
	if c.ConfirmPolls <= 0 {
		return defaultConfirmPolls
	}
	return c.ConfirmPolls
}

func (c *Controller) acOnline() bool {
	if c.ACOnline != nil {
		return c.ACOnline()
	}
	return ACPowerOnline()
}

func isDischargingStatus(status string) bool {
	return strings.EqualFold(strings.TrimSpace(status), "discharging")
}

func sleepCtx(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ACPowerOnline reports whether any mains supply is currently online.
func ACPowerOnline() bool {
	return acOnlineAt(backend.PowerSupplyPath)
}

func acOnlineAt(root string) bool {
	entries, err := os.ReadDir(root)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		dir := filepath.Join(root, entry.Name())
		if !isMainsSupply(dir, entry.Name()) {
			continue
		}
		if online, err := util.ReadIntFromFile(filepath.Join(dir, "online")); err == nil && online == 1 {
			return true
		}
	}
	return false
}

func isMainsSupply(dir string, name string) bool {
	if supplyType, err := util.ReadStringFromFile(filepath.Join(dir, "type")); err == nil {
		return supplyType == "Mains"
	}
	// older trees lack the type attribute, fall back to the common names
	for _, prefix := range []string{"AC", "ADP"} {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}
