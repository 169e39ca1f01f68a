package batteries

import (
	"fmt"
	"path/filepath"

	"github.com/markusressel/battctl/internal/ui"
	"github.com/markusressel/battctl/internal/util"
)

// SmapiControl drives a battery through the tp_smapi sysfs tree.
type SmapiControl struct {
	Bat Battery
}

func (c *SmapiControl) ReadStart() (int, error) {
	return c.readThresholdFile(c.Bat.StartPath, "start")
}

func (c *SmapiControl) ReadStop() (int, error) {
	return c.readThresholdFile(c.Bat.StopPath, "stop")
}

func (c *SmapiControl) readThresholdFile(path string, which string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("battery %s has no %s threshold attribute", c.Bat.Label, which)
	}
	return util.ReadIntFromFile(path)
}

func (c *SmapiControl) WriteStart(value int) error {
	return c.writeThresholdFile(c.Bat.StartPath, "start", value)
}

func (c *SmapiControl) WriteStop(value int) error {
	return c.writeThresholdFile(c.Bat.StopPath, "stop", value)
}

func (c *SmapiControl) writeThresholdFile(path string, which string, value int) error {
	if path == "" {
		return fmt.Errorf("battery %s has no %s threshold attribute", c.Bat.Label, which)
	}
	ui.Debug("Writing %s threshold %d to %s", which, value, path)
	return util.WriteIntToFile(value, path)
}

func (c *SmapiControl) SetForceDischarge(on bool) error {
	if c.Bat.DischargePath == "" {
		return fmt.Errorf("battery %s has no discharge attribute", c.Bat.Label)
	}
	value := 0
	if on {
		value = 1
	}
	return util.WriteIntToFile(value, c.Bat.DischargePath)
}

func (c *SmapiControl) ForceDischargeActive() (bool, error) {
	if c.Bat.DischargePath == "" {
		return false, fmt.Errorf("battery %s has no discharge attribute", c.Bat.Label)
	}
	value, err := util.ReadIntFromFile(c.Bat.DischargePath)
	if err != nil {
		return false, err
	}
	return value == 1, nil
}

func (c *SmapiControl) ReadTelemetry() (Telemetry, error) {
	telemetry := Telemetry{
		VoltageMilliVolt: -1,
		Percent:          -1,
		PowerMilliWatt:   -1,
		RemainingMinutes: -1,
	}
	if c.Bat.Dir == "" {
		return telemetry, fmt.Errorf("battery %s has no data directory", c.Bat.Label)
	}

	// tp_smapi reports "idle", "charging" or "discharging"
	state, err := util.ReadStringFromFile(filepath.Join(c.Bat.Dir, "state"))
	if err != nil {
		return telemetry, err
	}
	telemetry.Status = state

	if voltage, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "voltage")); err == nil {
		telemetry.VoltageMilliVolt = voltage
	}
	if percent, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "remaining_percent")); err == nil {
		telemetry.Percent = percent
	}
	// signed, negative while discharging
	if power, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "power_now")); err == nil {
		telemetry.PowerMilliWatt = abs(power)
	}
	if minutes, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "remaining_running_time_now")); err == nil {
		telemetry.RemainingMinutes = minutes
	}

	return telemetry, nil
}

// CycleCount is extra telemetry only the vendor module provides.
func (c *SmapiControl) CycleCount() (int, error) {
	if c.Bat.Dir == "" {
		return 0, fmt.Errorf("battery %s has no data directory", c.Bat.Label)
	}
	return util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "cycle_count"))
}
