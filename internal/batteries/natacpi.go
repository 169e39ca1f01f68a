package batteries

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/markusressel/battctl/internal/ui"
	"github.com/markusressel/battctl/internal/util"
)

// NatacpiControl drives a battery through the native power_supply
// attributes.
type NatacpiControl struct {
	Bat Battery
}

const (
	// charge_behaviour values; the active one is rendered in brackets.
	chargeBehaviourAuto           = "auto"
	chargeBehaviourForceDischarge = "force-discharge"
)

func (c *NatacpiControl) ReadStart() (int, error) {
	return c.readThresholdFile(c.Bat.StartPath, "start")
}

func (c *NatacpiControl) ReadStop() (int, error) {
	return c.readThresholdFile(c.Bat.StopPath, "stop")
}

func (c *NatacpiControl) readThresholdFile(path string, which string) (int, error) {
	if path == "" {
		return 0, fmt.Errorf("battery %s has no %s threshold attribute", c.Bat.Label, which)
	}
	return util.ReadIntFromFile(path)
}

func (c *NatacpiControl) WriteStart(value int) error {
	return c.writeThresholdFile(c.Bat.StartPath, "start", value)
}

func (c *NatacpiControl) WriteStop(value int) error {
	return c.writeThresholdFile(c.Bat.StopPath, "stop", value)
}

func (c *NatacpiControl) writeThresholdFile(path string, which string, value int) error {
	if path == "" {
		return fmt.Errorf("battery %s has no %s threshold attribute", c.Bat.Label, which)
	}
	ui.Debug("Writing %s threshold %d to %s", which, value, path)
	return util.WriteIntToFile(value, path)
}

func (c *NatacpiControl) SetForceDischarge(on bool) error {
	if c.Bat.DischargePath == "" {
		return fmt.Errorf("battery %s has no discharge attribute", c.Bat.Label)
	}
	behaviour := chargeBehaviourAuto
	if on {
		behaviour = chargeBehaviourForceDischarge
	}
	return util.WriteStringToFile(behaviour, c.Bat.DischargePath)
}

func (c *NatacpiControl) ForceDischargeActive() (bool, error) {
	if c.Bat.DischargePath == "" {
		return false, fmt.Errorf("battery %s has no discharge attribute", c.Bat.Label)
	}
	behaviour, err := util.ReadStringFromFile(c.Bat.DischargePath)
	if err != nil {
		return false, err
	}
	return strings.Contains(behaviour, "["+chargeBehaviourForceDischarge+"]"), nil
}

func (c *NatacpiControl) ReadTelemetry() (Telemetry, error) {
	telemetry := Telemetry{
		VoltageMilliVolt: -1,
		Percent:          -1,
		PowerMilliWatt:   -1,
		RemainingMinutes: -1,
	}
	if c.Bat.Dir == "" {
		return telemetry, fmt.Errorf("battery %s has no data directory", c.Bat.Label)
	}

	status, err := util.ReadStringFromFile(filepath.Join(c.Bat.Dir, "status"))
	if err != nil {
		return telemetry, err
	}
	telemetry.Status = status

	if voltage, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "voltage_now")); err == nil {
		telemetry.VoltageMilliVolt = voltage / 1000
	}
	if percent, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "capacity")); err == nil {
		telemetry.Percent = percent
	}

	// energy_* units are µW/µWh; charge-based firmware reports µA/µAh
	// instead and power is derived from voltage
	power, powerOk := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "power_now"))
	if powerOk == nil {
		telemetry.PowerMilliWatt = abs(power) / 1000
	} else if current, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "current_now")); err == nil && telemetry.VoltageMilliVolt > 0 {
		telemetry.PowerMilliWatt = abs(current) / 1000 * telemetry.VoltageMilliVolt / 1000
	}

	if energy, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "energy_now")); err == nil && telemetry.PowerMilliWatt > 0 {
		telemetry.RemainingMinutes = energy / 1000 * 60 / telemetry.PowerMilliWatt
	} else if charge, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "charge_now")); err == nil {
		if current, err := util.ReadIntFromFile(filepath.Join(c.Bat.Dir, "current_now")); err == nil && current != 0 {
			telemetry.RemainingMinutes = charge * 60 / abs(current)
		}
	}

	return telemetry, nil
}

func abs(value int) int {
	if value < 0 {
		return -value
	}
	return value
}
