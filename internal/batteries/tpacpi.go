package batteries

import (
	"fmt"
	"strconv"

	"github.com/markusressel/battctl/internal/backend"
)

// TpacpiControl drives a battery through the tpacpi-bat vendor tool.
// Batteries are addressed by index, field tags are ST (start threshold),
// SP (stop threshold) and FD (force discharge).
type TpacpiControl struct {
	Bat  Battery
	Call backend.CallFunc
}

func (c *TpacpiControl) index() (string, error) {
	if c.Bat.Index <= 0 {
		return "", fmt.Errorf("battery %s has no resolved tool index", c.Bat.Label)
	}
	return strconv.Itoa(c.Bat.Index), nil
}

func (c *TpacpiControl) ReadStart() (int, error) {
	return c.getField("ST")
}

func (c *TpacpiControl) ReadStop() (int, error) {
	return c.getField("SP")
}

func (c *TpacpiControl) WriteStart(value int) error {
	return c.setField("ST", value)
}

func (c *TpacpiControl) WriteStop(value int) error {
	return c.setField("SP", value)
}

func (c *TpacpiControl) SetForceDischarge(on bool) error {
	value := 0
	if on {
		value = 1
	}
	return c.setField("FD", value)
}

func (c *TpacpiControl) ForceDischargeActive() (bool, error) {
	value, err := c.getField("FD")
	if err != nil {
		return false, err
	}
	return value == 1, nil
}

func (c *TpacpiControl) getField(field string) (int, error) {
	index, err := c.index()
	if err != nil {
		return 0, err
	}
	out, err := c.Call("-g", field, index)
	if err != nil {
		return 0, fmt.Errorf("battery %s get %s: %w", c.Bat.Label, field, err)
	}
	return backend.ParseTpacpiValue(out)
}

func (c *TpacpiControl) setField(field string, value int) error {
	index, err := c.index()
	if err != nil {
		return err
	}
	_, err = c.Call("-s", field, index, strconv.Itoa(value))
	if err != nil {
		return fmt.Errorf("battery %s set %s=%d: %w", c.Bat.Label, field, value, err)
	}
	return nil
}

// ReadTelemetry is best-effort only: the tool has no telemetry protocol
// beyond the discharge flag, so callers treat -1 fields as unavailable.
func (c *TpacpiControl) ReadTelemetry() (Telemetry, error) {
	telemetry := Telemetry{
		VoltageMilliVolt: -1,
		Percent:          -1,
		PowerMilliWatt:   -1,
		RemainingMinutes: -1,
		Status:           "unknown",
	}

	active, err := c.ForceDischargeActive()
	if err != nil {
		return telemetry, err
	}
	if active {
		telemetry.Status = "discharging"
	}
	return telemetry, nil
}
