package configuration

import (
	"errors"
	"fmt"
	"regexp"
)

// DefaultIgnoredBatteryPattern matches power_supply units that are not
// standard laptop batteries (docked peripherals, wireless input devices).
const DefaultIgnoredBatteryPattern = `(?i)(dock|hid|wireless|wacom|keyboard|mouse)`

var batteryLabelPattern = regexp.MustCompile(`^(CMB|BAT)[0-9]+$`)

func Validate() error {
	return validateConfig(&CurrentConfig)
}

func validateConfig(config *Configuration) error {
	if _, err := regexp.Compile(config.IgnoredBatteryPattern); err != nil {
		return fmt.Errorf("ignoredBatteryPattern is not a valid regex: %w", err)
	}

	for _, threshold := range config.Thresholds {
		if threshold.Battery != "" && !batteryLabelPattern.MatchString(threshold.Battery) {
			return errors.New(fmt.Sprintf("Threshold config: invalid battery label %q, expected e.g. BAT0", threshold.Battery))
		}
		if threshold.Start < 0 || threshold.Start > 100 {
			return errors.New(fmt.Sprintf("Threshold config %s: start value %d outside 0..100", threshold.Battery, threshold.Start))
		}
		if threshold.Stop < 0 || threshold.Stop > 100 {
			return errors.New(fmt.Sprintf("Threshold config %s: stop value %d outside 0..100", threshold.Battery, threshold.Stop))
		}
	}

	return nil
}
