package configuration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validTestConfig() Configuration {
	return Configuration{
		IgnoredBatteryPattern: DefaultIgnoredBatteryPattern,
		Natacpi:               BackendConfig{Enable: true},
		Tpacpi:                BackendConfig{Enable: true},
		Tpsmapi:               BackendConfig{Enable: true},
		Thresholds: []ThresholdConfig{
			{Battery: "BAT0", Start: 75, Stop: 80},
		},
	}
}

func TestValidateConfig(t *testing.T) {
	// GIVEN
	config := validTestConfig()

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.NoError(t, err)
}

func TestValidateConfig_InvalidPattern(t *testing.T) {
	// GIVEN
	config := validTestConfig()
	config.IgnoredBatteryPattern = "(unclosed"

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateConfig_InvalidBatteryLabel(t *testing.T) {
	// GIVEN
	config := validTestConfig()
	config.Thresholds[0].Battery = "battery0"

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateConfig_ThresholdOutOfRange(t *testing.T) {
	// GIVEN
	config := validTestConfig()
	config.Thresholds[0].Stop = 101

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.Error(t, err)
}

func TestValidateConfig_FactoryDefaultIsValid(t *testing.T) {
	// GIVEN
	config := validTestConfig()
	config.Thresholds[0].Start = FactoryDefault
	config.Thresholds[0].Stop = FactoryDefault

	// WHEN
	err := validateConfig(&config)

	// THEN
	assert.NoError(t, err)
}
