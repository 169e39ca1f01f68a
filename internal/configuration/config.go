package configuration

import (
	"os"

	"github.com/markusressel/battctl/internal/ui"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

type Configuration struct {
	DbPath string `json:"dbPath"`

	// IgnoredBatteryPattern filters out atypical power_supply units
	// (docked peripherals, wireless input devices) during enumeration.
	IgnoredBatteryPattern string `json:"ignoredBatteryPattern"`

	Natacpi BackendConfig `json:"natacpi"`
	Tpacpi  BackendConfig `json:"tpacpi"`
	Tpsmapi BackendConfig `json:"tpsmapi"`

	Thresholds []ThresholdConfig `json:"thresholds"`
}

type BackendConfig struct {
	Enable bool `json:"enable"`
}

// ThresholdConfig is a per-battery charge threshold target pair.
// A value of 0 (or "default") selects the factory default of the backend.
type ThresholdConfig struct {
	Battery string         `json:"battery"`
	Start   ThresholdValue `json:"start"`
	Stop    ThresholdValue `json:"stop"`
}

var CurrentConfig Configuration

// InitConfig reads in config file and ENV variables if set.
func InitConfig(cfgFile string) {
	viper.SetConfigName("battctl")

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			ui.Error("Couldn't detect home directory: %v", err)
			os.Exit(1)
		}

		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.AddConfigPath("/etc/battctl/")
	}

	viper.AutomaticEnv() // read in environment variables that match

	setDefaultValues()
}

func setDefaultValues() {
	viper.SetDefault("dbpath", "/var/lib/battctl/battctl.db")
	viper.SetDefault("ignoredBatteryPattern", DefaultIgnoredBatteryPattern)
	viper.SetDefault("natacpi.enable", true)
	viper.SetDefault("tpacpi.enable", true)
	viper.SetDefault("tpsmapi.enable", true)
	viper.SetDefault("thresholds", []ThresholdConfig{})
}

// DetectConfigFile returns the path of the config file that viper would
// use, which may be empty if none exists.
func DetectConfigFile() string {
	// config file is optional: all backends default to enabled and
	// thresholds can be passed on the command line
	_ = viper.ReadInConfig()
	return viper.ConfigFileUsed()
}

func LoadConfig() {
	err := viper.Unmarshal(&CurrentConfig, viper.DecodeHook(thresholdValueHookFunc()))
	if err != nil {
		ui.Fatal("unable to decode into struct, %v", err)
	}
}
