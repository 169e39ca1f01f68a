package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/markusressel/battctl/internal/ui"
	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
)

var initPath string

const starterConfig = `# battctl configuration
# All backends are probed automatically, the enable flags only force one off.

natacpi:
  enable: true
tpacpi:
  enable: true
tpsmapi:
  enable: true

# power_supply units matching this pattern are never treated as batteries
#ignoredBatteryPattern: "(?i)(dock|hid|wireless|wacom|keyboard|mouse)"

# discharge session journal
dbPath: /var/lib/battctl/battctl.db

# per-battery targets for 'battctl apply'; 0 selects the factory default
thresholds:
  - battery: BAT0
    start: 75
    stop: 80
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long:  ``,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(initPath); err == nil {
			return fmt.Errorf("refusing to overwrite existing config at %s", initPath)
		}

		if err := os.MkdirAll(filepath.Dir(initPath), 0755); err != nil {
			return fmt.Errorf("unable to create config directory: %w", err)
		}
		if err := atomic.WriteFile(initPath, bytes.NewReader([]byte(starterConfig))); err != nil {
			return fmt.Errorf("unable to write config: %w", err)
		}

		ui.Success("Wrote starter config to %s", initPath)
		return nil
	},
}

func init() {
	initCmd.Flags().StringVarP(&initPath, "path", "p", "/etc/battctl/battctl.yaml", "Target path of the new config file")
	Command.AddCommand(initCmd)
}
