package util

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/markusressel/battctl/internal/ui"
)

// ToolInPath reports whether the given executable can be resolved via $PATH.
func ToolInPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

func SafeCmdExecution(executable string, args []string, timeout time.Duration) (string, error) {
	resolved, err := exec.LookPath(executable)
	if err != nil {
		return "", fmt.Errorf("executable not found: %s", executable)
	}

	if _, err := CheckFilePermissionsForExecution(resolved); err != nil {
		return "", errors.New(fmt.Sprintf("Cannot execute %s: %s", resolved, err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, resolved, args...)
	out, err := cmd.Output()

	if ctx.Err() == context.DeadlineExceeded {
		ui.Warning("Command timed out: %s", executable)
		return "", err
	}

	if err != nil {
		return "", err
	}

	strout := string(out)
	strout = strings.Trim(strout, "\n")

	return strout, nil
}
