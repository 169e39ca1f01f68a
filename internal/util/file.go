package util

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// CheckFilePermissionsForExecution checks whether the given filePath owner, group and permissions
// are safe to use this file for execution by battctl.
func CheckFilePermissionsForExecution(filePath string) (bool, error) {
	var file = filePath

	file, err := filepath.EvalSymlinks(file)
	if err != nil {
		return false, err
	}

	info, err := os.Stat(file)
	if os.IsNotExist(err) {
		return false, errors.New("file not found")
	}

	stat := info.Sys().(*syscall.Stat_t)
	if stat.Uid != 0 {
		return false, errors.New("owner is not root")
	}

	if stat.Gid != 0 {
		mode := info.Mode()
		groupWrite := mode & (os.FileMode(0o020))
		if groupWrite != 0 {
			return false, errors.New("group is not root but has write permission")
		}
	}

	otherWrite := info.Mode() & (os.FileMode(0o002))
	if otherWrite != 0 {
		return false, errors.New("others have write permission")
	}

	return true, nil
}

func ReadIntFromFile(path string) (value int, err error) {
	text, err := ReadStringFromFile(path)
	if err != nil {
		return -1, err
	}
	value, err = strconv.Atoi(text)
	return value, err
}

// ReadStringFromFile reads a sysfs attribute as a single trimmed line.
func ReadStringFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	text := string(data)
	if len(text) <= 0 {
		return "", fmt.Errorf("file is empty: %s", path)
	}
	return strings.TrimSpace(text), nil
}

// WriteIntToFile writes a single integer to a file path.
// Sysfs attributes must be written in place, a rename-based atomic write
// does not work there.
func WriteIntToFile(value int, path string) error {
	return WriteStringToFile(strconv.Itoa(value), path)
}

func WriteStringToFile(value string, path string) error {
	evaluatedPath, err := resolvePath(path)
	if len(evaluatedPath) > 0 && err == nil {
		path = evaluatedPath
	}

	return os.WriteFile(path, []byte(value), 0644)
}

func resolvePath(path string) (string, error) {
	return filepath.EvalSymlinks(path)
}

// FileExists reports whether path exists, without following through on
// read permission.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// FileReadable reports whether path exists and a read actually succeeds.
// Firmware may expose attribute files that fail on read, so a bare
// existence check is not sufficient.
func FileReadable(path string) bool {
	_, err := os.ReadFile(path)
	return err == nil
}
