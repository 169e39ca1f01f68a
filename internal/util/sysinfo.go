package util

import (
	"strconv"
	"strings"
)

const (
	osReleasePath      = "/proc/sys/kernel/osrelease"
	dmiProductVersion  = "/sys/class/dmi/id/product_version"
	thinkpadDmiPattern = "thinkpad"
)

// KernelVersion returns the major and minor version of the running kernel.
func KernelVersion() (major int, minor int, err error) {
	return kernelVersionAt(osReleasePath)
}

func kernelVersionAt(path string) (major int, minor int, err error) {
	release, err := ReadStringFromFile(path)
	if err != nil {
		return 0, 0, err
	}
	parts := strings.SplitN(release, ".", 3)
	major, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	if len(parts) > 1 {
		// strip any "-rc1" style suffix
		minorText := strings.SplitN(parts[1], "-", 2)[0]
		minor, err = strconv.Atoi(minorText)
		if err != nil {
			return major, 0, err
		}
	}
	return major, minor, nil
}

// KernelAtLeast reports whether the running kernel is at least major.minor.
// An unreadable version reports false.
func KernelAtLeast(major int, minor int) bool {
	haveMajor, haveMinor, err := KernelVersion()
	if err != nil {
		return false
	}
	return versionAtLeast(haveMajor, haveMinor, major, minor)
}

func versionAtLeast(haveMajor, haveMinor, wantMajor, wantMinor int) bool {
	if haveMajor != wantMajor {
		return haveMajor > wantMajor
	}
	return haveMinor >= wantMinor
}

// IsThinkPad reports whether the machine identifies as a ThinkPad via DMI.
func IsThinkPad() bool {
	return isThinkPadAt(dmiProductVersion)
}

func isThinkPadAt(path string) bool {
	version, err := ReadStringFromFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(strings.ToLower(version), thinkpadDmiPattern)
}

// ProductVersion returns the DMI product version, e.g. "ThinkPad X220",
// or "" if unreadable.
func ProductVersion() string {
	version, err := ReadStringFromFile(dmiProductVersion)
	if err != nil {
		return ""
	}
	return version
}
