package util

import (
	"os"
	"strings"
)

// IsRunningInDocker checks for the marker file docker creates and falls
// back to the init process' cgroup for runtimes that don't create it
func IsRunningInDocker() bool {
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true
	}

	b, err := os.ReadFile("/proc/1/cgroup")
	if err != nil {
		return false
	}

	return strings.Contains(string(b), "docker")
}
