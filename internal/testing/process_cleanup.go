package testing

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
)

// staleTorPattern matches the command line of tor instances this package
// starts, their torrc lives in a stem-test-* data directory.
const staleTorPattern = "tor.*-f.*stem-test-"

// CleanupStaleTorTestProcesses terminates tor instances left behind by
// earlier runs that were interrupted before they could stop them. Failures
// are logged, never returned.
func CleanupStaleTorTestProcesses(logger TestLogger) int {
	return cleanupStaleProcesses(logger, findStaleTorProcesses, terminateProcess)
}

func cleanupStaleProcesses(logger TestLogger, find func() ([]int, error), terminate func(pid int) error) int {
	pids, err := find()
	if err != nil {
		logger.Debug("Could not check for stale tor processes: %v\n", err)
		return 0
	}
	if len(pids) == 0 {
		logger.Debug("No stale tor test processes found\n")
		return 0
	}

	currentPID := os.Getpid()
	killed := 0
	for _, pid := range pids {
		if pid == currentPID {
			continue
		}
		if err := terminate(pid); err != nil {
			// already gone
			logger.Debug("Could not send SIGTERM to PID %d: %v\n", pid, err)
			continue
		}
		killed++
		logger.Debug("Terminated stale tor test process PID %d\n", pid)
	}

	if killed > 0 {
		logger.Info("Cleaned up %d stale tor test process(es)\n", killed)
	}
	return killed
}

// findStaleTorProcesses lists matching pids with pgrep. No match is not an error.
func findStaleTorProcesses() ([]int, error) {
	out, err := exec.Command("pgrep", "-f", staleTorPattern).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return nil, nil
		}
		return nil, fmt.Errorf("pgrep failed: %w", err)
	}
	return parsePIDs(string(out)), nil
}

// parsePIDs reads one pid per line, ignoring anything that is not a number.
func parsePIDs(out string) []int {
	var pids []int
	for _, line := range strings.Split(out, "\n") {
		pid, err := strconv.Atoi(strings.TrimSpace(line))
		if err != nil || pid <= 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids
}

func terminateProcess(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	return process.Signal(syscall.SIGTERM)
}
