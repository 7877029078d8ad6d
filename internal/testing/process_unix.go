//go:build !windows

package testing

import (
	"fmt"
	"os/exec"
	"syscall"
)

// configureProcAttr puts the process in its own process group so tor and
// anything it spawns can be signalled together.
func configureProcAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// killProcessGroup signals the process group led by pid, falling back to the
// process itself. Only use it while pid has not been reaped.
func killProcessGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err != nil {
		if err2 := syscall.Kill(pid, sig); err2 != nil {
			if err2 == syscall.ESRCH {
				return nil
			}
			return fmt.Errorf("failed to signal process group -%d: %v, also failed to signal process %d: %v", pid, err, pid, err2)
		}
	}
	return nil
}

// signalProcessGroup signals only the group led by pid. The leader's pid may
// already have been reused, so the process itself is never signalled.
func signalProcessGroup(pid int, sig syscall.Signal) error {
	if err := syscall.Kill(-pid, sig); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("failed to signal process group -%d: %v", pid, err)
	}
	return nil
}
