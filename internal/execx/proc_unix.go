//go:build unix

package execx

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// setProcessGroup puts the child in its own process group so the whole group
// can be terminated on timeout, including grandchildren like ssh helpers.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// killProcessGroup force-kills the command's process group. Falls back to
// killing just the process when the group cannot be signaled.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pgid, err := unix.Getpgid(cmd.Process.Pid)
	if err == nil {
		if unix.Kill(-pgid, unix.SIGKILL) == nil {
			return
		}
	}
	_ = cmd.Process.Kill()
}
