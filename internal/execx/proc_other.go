//go:build !unix

package execx

import "os/exec"

// setProcessGroup is a no-op on platforms without process groups.
func setProcessGroup(_ *exec.Cmd) {}

// killProcessGroup kills only the direct child on platforms without
// process groups.
func killProcessGroup(cmd *exec.Cmd) {
	if cmd.Process != nil {
		_ = cmd.Process.Kill()
	}
}
