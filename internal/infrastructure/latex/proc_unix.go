//go:build unix

package latex

import (
	"errors"
	"os"
	"os/exec"
	"syscall"
)

// configureProcessGroup lanza el compilador en su propio grupo de procesos para
// que la cancelación alcance también a sus hijos.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return killGroup(cmd)
	}
}

func terminateProcessGroup(cmd *exec.Cmd) {
	_ = killGroup(cmd)
}

func killGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	if errors.Is(err, syscall.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}
