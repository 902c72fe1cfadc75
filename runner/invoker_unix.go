//go:build unix

package runner

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"syscall"
)

const envNamesFoldCase = false

// newCommand starts args in its own process group so a timeout kills the
// tool together with everything it spawned (node workers, browsers).
func newCommand(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		if errors.Is(err, syscall.ESRCH) {
			return os.ErrProcessDone
		}
		return err
	}
	return cmd
}
