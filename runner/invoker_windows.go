//go:build windows

package runner

import (
	"context"
	"os/exec"
	"strconv"
	"syscall"
)

const envNamesFoldCase = true

// newCommand runs args through cmd.exe, since npx and friends are batch
// scripts. The command line is built by hand: cmd.exe does not follow the
// argv escaping rules os/exec applies. A timeout kills the whole tree.
func newCommand(ctx context.Context, args []string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "cmd.exe")
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: shellCommandLine(args)}
	cmd.Cancel = func() error {
		kill := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := kill.Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
	return cmd
}
