//go:build !unix && !windows

package runner

import (
	"context"
	"os/exec"
)

const envNamesFoldCase = false

func newCommand(ctx context.Context, args []string) *exec.Cmd {
	return exec.CommandContext(ctx, args[0], args[1:]...)
}
