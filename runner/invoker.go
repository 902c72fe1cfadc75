package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const defaultWaitDelay = 10 * time.Second

// Invocation is one execution of the test tool.
type Invocation struct {
	RunID      string
	Args       []string
	Env        map[string]string
	OutputPath string // combined stdout/stderr log; empty discards stdout
}

// Outcome is what the invoker observed once the process is gone.
type Outcome struct {
	ExitCode       int
	ErrorOutput    string
	ErrorTruncated bool
	TimedOut       bool
	Duration       time.Duration
	StartedAt      time.Time
	FinishedAt     time.Time
	LaunchError    error
}

// Succeeded reports whether the tool exited cleanly.
func (o Outcome) Succeeded() bool {
	return o.LaunchError == nil && !o.TimedOut && o.ExitCode == 0
}

// Invoker runs the external test tool.
type Invoker interface {
	Invoke(ctx context.Context, inv Invocation) (Outcome, error)
}

// ProcessConfig configures ProcessInvoker.
type ProcessConfig struct {
	Workdir        string
	Timeout        time.Duration
	MaxErrorOutput int
	WaitDelay      time.Duration
}

// ProcessInvoker starts the test tool as a child process.
type ProcessInvoker struct {
	cfg ProcessConfig
}

func NewProcessInvoker(cfg ProcessConfig) *ProcessInvoker {
	if cfg.Workdir == "" {
		cfg.Workdir = "."
	}
	if cfg.WaitDelay <= 0 {
		cfg.WaitDelay = defaultWaitDelay
	}
	return &ProcessInvoker{cfg: cfg}
}

// Invoke runs inv to completion or until the configured timeout. The returned
// error is reserved for local setup failures; anything the child process does,
// including failing to start, is reported through Outcome.
func (p *ProcessInvoker) Invoke(ctx context.Context, inv Invocation) (Outcome, error) {
	if len(inv.Args) == 0 {
		return Outcome{}, errors.New("invocation has no command")
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	stdout := io.Discard
	stderr := newTailBuffer(p.cfg.MaxErrorOutput)
	var errWriter io.Writer = stderr
	if inv.OutputPath != "" {
		logFile, err := os.Create(filepath.Clean(inv.OutputPath))
		if err != nil {
			return Outcome{}, fmt.Errorf("open output log: %w", err)
		}
		defer logFile.Close()
		stdout = logFile
		errWriter = io.MultiWriter(stderr, logFile)
	}

	cmd := newCommand(ctx, inv.Args)
	cmd.Dir = p.cfg.Workdir
	cmd.Env = mergeEnv(os.Environ(), inv.Env, envNamesFoldCase)
	cmd.Stdout = stdout
	cmd.Stderr = errWriter
	cmd.WaitDelay = p.cfg.WaitDelay

	outcome := Outcome{StartedAt: time.Now().UTC()}
	runErr := cmd.Run()
	outcome.FinishedAt = time.Now().UTC()
	outcome.Duration = outcome.FinishedAt.Sub(outcome.StartedAt)

	switch {
	case runErr == nil:
		outcome.ExitCode = 0
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		outcome.TimedOut = true
		outcome.ExitCode = exitCode(runErr)
		fmt.Fprintf(stderr, "\ntest run exceeded timeout of %s and was terminated\n", p.cfg.Timeout)
	case isExitError(runErr):
		outcome.ExitCode = exitCode(runErr)
	default:
		// The process never started: binary missing, bad workdir, ...
		outcome.ExitCode = -1
		outcome.LaunchError = runErr
		fmt.Fprintf(stderr, "failed to start test tool: %v\n", runErr)
	}

	outcome.ErrorOutput = stderr.String()
	outcome.ErrorTruncated = stderr.Truncated()
	return outcome, nil
}

// shellCommandLine is the full cmd.exe command line for args. With /s cmd.exe
// strips only the outer quotes, so quoted arguments inside reach the tool intact.
func shellCommandLine(args []string) string {
	return `cmd.exe /d /s /c "` + strings.Join(args, " ") + `"`
}

// mergeEnv overlays extra onto base. foldCase matches names case-insensitively,
// as the windows environment does.
func mergeEnv(base []string, extra map[string]string, foldCase bool) []string {
	if len(extra) == 0 {
		return base
	}
	normalize := func(name string) string {
		if foldCase {
			return strings.ToUpper(name)
		}
		return name
	}
	keys := make([]string, 0, len(extra))
	overridden := make(map[string]struct{}, len(extra))
	for key := range extra {
		keys = append(keys, key)
		overridden[normalize(key)] = struct{}{}
	}
	sort.Strings(keys)

	env := make([]string, 0, len(base)+len(extra))
	for _, kv := range base {
		name, _, _ := strings.Cut(kv, "=")
		if _, ok := overridden[normalize(name)]; ok {
			continue
		}
		env = append(env, kv)
	}
	for _, key := range keys {
		env = append(env, key+"="+extra[key])
	}
	return env
}

func isExitError(err error) bool {
	var ee *exec.ExitError
	return errors.As(err, &ee)
}

func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return 1
}
