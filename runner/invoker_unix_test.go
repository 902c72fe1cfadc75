//go:build unix

package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestProcessInvokerTimeoutKillsProcessGroup(t *testing.T) {
	dir := t.TempDir()
	invoker := NewProcessInvoker(ProcessConfig{
		Workdir:   dir,
		Timeout:   300 * time.Millisecond,
		WaitDelay: 5 * time.Second,
	})

	start := time.Now()
	outcome, err := invoker.Invoke(context.Background(), Invocation{
		Args: []string{"sh", "-c", `sleep 30 & echo $! > child.pid; wait`},
	})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if !outcome.TimedOut {
		t.Fatalf("expected timeout, got %+v", outcome)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("invoke waited on orphaned output pipes: %s", elapsed)
	}

	data, err := os.ReadFile(filepath.Join(dir, "child.pid"))
	if err != nil {
		t.Fatalf("read child pid: %v", err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		t.Fatalf("parse child pid: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for processAlive(pid) {
		if time.Now().After(deadline) {
			t.Fatalf("child process %d survived the timeout", pid)
		}
		time.Sleep(20 * time.Millisecond)
	}
}

// processAlive treats zombies as dead; the orphan is reaped by whoever
// adopted it, not by this test.
func processAlive(pid int) bool {
	if stat, err := os.ReadFile(filepath.Join("/proc", strconv.Itoa(pid), "stat")); err == nil {
		if i := strings.LastIndexByte(string(stat), ')'); i >= 0 && i+2 < len(stat) {
			return stat[i+2] != 'Z'
		}
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
