package planner

import (
	"context"
	"errors"
	"runtime"

	"github.com/izavyalov-dev/e2e-runner/state"
)

// Planner turns a test selection into a concrete command line.
type Planner interface {
	Plan(ctx context.Context, req PlanRequest) (PlanResult, error)
}

// PlanRequest contains the context needed to build the invocation.
type PlanRequest struct {
	RunID   string
	TestIDs []string
	Report  state.ReportDir
}

// PlanResult is the outcome of the planning step.
type PlanResult struct {
	Filter string
	Args   []string
	Env    map[string]string
}

// CommandPlanner builds Playwright invocations. Command is the argv prefix,
// e.g. ["npx", "playwright", "test"].
type CommandPlanner struct {
	Command []string
	GOOS    string
}

// NewCommandPlanner returns a planner for the current platform.
func NewCommandPlanner(command []string) CommandPlanner {
	return CommandPlanner{Command: command, GOOS: runtime.GOOS}
}

func (p CommandPlanner) Plan(ctx context.Context, req PlanRequest) (PlanResult, error) {
	if len(p.Command) == 0 {
		return PlanResult{}, errors.New("test command is empty")
	}
	if err := ValidateTestIDs(req.TestIDs); err != nil {
		return PlanResult{}, err
	}

	filter := BuildFilter(req.TestIDs, p.GOOS)

	args := make([]string, 0, len(p.Command)+4)
	args = append(args, p.Command...)
	args = append(args, "--grep", filter, "--reporter", "html,json")

	// Both the current and the pre-1.46 variable names are set so older
	// Playwright versions write to the same place.
	env := map[string]string{
		"PLAYWRIGHT_JSON_OUTPUT_FILE": req.Report.ResultsPath,
		"PLAYWRIGHT_JSON_OUTPUT_NAME": req.Report.ResultsPath,
		"PLAYWRIGHT_HTML_OUTPUT_DIR":  req.Report.Path,
		"PLAYWRIGHT_HTML_REPORT":      req.Report.Path,
		"PLAYWRIGHT_HTML_OPEN":        "never",
		"CI":                          "true",
	}

	return PlanResult{
		Filter: filter,
		Args:   args,
		Env:    env,
	}, nil
}
