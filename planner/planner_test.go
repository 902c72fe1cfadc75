package planner

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/izavyalov-dev/e2e-runner/state"
)

func TestCommandPlannerPlan(t *testing.T) {
	p := CommandPlanner{Command: []string{"npx", "playwright", "test"}, GOOS: "linux"}
	report := state.ReportDir{
		RunID:       "run",
		Path:        "/reports/run",
		ResultsPath: "/reports/run/results.json",
	}

	result, err := p.Plan(context.Background(), PlanRequest{
		RunID:   "run",
		TestIDs: []string{"AUTH-001", "AUTH-002"},
		Report:  report,
	})
	if err != nil {
		t.Fatalf("plan: %v", err)
	}

	wantArgs := []string{"npx", "playwright", "test", "--grep", `@(?:AUTH-001|AUTH-002)(?![\w-])`, "--reporter", "html,json"}
	if !reflect.DeepEqual(result.Args, wantArgs) {
		t.Fatalf("unexpected args: %v", result.Args)
	}
	if result.Filter != wantArgs[4] {
		t.Fatalf("unexpected filter: %s", result.Filter)
	}
	if result.Env["PLAYWRIGHT_JSON_OUTPUT_FILE"] != report.ResultsPath {
		t.Fatalf("json output not routed to report dir: %v", result.Env)
	}
	if result.Env["PLAYWRIGHT_HTML_OUTPUT_DIR"] != report.Path {
		t.Fatalf("html output not routed to report dir: %v", result.Env)
	}
	if result.Env["PLAYWRIGHT_HTML_OPEN"] != "never" {
		t.Fatalf("html report must not open a browser: %v", result.Env)
	}
}

func TestCommandPlannerRejectsBadInput(t *testing.T) {
	p := CommandPlanner{Command: []string{"npx", "playwright", "test"}, GOOS: "linux"}
	if _, err := p.Plan(context.Background(), PlanRequest{}); !errors.Is(err, ErrEmptyTestIDs) {
		t.Fatalf("expected empty ids error, got %v", err)
	}
	if _, err := p.Plan(context.Background(), PlanRequest{TestIDs: []string{"x y"}}); !errors.Is(err, ErrInvalidTestID) {
		t.Fatalf("expected invalid id error, got %v", err)
	}

	empty := CommandPlanner{GOOS: "linux"}
	if _, err := empty.Plan(context.Background(), PlanRequest{TestIDs: []string{"AUTH-001"}}); err == nil {
		t.Fatal("expected error for empty command")
	}
}
