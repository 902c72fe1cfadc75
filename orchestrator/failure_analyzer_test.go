package orchestrator

import (
	"context"
	"strings"
	"testing"

	"github.com/izavyalov-dev/e2e-runner/protocol"
)

func TestRuleBasedFailureAnalyzerSkipsPassedRuns(t *testing.T) {
	analyzer := NewRuleBasedFailureAnalyzer()
	explanation, err := analyzer.Analyze(context.Background(), FailureInput{
		RunID:  "run",
		Status: protocol.RunStatusPassed,
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if explanation != nil {
		t.Fatalf("expected no explanation, got %+v", explanation)
	}
}

func TestRuleBasedFailureAnalyzerRequiresRunID(t *testing.T) {
	if _, err := NewRuleBasedFailureAnalyzer().Analyze(context.Background(), FailureInput{}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestRuleBasedFailureAnalyzerStripsANSI(t *testing.T) {
	analyzer := NewRuleBasedFailureAnalyzer()
	explanation, err := analyzer.Analyze(context.Background(), FailureInput{
		RunID:       "run",
		TestIDs:     []string{"AUTH-001"},
		Status:      protocol.RunStatusFailed,
		ExitCode:    1,
		ErrorOutput: "\x1b[31mError: expect(received).toBeVisible()\x1b[39m\n",
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if explanation == nil {
		t.Fatal("expected explanation")
	}
	if explanation.Category != FailureCategoryTest {
		t.Fatalf("expected test category, got %s", explanation.Category)
	}
	if strings.Contains(explanation.Details, "\x1b[") {
		t.Fatalf("ansi codes leaked into details: %q", explanation.Details)
	}
	if !strings.Contains(explanation.Details, "Tests: AUTH-001") {
		t.Fatalf("missing tests detail: %s", explanation.Details)
	}
	if !strings.Contains(explanation.Details, "Exit code: 1") {
		t.Fatalf("missing exit code detail: %s", explanation.Details)
	}
}

func TestClassifyFailure(t *testing.T) {
	tests := []struct {
		name     string
		status   protocol.RunStatus
		output   string
		exitCode int
		category FailureCategory
	}{
		{"timeout status", protocol.RunStatusTimeout, "", -1, FailureCategoryTimeout},
		{"missing tool", protocol.RunStatusFailed, "failed to start test tool: exec: \"npx\": executable file not found in $PATH", -1, FailureCategoryTooling},
		{"missing browsers", protocol.RunStatusFailed, "browserType.launch: Executable doesn't exist at /ms-playwright/chromium", 1, FailureCategoryTooling},
		{"app unreachable", protocol.RunStatusFailed, "page.goto: net::ERR_CONNECTION_REFUSED at https://www.saucedemo.com", 1, FailureCategoryInfra},
		{"no tests", protocol.RunStatusFailed, "Error: No tests found", 1, FailureCategoryTooling},
		{"assertion", protocol.RunStatusFailed, "expect(locator).toHaveText(expected)", 1, FailureCategoryTest},
		{"unknown", protocol.RunStatusFailed, "", 2, FailureCategoryTest},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			category, _, summary := classifyFailure(tc.status, tc.output, tc.exitCode)
			if category != tc.category {
				t.Fatalf("expected %s, got %s (%s)", tc.category, category, summary)
			}
			if summary == "" {
				t.Fatal("expected summary")
			}
		})
	}
}

func TestTruncateText(t *testing.T) {
	if got := truncateText("abcdefgh", 6); got != "abc..." {
		t.Fatalf("unexpected truncation: %q", got)
	}
	if got := truncateText("✘ a › b", 6); got != "✘..." {
		t.Fatalf("expected cut on a rune boundary, got %q", got)
	}
	if got := truncateText("››››", 2); got != "" {
		t.Fatalf("expected empty cut inside the first rune, got %q", got)
	}
	if got := truncateText("abc", 0); got != "abc" {
		t.Fatalf("expected no truncation, got %q", got)
	}
}
