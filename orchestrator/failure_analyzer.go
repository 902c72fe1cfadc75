package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/acarl005/stripansi"

	"github.com/izavyalov-dev/e2e-runner/protocol"
)

const (
	defaultMaxFailureSummaryLen = 160
	defaultMaxFailureDetailsLen = 512
)

type FailureCategory string

const (
	FailureCategoryTimeout FailureCategory = "timeout"
	FailureCategoryInfra   FailureCategory = "infra"
	FailureCategoryTooling FailureCategory = "tooling"
	FailureCategoryTest    FailureCategory = "test"
)

type FailureConfidence string

const (
	FailureConfidenceLow    FailureConfidence = "low"
	FailureConfidenceMedium FailureConfidence = "medium"
	FailureConfidenceHigh   FailureConfidence = "high"
)

// FailureInput captures what is known about a finished run.
type FailureInput struct {
	RunID       string
	TestIDs     []string
	Status      protocol.RunStatus
	ExitCode    int
	ErrorOutput string
}

// FailureExplanation is a short classification of why a run did not pass.
type FailureExplanation struct {
	Category   FailureCategory
	Confidence FailureConfidence
	Summary    string
	Details    string
}

// FailureAnalyzer produces a failure explanation for a run.
type FailureAnalyzer interface {
	Analyze(ctx context.Context, input FailureInput) (*FailureExplanation, error)
}

// NoopFailureAnalyzer disables failure analysis.
type NoopFailureAnalyzer struct{}

func (NoopFailureAnalyzer) Analyze(ctx context.Context, input FailureInput) (*FailureExplanation, error) {
	return nil, nil
}

// RuleBasedFailureAnalyzer classifies failures via simple heuristics.
type RuleBasedFailureAnalyzer struct {
	MaxSummaryLen int
	MaxDetailsLen int
}

// NewRuleBasedFailureAnalyzer returns a default rule-based analyzer.
func NewRuleBasedFailureAnalyzer() *RuleBasedFailureAnalyzer {
	return &RuleBasedFailureAnalyzer{
		MaxSummaryLen: defaultMaxFailureSummaryLen,
		MaxDetailsLen: defaultMaxFailureDetailsLen,
	}
}

func (a *RuleBasedFailureAnalyzer) Analyze(ctx context.Context, input FailureInput) (*FailureExplanation, error) {
	if input.RunID == "" {
		return nil, fmt.Errorf("run id required for failure analysis")
	}
	if input.Status == protocol.RunStatusPassed {
		return nil, nil
	}

	output := sanitizeText(stripansi.Strip(input.ErrorOutput), 0)
	category, confidence, concise := classifyFailure(input.Status, output, input.ExitCode)

	return &FailureExplanation{
		Category:   category,
		Confidence: confidence,
		Summary:    concise,
		Details:    buildFailureDetails(input, truncateText(output, a.MaxSummaryLen), a.MaxDetailsLen),
	}, nil
}

func classifyFailure(status protocol.RunStatus, output string, exitCode int) (FailureCategory, FailureConfidence, string) {
	lower := strings.ToLower(output)

	switch {
	case status == protocol.RunStatusTimeout:
		return FailureCategoryTimeout, FailureConfidenceHigh, "Test run exceeded the configured timeout."
	case containsAny(lower, "failed to start test tool", "executable file not found", "command not found", "could not determine executable to run"):
		return FailureCategoryTooling, FailureConfidenceHigh, fmt.Sprintf("Test tool could not be started (exit code %d).", exitCode)
	case containsAny(lower, "executable doesn't exist", "please run the following command to download new browsers", "browsertype.launch"):
		return FailureCategoryTooling, FailureConfidenceHigh, fmt.Sprintf("Browser binaries are missing (exit code %d).", exitCode)
	case containsAny(lower, "net::err_", "econnrefused", "connection refused", "enotfound", "getaddrinfo"):
		return FailureCategoryInfra, FailureConfidenceHigh, fmt.Sprintf("Application under test was unreachable (exit code %d).", exitCode)
	case containsAny(lower, "out of memory", "no space", "signal: killed", "killed"):
		return FailureCategoryInfra, FailureConfidenceMedium, fmt.Sprintf("Resource exhaustion detected (exit code %d).", exitCode)
	case containsAny(lower, "no tests found"):
		return FailureCategoryTooling, FailureConfidenceMedium, fmt.Sprintf("Filter matched no tests (exit code %d).", exitCode)
	case containsAny(lower, "expect(", "timed out", "timeout", "locator."):
		return FailureCategoryTest, FailureConfidenceMedium, fmt.Sprintf("Test assertions failed (exit code %d).", exitCode)
	default:
		return FailureCategoryTest, FailureConfidenceLow, fmt.Sprintf("Test run failed (exit code %d).", exitCode)
	}
}

func buildFailureDetails(input FailureInput, summary string, maxLen int) string {
	details := ""
	if summary != "" {
		details = appendDetail(details, "Observed: "+summary, maxLen)
	}
	if input.ExitCode != 0 {
		details = appendDetail(details, fmt.Sprintf("Exit code: %d", input.ExitCode), maxLen)
	}
	if len(input.TestIDs) > 0 {
		details = appendDetail(details, "Tests: "+strings.Join(input.TestIDs, ","), maxLen)
	}
	return details
}

func appendDetail(existing, next string, maxLen int) string {
	next = strings.TrimSpace(next)
	if next == "" {
		return existing
	}
	if existing == "" {
		return truncateText(next, maxLen)
	}
	combined := existing + " | " + next
	return truncateText(combined, maxLen)
}

func sanitizeText(value string, maxLen int) string {
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.TrimSpace(value)
	value = strings.Join(strings.Fields(value), " ")
	return truncateText(value, maxLen)
}

func truncateText(value string, maxLen int) string {
	if maxLen <= 0 || len(value) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return value[:runeBoundary(value, maxLen)]
	}
	return value[:runeBoundary(value, maxLen-3)] + "..."
}

// runeBoundary moves cut back to the start of the rune it falls in.
func runeBoundary(value string, cut int) int {
	for cut > 0 && cut < len(value) && !utf8.RuneStart(value[cut]) {
		cut--
	}
	return cut
}

func containsAny(value string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(value, needle) {
			return true
		}
	}
	return false
}
