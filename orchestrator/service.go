package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/izavyalov-dev/e2e-runner/internal/observability"
	"github.com/izavyalov-dev/e2e-runner/planner"
	"github.com/izavyalov-dev/e2e-runner/protocol"
	"github.com/izavyalov-dev/e2e-runner/runner"
	"github.com/izavyalov-dev/e2e-runner/state"
)

// Options carries optional collaborators; zero values fall back to defaults.
type Options struct {
	IDs       IDGenerator
	Publisher ReportPublisher
	Analyzer  FailureAnalyzer
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Service runs tagged test selections and collects their reports.
type Service struct {
	store     *state.Store
	planner   planner.Planner
	invoker   runner.Invoker
	ids       IDGenerator
	publisher ReportPublisher
	analyzer  FailureAnalyzer
	metrics   *observability.Metrics
	logger    *slog.Logger
}

// NewService constructs a run service with sensible defaults.
func NewService(store *state.Store, plan planner.Planner, invoker runner.Invoker, opts Options) *Service {
	if opts.IDs == nil {
		opts.IDs = TimestampIDGenerator{}
	}
	if opts.Publisher == nil {
		opts.Publisher = NoopReportPublisher{}
	}
	if opts.Analyzer == nil {
		opts.Analyzer = NoopFailureAnalyzer{}
	}
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger("orchestrator")
	}
	return &Service{
		store:     store,
		planner:   plan,
		invoker:   invoker,
		ids:       opts.IDs,
		publisher: opts.Publisher,
		analyzer:  opts.Analyzer,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
	}
}

// IsValidationError reports whether err was caused by the caller's input.
func IsValidationError(err error) bool {
	return errors.Is(err, planner.ErrEmptyTestIDs) || errors.Is(err, planner.ErrInvalidTestID)
}

// Run executes the tests tagged with req.TestIDs and waits for the tool to exit.
// Test failures are reported through the result status, not the error; the
// error is reserved for invalid input and local failures before launch.
func (s *Service) Run(ctx context.Context, req protocol.RunRequest) (protocol.RunResult, error) {
	if err := planner.ValidateTestIDs(req.TestIDs); err != nil {
		return protocol.RunResult{}, err
	}

	runID := s.ids.RunID()
	logger := observability.WithTests(observability.WithRun(s.logger, runID), req.TestIDs)

	report, err := s.store.Create(runID)
	if err != nil {
		return protocol.RunResult{}, fmt.Errorf("prepare report dir: %w", err)
	}

	plan, err := s.planner.Plan(ctx, planner.PlanRequest{
		RunID:   runID,
		TestIDs: req.TestIDs,
		Report:  report,
	})
	if err != nil {
		return protocol.RunResult{}, fmt.Errorf("plan run: %w", err)
	}

	logger.Info("run started", "event", "run_started", "command", strings.Join(plan.Args, " "))

	// A caller hanging up does not abort the run; the invoker's timeout bounds it.
	runCtx := context.WithoutCancel(ctx)
	done := s.metrics.RunStarted()
	outcome, err := s.invoker.Invoke(runCtx, runner.Invocation{
		RunID:      runID,
		Args:       plan.Args,
		Env:        plan.Env,
		OutputPath: report.OutputPath,
	})
	done()
	if err != nil {
		s.metrics.IncFailure(string(FailureCategoryTooling))
		return protocol.RunResult{}, fmt.Errorf("invoke test tool: %w", err)
	}

	status := statusFor(outcome)
	s.metrics.ObserveRunDuration(string(status), outcome.Duration)
	s.metrics.IncRun(string(status))
	logger.Info("run finished", "event", "run_finished",
		"status", status,
		"exit_code", outcome.ExitCode,
		"duration_ms", outcome.Duration.Milliseconds(),
		"error_output_truncated", outcome.ErrorTruncated,
	)

	resultJSON := s.readResults(runID, logger)
	s.explainFailure(runCtx, logger, FailureInput{
		RunID:       runID,
		TestIDs:     req.TestIDs,
		Status:      status,
		ExitCode:    outcome.ExitCode,
		ErrorOutput: outcome.ErrorOutput,
	})
	s.publish(runCtx, logger, report)

	executed := make([]string, len(req.TestIDs))
	copy(executed, req.TestIDs)

	return protocol.RunResult{
		Status:        status,
		RunID:         runID,
		ExecutedTests: executed,
		ErrorOutput:   outcome.ErrorOutput,
		ReportURL:     state.ReportURL(runID),
		ResultJSON:    resultJSON,
	}, nil
}

func statusFor(outcome runner.Outcome) protocol.RunStatus {
	switch {
	case outcome.TimedOut:
		return protocol.RunStatusTimeout
	case outcome.Succeeded():
		return protocol.RunStatusPassed
	default:
		return protocol.RunStatusFailed
	}
}

func (s *Service) readResults(runID string, logger *slog.Logger) json.RawMessage {
	raw, err := s.store.ReadResults(runID)
	switch {
	case err == nil:
		return raw
	case errors.Is(err, state.ErrNotFound):
		logger.Debug("json report missing", "event", "report_missing")
		s.metrics.IncReportError("missing")
	default:
		logger.Warn("json report unreadable", "event", "report_parse_failed", "error", err)
		s.metrics.IncReportError("parse")
	}
	return nil
}

func (s *Service) explainFailure(ctx context.Context, logger *slog.Logger, input FailureInput) {
	explanation, err := s.analyzer.Analyze(ctx, input)
	if err != nil {
		logger.Warn("failure analysis failed", "event", "failure_analysis_failed", "error", err)
		return
	}
	if explanation == nil {
		return
	}
	s.metrics.IncFailure(string(explanation.Category))
	logger.Info("run failure classified", "event", "run_failure_classified",
		"category", explanation.Category,
		"confidence", explanation.Confidence,
		"summary", explanation.Summary,
		"details", explanation.Details,
	)
}

func (s *Service) publish(ctx context.Context, logger *slog.Logger, report state.ReportDir) {
	uris, err := s.publisher.PublishReport(ctx, report.RunID, report.Path)
	if err != nil {
		logger.Warn("report publish failed", "event", "report_publish_failed", "error", err)
		s.metrics.IncReportError("publish")
		return
	}
	if len(uris) > 0 {
		logger.Info("report published", "event", "report_published", "objects", len(uris))
	}
}
