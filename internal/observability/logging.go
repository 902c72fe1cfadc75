package observability

import (
	"log/slog"
	"os"
	"strings"
)

// NewLogger returns a JSON logger with a component field attached.
func NewLogger(component string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler)
	if component != "" {
		logger = logger.With("component", component)
	}
	return logger
}

func WithRun(logger *slog.Logger, runID string) *slog.Logger {
	if logger == nil || runID == "" {
		return logger
	}
	return logger.With("run_id", runID)
}

// WithTests attaches the requested test ids as a single comma-separated field.
func WithTests(logger *slog.Logger, testIDs []string) *slog.Logger {
	if logger == nil || len(testIDs) == 0 {
		return logger
	}
	return logger.With("test_ids", strings.Join(testIDs, ","))
}
