package orchestrator

import "context"

// ReportPublisher copies a finished run's report directory somewhere durable.
type ReportPublisher interface {
	PublishReport(ctx context.Context, runID, dir string) ([]string, error)
}

// NoopReportPublisher leaves reports on local disk only.
type NoopReportPublisher struct{}

func (NoopReportPublisher) PublishReport(ctx context.Context, runID, dir string) ([]string, error) {
	return nil, nil
}
