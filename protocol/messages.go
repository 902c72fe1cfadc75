package protocol

import "encoding/json"

type RunStatus string

const (
	RunStatusPassed  RunStatus = "passed"
	RunStatusFailed  RunStatus = "failed"
	RunStatusTimeout RunStatus = "timeout"
)

// RunRequest is posted by a caller to start a tagged subset of the suite.
type RunRequest struct {
	TestIDs []string `json:"testIds"`
}

// RunResult is returned once the test tool has exited.
type RunResult struct {
	Status        RunStatus       `json:"status"`
	RunID         string          `json:"runId"`
	ExecutedTests []string        `json:"executedTests"`
	ErrorOutput   string          `json:"errorOutput"`
	ReportURL     string          `json:"reportUrl"`
	ResultJSON    json.RawMessage `json:"resultJson"` // null when no report was produced
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
}
