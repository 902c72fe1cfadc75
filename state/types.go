package state

// ReportDir describes the on-disk layout of one run's reports.
type ReportDir struct {
	RunID       string `json:"run_id"`
	Path        string `json:"path"`         // HTML report tree root
	ResultsPath string `json:"results_path"` // JSON reporter output
	OutputPath  string `json:"output_path"`  // captured stdout/stderr of the test tool
}
