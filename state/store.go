package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

var (
	// ErrNotFound is returned when a run directory or report file does not exist.
	ErrNotFound = errors.New("state: not found")
	// ErrMalformedReport is returned when results.json exists but is not valid JSON.
	ErrMalformedReport = errors.New("state: malformed report")
	// ErrInvalidRunID is returned for ids that are not a single safe path element.
	ErrInvalidRunID = errors.New("state: invalid run id")
)

const (
	ResultsFileName = "results.json"
	IndexFileName   = "index.html"
	OutputLogName   = "output.log"

	// URLPrefix is where report directories are exposed over HTTP.
	URLPrefix = "/reports/"
)

// Store is the filesystem report area, one subdirectory per run.
type Store struct {
	root string
}

// NewStore resolves root to an absolute path and creates it if needed.
func NewStore(root string) (*Store, error) {
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("reports root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve reports root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create reports root: %w", err)
	}
	return &Store{root: abs}, nil
}

func (s *Store) Root() string {
	return s.root
}

// Create makes the report directory for runID. Creating an existing directory is not an error.
func (s *Store) Create(runID string) (ReportDir, error) {
	if err := validateRunID(runID); err != nil {
		return ReportDir{}, err
	}
	dir := s.reportDir(runID)
	if err := os.MkdirAll(dir.Path, 0o755); err != nil {
		return ReportDir{}, fmt.Errorf("create report dir %s: %w", runID, err)
	}
	return dir, nil
}

// Lookup returns the report directory for an existing run.
func (s *Store) Lookup(runID string) (ReportDir, error) {
	if err := validateRunID(runID); err != nil {
		return ReportDir{}, err
	}
	dir := s.reportDir(runID)
	info, err := os.Stat(dir.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ReportDir{}, fmt.Errorf("%w: run %s", ErrNotFound, runID)
		}
		return ReportDir{}, err
	}
	if !info.IsDir() {
		return ReportDir{}, fmt.Errorf("%w: run %s", ErrNotFound, runID)
	}
	return dir, nil
}

// ReadResults loads the JSON report written by the test tool for runID.
func (s *Store) ReadResults(runID string) (json.RawMessage, error) {
	if err := validateRunID(runID); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.reportDir(runID).ResultsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: results for run %s", ErrNotFound, runID)
		}
		return nil, err
	}
	if !json.Valid(data) {
		return nil, fmt.Errorf("%w: results for run %s", ErrMalformedReport, runID)
	}
	return json.RawMessage(data), nil
}

// Handler serves the report tree under URLPrefix. Directories are only
// served when they contain an index.html.
func (s *Store) Handler() http.Handler {
	return http.StripPrefix(strings.TrimSuffix(URLPrefix, "/"), http.FileServer(reportFS{root: http.Dir(s.root)}))
}

// ReportURL is the public URL of the HTML report for runID.
func ReportURL(runID string) string {
	return path.Join(URLPrefix, runID, IndexFileName)
}

func (s *Store) reportDir(runID string) ReportDir {
	dir := filepath.Join(s.root, runID)
	return ReportDir{
		RunID:       runID,
		Path:        dir,
		ResultsPath: filepath.Join(dir, ResultsFileName),
		OutputPath:  filepath.Join(dir, OutputLogName),
	}
}

func validateRunID(runID string) error {
	switch {
	case runID == "", runID == ".", runID == "..":
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	case strings.ContainsAny(runID, `/\:`), strings.ContainsRune(runID, 0):
		return fmt.Errorf("%w: %q", ErrInvalidRunID, runID)
	}
	return nil
}

// reportFS hides directory listings for directories without an index page.
type reportFS struct {
	root http.FileSystem
}

func (r reportFS) Open(name string) (http.File, error) {
	f, err := r.root.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.IsDir() {
		return f, nil
	}
	index, err := r.root.Open(path.Join(name, IndexFileName))
	if err != nil {
		f.Close()
		return nil, fs.ErrNotExist
	}
	index.Close()
	return f, nil
}
