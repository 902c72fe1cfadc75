package orchestrator

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/rs/cors"

	"github.com/izavyalov-dev/e2e-runner/internal/observability"
	"github.com/izavyalov-dev/e2e-runner/planner"
	"github.com/izavyalov-dev/e2e-runner/protocol"
	"github.com/izavyalov-dev/e2e-runner/state"
)

const (
	livenessMessage = "Test Management API is running"
	maxRequestBytes = 1 << 20
)

// HTTPConfig tunes the public HTTP surface.
type HTTPConfig struct {
	CORSOrigins []string
}

// NewHTTPHandler wires the run endpoint, report browsing, and operational endpoints.
func NewHTTPHandler(service *Service, store *state.Store, cfg HTTPConfig, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = observability.NewLogger("orchestrator.http")
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.MetricsHandler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(livenessMessage))
	})

	reports := store.Handler()
	mux.HandleFunc(state.URLPrefix, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		reports.ServeHTTP(w, r)
	})

	mux.HandleFunc("/api/run", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		req, ok := decodeRunRequest(w, r)
		if !ok {
			writeError(w, http.StatusBadRequest, planner.ErrEmptyTestIDs)
			return
		}

		result, err := service.Run(r.Context(), req)
		if err != nil {
			if IsValidationError(err) {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			logger.Error("run failed", "event", "run_failed", "error", err)
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	origins := cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(mux)
}

// decodeRunRequest accepts any JSON object and only insists that testIds is a
// list of non-null strings; the ids themselves are validated by the service.
func decodeRunRequest(w http.ResponseWriter, r *http.Request) (protocol.RunRequest, bool) {
	var body struct {
		TestIDs json.RawMessage `json:"testIds"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&body); err != nil {
		return protocol.RunRequest{}, false
	}
	var req protocol.RunRequest
	if len(body.TestIDs) == 0 {
		return req, true
	}
	var ids []*string
	if err := json.Unmarshal(body.TestIDs, &ids); err != nil {
		return protocol.RunRequest{}, false
	}
	if ids == nil {
		return req, true
	}
	req.TestIDs = make([]string, 0, len(ids))
	for _, id := range ids {
		if id == nil {
			return protocol.RunRequest{}, false
		}
		req.TestIDs = append(req.TestIDs, *id)
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, protocol.ErrorResponse{Error: err.Error()})
}
