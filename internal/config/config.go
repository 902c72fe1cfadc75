package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultListen              = ":4000"
	defaultReportsDir          = "reports"
	defaultWorkdir             = "."
	defaultTestCommand         = "npx playwright test"
	defaultRunTimeout          = 30 * time.Minute
	defaultMaxErrorOutputBytes = 1 << 20
	defaultShutdownTimeout     = 15 * time.Second
)

// Config holds process-wide settings for the run service.
type Config struct {
	Listen              string
	ReportsDir          string
	Workdir             string
	TestCommand         []string
	RunTimeout          time.Duration
	MaxErrorOutputBytes int
	CORSOrigins         []string
	ShutdownTimeout     time.Duration

	S3Bucket string
	S3Prefix string
	S3Region string
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over .env entries.
func Load(envFiles ...string) Config {
	_ = godotenv.Load(envFiles...)

	return Config{
		Listen:              envString("E2E_LISTEN", defaultListen),
		ReportsDir:          envString("E2E_REPORTS_DIR", defaultReportsDir),
		Workdir:             envString("E2E_WORKDIR", defaultWorkdir),
		TestCommand:         strings.Fields(envString("E2E_TEST_COMMAND", defaultTestCommand)),
		RunTimeout:          envDuration("E2E_RUN_TIMEOUT", defaultRunTimeout),
		MaxErrorOutputBytes: envInt("E2E_MAX_ERROR_OUTPUT_BYTES", defaultMaxErrorOutputBytes),
		CORSOrigins:         envList("E2E_CORS_ORIGINS", []string{"*"}),
		ShutdownTimeout:     envDuration("E2E_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		S3Bucket:            envString("E2E_S3_BUCKET", ""),
		S3Prefix:            envString("E2E_S3_PREFIX", ""),
		S3Region:            envString("E2E_S3_REGION", ""),
	}
}

// SplitList splits a comma-separated flag or env value, dropping blanks.
func SplitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envString(name, fallback string) string {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	return value
}

func envInt(name string, fallback int) int {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDuration(name string, fallback time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func envList(name string, fallback []string) []string {
	values := SplitList(os.Getenv(name))
	if len(values) == 0 {
		return fallback
	}
	return values
}
