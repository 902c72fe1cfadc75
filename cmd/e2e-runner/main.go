package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/izavyalov-dev/e2e-runner/internal/config"
	"github.com/izavyalov-dev/e2e-runner/internal/observability"
	"github.com/izavyalov-dev/e2e-runner/orchestrator"
	"github.com/izavyalov-dev/e2e-runner/planner"
	"github.com/izavyalov-dev/e2e-runner/protocol"
	"github.com/izavyalov-dev/e2e-runner/runner"
	"github.com/izavyalov-dev/e2e-runner/runner/artifacts"
	"github.com/izavyalov-dev/e2e-runner/runner/transport"
	"github.com/izavyalov-dev/e2e-runner/state"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "serve":
		if err := runServe(os.Args[2:]); err != nil {
			fmt.Fprintf(os.Stderr, "serve failed: %v\n", err)
			os.Exit(1)
		}
	case "trigger":
		passed, err := runTrigger(os.Args[2:])
		if err != nil {
			fmt.Fprintf(os.Stderr, "trigger failed: %v\n", err)
			os.Exit(1)
		}
		if !passed {
			os.Exit(1)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: e2e-runner <serve|trigger> [flags]")
}

func runServe(args []string) error {
	cfg := config.Load()

	flags := flag.NewFlagSet("serve", flag.ExitOnError)
	listen := flags.String("listen", cfg.Listen, "Listen address")
	reportsDir := flags.String("reports-dir", cfg.ReportsDir, "Directory holding one report folder per run")
	workdir := flags.String("workdir", cfg.Workdir, "Working directory of the test tool")
	runTimeout := flags.Duration("run-timeout", cfg.RunTimeout, "Upper bound for a single run")
	s3Bucket := flags.String("s3-bucket", cfg.S3Bucket, "S3 bucket for report uploads")
	s3Prefix := flags.String("s3-prefix", cfg.S3Prefix, "S3 key prefix for report uploads")
	s3Region := flags.String("s3-region", cfg.S3Region, "S3 region for report uploads")
	_ = flags.Parse(args)

	if len(cfg.TestCommand) == 0 {
		return errors.New("E2E_TEST_COMMAND must not be empty")
	}

	logger := observability.NewLogger("e2e-runner")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := state.NewStore(*reportsDir)
	if err != nil {
		return err
	}

	var publisher orchestrator.ReportPublisher
	if *s3Bucket != "" {
		uploader, err := artifacts.NewS3Uploader(ctx, artifacts.S3Config{
			Bucket: *s3Bucket,
			Prefix: *s3Prefix,
			Region: *s3Region,
		})
		if err != nil {
			return fmt.Errorf("init s3 uploader: %w", err)
		}
		publisher = uploader
	}

	invoker := runner.NewProcessInvoker(runner.ProcessConfig{
		Workdir:        *workdir,
		Timeout:        *runTimeout,
		MaxErrorOutput: cfg.MaxErrorOutputBytes,
	})
	service := orchestrator.NewService(store, planner.NewCommandPlanner(cfg.TestCommand), invoker, orchestrator.Options{
		Publisher: publisher,
		Analyzer:  orchestrator.NewRuleBasedFailureAnalyzer(),
		Metrics:   observability.NewMetrics(nil),
		Logger:    observability.NewLogger("orchestrator"),
	})
	handler := orchestrator.NewHTTPHandler(service, store, orchestrator.HTTPConfig{
		CORSOrigins: cfg.CORSOrigins,
	}, observability.NewLogger("orchestrator.http"))

	server := &http.Server{
		Addr:              *listen,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server started", "event", "server_started",
			"listen", *listen,
			"reports_dir", store.Root(),
			"workdir", *workdir,
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		logger.Info("server stopping", "event", "server_stopping")
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func runTrigger(args []string) (bool, error) {
	flags := flag.NewFlagSet("trigger", flag.ExitOnError)
	server := flags.String("server", envOr("E2E_SERVER_URL", "http://localhost:4000"), "Base URL of the run service")
	tests := flags.String("tests", "", "Comma-separated test ids to run")
	timeout := flags.Duration("timeout", 0, "Give up waiting after this long (0 waits forever)")
	maxOutput := flags.Int("max-error-output", 2000, "Characters of error output to print")
	_ = flags.Parse(args)

	ids := config.SplitList(*tests)
	if len(ids) == 0 {
		return false, errors.New("tests is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if *timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	client := transport.NewHTTPClient(*server)
	result, err := client.Run(ctx, ids)
	if err != nil {
		return false, err
	}

	renderResult(os.Stdout, *server, result, *maxOutput)
	return result.Status == protocol.RunStatusPassed, nil
}

func envOr(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}
