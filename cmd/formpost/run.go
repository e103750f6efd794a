package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/jpalmerr/formpost"
	"github.com/jpalmerr/formpost/config"
	"github.com/jpalmerr/formpost/internal/batch"
)

const (
	shutdownTimeout = 10 * time.Second
)

// newRunCmd sends every request in a config file.
func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send every request in a config file",
		Long: `Send every request listed in a formpost configuration file.

Requests share one connection pool and run with the configured concurrency.
One line is printed per request, in file order:

  <name>  ok    <latency>  <body>
  <name>  FAIL  <latency>  <error>

With --metrics-addr, Prometheus metrics are served on /metrics while the
batch runs.

The run stops early when interrupted (Ctrl+C) or on SIGTERM.

Exit codes:
  0 - Every request succeeded
  1 - At least one request failed, or the config is invalid

Example:
  formpost run -c formpost.yaml
  formpost run -c formpost.yaml --metrics-addr :9090`,
		RunE: runRun,
	}

	cmd.Flags().StringP("config", "c", "", "path to config file (required)")
	cmd.Flags().String("metrics-addr", "", "serve Prometheus metrics on this address")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if len(cfg.Requests) == 0 {
		return fmt.Errorf("no requests configured")
	}

	logger := config.NewLogger(cmd.ErrOrStderr(), cfg.Log)
	logger.Info("config loaded",
		"requests", len(cfg.Requests),
		"concurrency", cfg.Concurrency,
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	p, err := formpost.New(config.BuildOptions(cfg, logger, reg)...)
	if err != nil {
		return fmt.Errorf("failed to create poster: %w", err)
	}
	defer p.Close()

	// set up context with signal handling - cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if addr, _ := cmd.Flags().GetString("metrics-addr"); addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsHandler(reg, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			logger.Info("serving metrics", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("metrics server shutdown", "error", err)
			}
		}()
	}

	runner := batch.NewRunner(p, cfg.Concurrency, logger)
	results := runner.Run(ctx, config.BuildJobs(cfg))

	failed := printResults(cmd.OutOrStdout(), results)
	if failed > 0 {
		return fmt.Errorf("%d of %d requests failed", failed, len(results))
	}
	return nil
}

func metricsHandler(reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog: slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}))
	return mux
}

// printResults writes one line per result and returns the number of failures.
func printResults(w io.Writer, results []batch.Result) int {
	failed := 0
	for _, res := range results {
		latency := res.Latency.Round(time.Millisecond)
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "%s\tFAIL\t%s\t%v\n", res.Name, latency, res.Err)
			continue
		}
		fmt.Fprintf(w, "%s\tok\t%s\t%s\n", res.Name, latency, res.Body)
	}
	return failed
}
