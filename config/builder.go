package config

import (
	"io"
	"log/slog"
	"sort"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jpalmerr/formpost"
	"github.com/jpalmerr/formpost/internal/batch"
)

// BuildOptions converts parsed configuration into [formpost.Option] values.
//
// logger and reg are passed through to [formpost.WithLogger] and
// [formpost.WithRegisterer]; either may be nil.
func BuildOptions(cfg *Config, logger *slog.Logger, reg prometheus.Registerer) []formpost.Option {
	opts := []formpost.Option{
		formpost.WithMaxTotal(cfg.Pool.MaxTotal),
		formpost.WithMaxPerRoute(cfg.Pool.MaxPerRoute),
		formpost.WithDefaultTimeout(cfg.DefaultTimeout.Duration()),
		formpost.WithLogger(logger),
	}

	if d := cfg.Pool.AcquireTimeout.Duration(); d > 0 {
		opts = append(opts, formpost.WithAcquireTimeout(d))
	}

	// sort keys for deterministic ordering
	keys := make([]string, 0, len(cfg.Headers))
	for k := range cfg.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		opts = append(opts, formpost.WithHeader(k, cfg.Headers[k]))
	}

	if reg != nil {
		opts = append(opts, formpost.WithRegisterer(reg))
	}

	return opts
}

// BuildJobs converts the configured requests into batch jobs, in file order.
func BuildJobs(cfg *Config) []batch.Job {
	jobs := make([]batch.Job, 0, len(cfg.Requests))
	for _, rq := range cfg.Requests {
		jobs = append(jobs, batch.Job{
			Name:    rq.Name,
			URL:     rq.URL,
			Params:  copyMap(rq.Params),
			Timeout: rq.Timeout.Duration(),
		})
	}
	return jobs
}

// NewLogger builds the logger described by cfg, writing to w.
func NewLogger(w io.Writer, cfg LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func copyMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
