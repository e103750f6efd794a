package formpost

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// posterConfig holds mutable state during Poster construction.
type posterConfig struct {
	maxTotal       int
	maxPerRoute    int
	acquireTimeout time.Duration
	defaultTimeout time.Duration
	headers        http.Header
	logger         *slog.Logger
	registerer     prometheus.Registerer
}

// Option is a function that configures a [Poster] during construction.
//
// Options validate their argument and return an error that [New] passes
// back to the caller unchanged.
//
// Built-in options: [WithMaxTotal], [WithMaxPerRoute], [WithAcquireTimeout],
// [WithDefaultTimeout], [WithHeader], [WithLogger], [WithRegisterer].
type Option func(*posterConfig) error

// WithMaxTotal sets the maximum number of pooled connections across all
// routes. Defaults to [DefaultMaxTotal].
//
// Returns an error if n is zero or negative.
func WithMaxTotal(n int) Option {
	return func(cfg *posterConfig) error {
		if n <= 0 {
			return errors.New("max total connections must be positive")
		}
		cfg.maxTotal = n
		return nil
	}
}

// WithMaxPerRoute sets the maximum number of pooled connections to a single
// (scheme, host, port) destination. Defaults to [DefaultMaxPerRoute].
//
// Returns an error if n is zero or negative.
func WithMaxPerRoute(n int) Option {
	return func(cfg *posterConfig) error {
		if n <= 0 {
			return errors.New("max connections per route must be positive")
		}
		cfg.maxPerRoute = n
		return nil
	}
}

// WithAcquireTimeout caps how long a request waits for a free pooled
// connection before failing with [ErrPoolExhausted].
//
// By default there is no separate cap and the wait is bounded by the
// per-request timeout alone. With a cap, a request waits for whichever of
// the two is shorter.
func WithAcquireTimeout(d time.Duration) Option {
	return func(cfg *posterConfig) error {
		if d <= 0 {
			return errors.New("acquire timeout must be positive")
		}
		cfg.acquireTimeout = d
		return nil
	}
}

// WithDefaultTimeout sets the timeout used when [Poster.Post] is called
// with a zero or negative timeout. Defaults to [DefaultTimeout].
//
// Returns an error unless 0 < d < [MaxTimeout].
func WithDefaultTimeout(d time.Duration) Option {
	return func(cfg *posterConfig) error {
		if d <= 0 {
			return errors.New("default timeout must be positive")
		}
		if d >= MaxTimeout {
			return fmt.Errorf("default timeout must be less than %s, got %s", MaxTimeout, d)
		}
		cfg.defaultTimeout = d
		return nil
	}
}

// WithHeader adds a header sent with every request.
//
// Can be called multiple times; repeated keys accumulate values.
// Content-Type is owned by the poster and cannot be set this way.
func WithHeader(key, value string) Option {
	return func(cfg *posterConfig) error {
		key = strings.TrimSpace(key)
		if key == "" {
			return errors.New("header key cannot be empty")
		}
		if http.CanonicalHeaderKey(key) == "Content-Type" {
			return errors.New("Content-Type header cannot be overridden")
		}
		if cfg.headers == nil {
			cfg.headers = make(http.Header)
		}
		cfg.headers.Add(key, value)
		return nil
	}
}

// WithLogger sets a custom structured logger.
//
// Requests and responses are logged at info level, close failures at error
// level. Defaults to slog.Default() if not specified or nil.
func WithLogger(logger *slog.Logger) Option {
	return func(cfg *posterConfig) error {
		cfg.logger = logger
		return nil
	}
}

// WithRegisterer registers the poster's Prometheus collectors on reg.
//
// Several posters may share one registerer; they then report into the same
// series. Without this option metrics are still kept but not exported.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(cfg *posterConfig) error {
		cfg.registerer = reg
		return nil
	}
}
