// Package config provides YAML configuration parsing for the formpost binary.
//
// The library itself is configured with functional options; this package
// maps a configuration file onto those options and onto the list of
// requests the "run" command sends.
//
// Example configuration:
//
//	default_timeout: 60s
//	concurrency: 10
//
//	pool:
//	  max_total: 1000
//	  max_per_route: 10
//
//	log:
//	  level: info
//	  format: json
//
//	headers:
//	  User-Agent: formpost
//
//	requests:
//	  - name: fraud-check
//	    url: https://${API_HOST}/check
//	    timeout: 2s
//	    params:
//	      appName: mobile
//	      eventId: mobile_test
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultMaxTotal       = 1000
	defaultMaxPerRoute    = 10
	defaultTimeout        = 60 * time.Second
	defaultConcurrency    = 10

	// maxTimeout mirrors formpost.MaxTimeout; timeouts must stay below it.
	maxTimeout = 30 * time.Minute
)

// Config is the root configuration structure for formpost.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// DefaultTimeout applies to requests without their own timeout.
	// Defaults to 60s.
	DefaultTimeout Duration `yaml:"default_timeout"`

	// Concurrency is the number of requests the run command sends at once.
	// Defaults to 10.
	Concurrency int `yaml:"concurrency"`

	// Pool sizes the shared connection pool.
	Pool PoolConfig `yaml:"pool"`

	// Log configures the CLI logger.
	Log LogConfig `yaml:"log"`

	// Headers are sent with every request.
	// Values support environment variable substitution.
	Headers map[string]string `yaml:"headers"`

	// Requests are the posts sent by the run command.
	Requests []RequestConfig `yaml:"requests"`
}

// PoolConfig sizes the connection pool.
type PoolConfig struct {
	// MaxTotal is the limit across all routes. Defaults to 1000.
	MaxTotal int `yaml:"max_total"`

	// MaxPerRoute is the limit per (scheme, host, port). Defaults to 10.
	MaxPerRoute int `yaml:"max_per_route"`

	// AcquireTimeout caps the wait for a free connection. Zero, the default,
	// leaves the wait bounded by each request's timeout.
	AcquireTimeout Duration `yaml:"acquire_timeout"`
}

// LogConfig configures the CLI logger.
type LogConfig struct {
	// Level is one of debug, info, warn, error. Defaults to info.
	Level string `yaml:"level"`

	// Format is json or text. Defaults to json.
	Format string `yaml:"format"`
}

// RequestConfig defines one form POST.
type RequestConfig struct {
	// Name identifies the request in output and logs. Must be unique.
	Name string `yaml:"name"`

	// URL is the target URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Timeout is the request timeout. Zero uses default_timeout.
	Timeout Duration `yaml:"timeout"`

	// Params are the form parameters.
	// Values support environment variable substitution.
	Params map[string]string `yaml:"params"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
//
// Both duration strings ("2s", "500ms") and bare integers, read as
// milliseconds, are accepted.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!int" {
		var ms int64
		if err := node.Decode(&ms); err != nil {
			return err
		}
		*d = Duration(time.Duration(ms) * time.Millisecond)
		return nil
	}

	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// SlogLevel returns the configured level as a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in request URLs, params and header
// values. Defaults are applied for every omitted field. An empty document
// is valid and yields the defaults with no requests.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Default returns a configuration with every default applied and no requests.
func Default() *Config {
	var cfg Config
	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.DefaultTimeout == 0 {
		c.DefaultTimeout = Duration(defaultTimeout)
	}
	if c.Concurrency == 0 {
		c.Concurrency = defaultConcurrency
	}
	if c.Pool.MaxTotal == 0 {
		c.Pool.MaxTotal = defaultMaxTotal
	}
	if c.Pool.MaxPerRoute == 0 {
		c.Pool.MaxPerRoute = defaultMaxPerRoute
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if err := validateTimeout("default_timeout", c.DefaultTimeout); err != nil {
		return err
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("concurrency must be positive, got %d", c.Concurrency)
	}

	if c.Pool.MaxTotal < 0 {
		return fmt.Errorf("pool.max_total must be positive, got %d", c.Pool.MaxTotal)
	}
	if c.Pool.MaxPerRoute < 0 {
		return fmt.Errorf("pool.max_per_route must be positive, got %d", c.Pool.MaxPerRoute)
	}
	if c.Pool.MaxPerRoute > c.Pool.MaxTotal {
		return fmt.Errorf("pool.max_per_route (%d) cannot exceed pool.max_total (%d)",
			c.Pool.MaxPerRoute, c.Pool.MaxTotal)
	}
	if c.Pool.AcquireTimeout.Duration() < 0 {
		return fmt.Errorf("pool.acquire_timeout cannot be negative, got %s", c.Pool.AcquireTimeout.Duration())
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	c.Log.Format = strings.ToLower(c.Log.Format)
	if c.Log.Format != "json" && c.Log.Format != "text" {
		return fmt.Errorf("log.format must be json or text, got %q", c.Log.Format)
	}

	for k, v := range c.Headers {
		if strings.TrimSpace(k) == "" {
			return fmt.Errorf("headers: key cannot be empty")
		}
		if strings.EqualFold(k, "Content-Type") {
			return fmt.Errorf("headers[%s]: Content-Type cannot be overridden", k)
		}
		expanded, err := expandEnvVars(v)
		if err != nil {
			return fmt.Errorf("headers[%s]: %w", k, err)
		}
		c.Headers[k] = expanded
	}

	seen := make(map[string]struct{}, len(c.Requests))
	for i := range c.Requests {
		rq := &c.Requests[i]

		if rq.Name == "" {
			return fmt.Errorf("requests[%d]: name is required", i)
		}
		if _, exists := seen[rq.Name]; exists {
			return fmt.Errorf("requests[%d]: duplicate name %q", i, rq.Name)
		}
		seen[rq.Name] = struct{}{}

		if rq.URL == "" {
			return fmt.Errorf("requests[%d] (%s): url is required", i, rq.Name)
		}
		expanded, err := expandEnvVars(rq.URL)
		if err != nil {
			return fmt.Errorf("requests[%d] (%s): url: %w", i, rq.Name, err)
		}
		rq.URL = expanded

		parsedURL, err := url.Parse(rq.URL)
		if err != nil {
			return fmt.Errorf("requests[%d] (%s): invalid url: %w", i, rq.Name, err)
		}
		if parsedURL.Scheme == "" {
			return fmt.Errorf("requests[%d] (%s): url must have a scheme (http:// or https://)", i, rq.Name)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("requests[%d] (%s): url scheme must be http or https, got %q", i, rq.Name, parsedURL.Scheme)
		}

		for k, v := range rq.Params {
			expanded, err := expandEnvVars(v)
			if err != nil {
				return fmt.Errorf("requests[%d] (%s): params[%s]: %w", i, rq.Name, k, err)
			}
			rq.Params[k] = expanded
		}

		if err := validateTimeout(fmt.Sprintf("requests[%d] (%s): timeout", i, rq.Name), rq.Timeout); err != nil {
			return err
		}
	}

	return nil
}

// validateTimeout checks 0 <= d < maxTimeout.
func validateTimeout(field string, d Duration) error {
	if d.Duration() < 0 {
		return fmt.Errorf("%s cannot be negative, got %s", field, d.Duration())
	}
	if d.Duration() >= maxTimeout {
		return fmt.Errorf("%s must be less than %s, got %s", field, maxTimeout, d.Duration())
	}
	return nil
}
