package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse([]byte(""))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.DefaultTimeout.Duration() != 60*time.Second {
		t.Errorf("DefaultTimeout = %v, want 60s", cfg.DefaultTimeout.Duration())
	}
	if cfg.Concurrency != 10 {
		t.Errorf("Concurrency = %d, want 10", cfg.Concurrency)
	}
	if cfg.Pool.MaxTotal != 1000 {
		t.Errorf("Pool.MaxTotal = %d, want 1000", cfg.Pool.MaxTotal)
	}
	if cfg.Pool.MaxPerRoute != 10 {
		t.Errorf("Pool.MaxPerRoute = %d, want 10", cfg.Pool.MaxPerRoute)
	}
	if cfg.Pool.AcquireTimeout != 0 {
		t.Errorf("Pool.AcquireTimeout = %v, want 0 (bounded by request timeout)", cfg.Pool.AcquireTimeout.Duration())
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "json" {
		t.Errorf("Log = %+v, want info/json", cfg.Log)
	}
	if len(cfg.Requests) != 0 {
		t.Errorf("len(Requests) = %d, want 0", len(cfg.Requests))
	}
}

func TestDefault_MatchesEmptyParse(t *testing.T) {
	parsed, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	def := Default()

	if parsed.DefaultTimeout != def.DefaultTimeout ||
		parsed.Concurrency != def.Concurrency ||
		parsed.Pool != def.Pool ||
		parsed.Log != def.Log {
		t.Errorf("Default() = %+v, want %+v", def, parsed)
	}
}

func TestParse_FullConfig(t *testing.T) {
	yaml := `
default_timeout: 30s
concurrency: 4

pool:
  max_total: 200
  max_per_route: 20
  acquire_timeout: 500ms

log:
  level: debug
  format: TEXT

headers:
  User-Agent: formpost-test

requests:
  - name: fraud-check
    url: https://api.example.com/check
    timeout: 2s
    params:
      appName: mobile
      eventId: mobile_test
      invokeType: "10"
  - name: second
    url: http://localhost:8080/submit
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.DefaultTimeout.Duration() != 30*time.Second {
		t.Errorf("DefaultTimeout = %v, want 30s", cfg.DefaultTimeout.Duration())
	}
	if cfg.Concurrency != 4 {
		t.Errorf("Concurrency = %d, want 4", cfg.Concurrency)
	}
	if cfg.Pool.MaxTotal != 200 || cfg.Pool.MaxPerRoute != 20 {
		t.Errorf("Pool = %+v, want 200/20", cfg.Pool)
	}
	if cfg.Pool.AcquireTimeout.Duration() != 500*time.Millisecond {
		t.Errorf("Pool.AcquireTimeout = %v, want 500ms", cfg.Pool.AcquireTimeout.Duration())
	}
	if cfg.Log.SlogLevel() != slog.LevelDebug {
		t.Errorf("Log.SlogLevel() = %v, want DEBUG", cfg.Log.SlogLevel())
	}
	if cfg.Log.Format != "text" {
		t.Errorf("Log.Format = %q, want %q", cfg.Log.Format, "text")
	}
	if cfg.Headers["User-Agent"] != "formpost-test" {
		t.Errorf("Headers[User-Agent] = %q, want %q", cfg.Headers["User-Agent"], "formpost-test")
	}

	if len(cfg.Requests) != 2 {
		t.Fatalf("len(Requests) = %d, want 2", len(cfg.Requests))
	}
	rq := cfg.Requests[0]
	if rq.Name != "fraud-check" {
		t.Errorf("Name = %q, want %q", rq.Name, "fraud-check")
	}
	if rq.URL != "https://api.example.com/check" {
		t.Errorf("URL = %q, want %q", rq.URL, "https://api.example.com/check")
	}
	if rq.Timeout.Duration() != 2*time.Second {
		t.Errorf("Timeout = %v, want 2s", rq.Timeout.Duration())
	}
	if rq.Params["invokeType"] != "10" {
		t.Errorf("Params[invokeType] = %q, want %q", rq.Params["invokeType"], "10")
	}
	if cfg.Requests[1].Timeout != 0 {
		t.Errorf("Requests[1].Timeout = %v, want 0 (use default)", cfg.Requests[1].Timeout.Duration())
	}
}

func TestParse_DurationAsMilliseconds(t *testing.T) {
	yaml := `
default_timeout: 60000
pool:
  acquire_timeout: 2000
requests:
  - name: ms
    url: http://example.com
    timeout: 5000
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.DefaultTimeout.Duration() != 60*time.Second {
		t.Errorf("DefaultTimeout = %v, want 60s", cfg.DefaultTimeout.Duration())
	}
	if cfg.Pool.AcquireTimeout.Duration() != 2*time.Second {
		t.Errorf("Pool.AcquireTimeout = %v, want 2s", cfg.Pool.AcquireTimeout.Duration())
	}
	if cfg.Requests[0].Timeout.Duration() != 5*time.Second {
		t.Errorf("Requests[0].Timeout = %v, want 5s", cfg.Requests[0].Timeout.Duration())
	}
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("FORMPOST_TEST_HOST", "api.internal")
	t.Setenv("FORMPOST_TEST_TOKEN", "s3cret")

	yaml := `
headers:
  Authorization: Bearer ${FORMPOST_TEST_TOKEN}
requests:
  - name: env
    url: https://${FORMPOST_TEST_HOST}/check
    params:
      region: ${FORMPOST_TEST_REGION:-eu-west-1}
      empty: ${FORMPOST_TEST_EMPTY:-}
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Headers["Authorization"] != "Bearer s3cret" {
		t.Errorf("Headers[Authorization] = %q, want %q", cfg.Headers["Authorization"], "Bearer s3cret")
	}
	rq := cfg.Requests[0]
	if rq.URL != "https://api.internal/check" {
		t.Errorf("URL = %q, want %q", rq.URL, "https://api.internal/check")
	}
	if rq.Params["region"] != "eu-west-1" {
		t.Errorf("Params[region] = %q, want %q", rq.Params["region"], "eu-west-1")
	}
	if v, ok := rq.Params["empty"]; !ok || v != "" {
		t.Errorf("Params[empty] = %q (present %v), want empty string", v, ok)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			yaml:    "requests: [",
			wantErr: "failed to parse YAML",
		},
		{
			name:    "invalid duration",
			yaml:    "default_timeout: soon",
			wantErr: "invalid duration",
		},
		{
			name:    "negative default timeout",
			yaml:    "default_timeout: -1s",
			wantErr: "default_timeout cannot be negative",
		},
		{
			name:    "default timeout at ceiling",
			yaml:    "default_timeout: 30m",
			wantErr: "default_timeout must be less than",
		},
		{
			name:    "negative concurrency",
			yaml:    "concurrency: -2",
			wantErr: "concurrency must be positive",
		},
		{
			name:    "negative max total",
			yaml:    "pool:\n  max_total: -1",
			wantErr: "pool.max_total must be positive",
		},
		{
			name:    "per route exceeds total",
			yaml:    "pool:\n  max_total: 5\n  max_per_route: 6",
			wantErr: "cannot exceed pool.max_total",
		},
		{
			name:    "negative acquire timeout",
			yaml:    "pool:\n  acquire_timeout: -1s",
			wantErr: "pool.acquire_timeout cannot be negative",
		},
		{
			name:    "bad log level",
			yaml:    "log:\n  level: loud",
			wantErr: "log.level",
		},
		{
			name:    "bad log format",
			yaml:    "log:\n  format: xml",
			wantErr: "log.format",
		},
		{
			name:    "content type header",
			yaml:    "headers:\n  content-type: text/plain",
			wantErr: "Content-Type cannot be overridden",
		},
		{
			name:    "missing name",
			yaml:    "requests:\n  - url: http://example.com",
			wantErr: "requests[0]: name is required",
		},
		{
			name:    "duplicate name",
			yaml:    "requests:\n  - name: a\n    url: http://example.com\n  - name: a\n    url: http://example.org",
			wantErr: "requests[1]: duplicate name",
		},
		{
			name:    "missing url",
			yaml:    "requests:\n  - name: a",
			wantErr: "url is required",
		},
		{
			name:    "url without scheme",
			yaml:    "requests:\n  - name: a\n    url: example.com/path",
			wantErr: "url must have a scheme",
		},
		{
			name:    "ftp scheme",
			yaml:    "requests:\n  - name: a\n    url: ftp://example.com",
			wantErr: "url scheme must be http or https",
		},
		{
			name:    "unset env var",
			yaml:    "requests:\n  - name: a\n    url: http://${FORMPOST_TEST_DEFINITELY_UNSET}/x",
			wantErr: "FORMPOST_TEST_DEFINITELY_UNSET",
		},
		{
			name:    "request timeout too large",
			yaml:    "requests:\n  - name: a\n    url: http://example.com\n    timeout: 1h",
			wantErr: "requests[0] (a): timeout must be less than",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("Parse() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Parse() error = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "formpost.yaml")
	content := `
requests:
  - name: file
    url: http://example.com/form
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Requests) != 1 || cfg.Requests[0].Name != "file" {
		t.Errorf("Requests = %+v, want one request named file", cfg.Requests)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read config file") {
		t.Errorf("Load() error = %v, want 'failed to read config file'", err)
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("FORMPOST_A", "alpha")

	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"plain", "plain", false},
		{"${FORMPOST_A}", "alpha", false},
		{"x-${FORMPOST_A}-y", "x-alpha-y", false},
		{"${FORMPOST_UNSET_B:-beta}", "beta", false},
		{"${FORMPOST_A:-ignored}", "alpha", false},
		{"${FORMPOST_UNSET_C}", "", true},
	}

	for _, tt := range tests {
		got, err := expandEnvVars(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("expandEnvVars(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && got != tt.want {
			t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLogConfig_SlogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"error":   slog.LevelError,
		"garbage": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := (LogConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
