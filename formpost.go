package formpost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/jpalmerr/formpost/internal/pool"
)

const (
	// DefaultMaxTotal is the default limit on pooled connections across all routes.
	DefaultMaxTotal = 1000

	// DefaultMaxPerRoute is the default limit on pooled connections per route.
	DefaultMaxPerRoute = 10

	// DefaultAcquireTimeout is the conventional cap passed to
	// [WithAcquireTimeout]. Without that option a request waits for a free
	// pooled connection for as long as its own timeout allows.
	DefaultAcquireTimeout = 2000 * time.Millisecond

	// DefaultTimeout applies when Post is called with a zero or negative timeout.
	DefaultTimeout = 60000 * time.Millisecond

	// MaxTimeout caps every request timeout.
	MaxTimeout = 30 * time.Minute
)

// ContentType is the Content-Type header value of every request body.
const ContentType = "application/x-www-form-urlencoded; charset=utf-8"

// Poster sends form-encoded POST requests through a bounded connection pool.
//
// A Poster is created with [New] and owns its pool for its whole lifetime.
// The per-call timeout passed to [Poster.Post] only sets that call's
// deadline; it never reconfigures the pool or affects other callers.
//
// Poster is safe for concurrent use. Call [Poster.Close] when done to
// release idle connections.
type Poster struct {
	client         *http.Client
	transport      *http.Transport
	pool           *pool.Pool
	headers        http.Header
	defaultTimeout time.Duration
	logger         *slog.Logger
	metrics        *metrics
	closed         atomic.Bool
}

// Stats is a point-in-time view of a Poster's pool.
type Stats struct {
	InFlight    int
	MaxTotal    int
	MaxPerRoute int
}

// New creates a [Poster] with the given options.
//
// The pool is built eagerly. Options have these defaults:
//   - Max total connections: 1000
//   - Max connections per route: 10
//   - Acquire timeout: none, bounded by each request's timeout
//   - Default request timeout: 60s
//
// Returns an error if any option is invalid or the per-route limit exceeds
// the total limit.
//
// Example:
//
//	p, err := formpost.New(
//	    formpost.WithMaxPerRoute(20),
//	    formpost.WithLogger(logger),
//	)
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	body, err := p.Post(ctx, "https://api.example.com/check", map[string]string{"id": "42"}, 5*time.Second)
func New(opts ...Option) (*Poster, error) {
	cfg := &posterConfig{
		maxTotal:       DefaultMaxTotal,
		maxPerRoute:    DefaultMaxPerRoute,
		defaultTimeout: DefaultTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	p, err := pool.New(cfg.maxTotal, cfg.maxPerRoute)
	if err != nil {
		return nil, err
	}

	m := newMetrics()
	if err := m.register(cfg.registerer); err != nil {
		return nil, err
	}

	logger := cfg.logger
	if logger == nil {
		logger = slog.Default()
	}

	transport := newTransport(p)

	return &Poster{
		client: &http.Client{
			// no client timeout - each request carries its own deadline
			Transport: &gatedTransport{
				pool:    p,
				wait:    cfg.acquireTimeout,
				inner:   transport,
				metrics: m,
			},
			CheckRedirect: checkRedirect,
		},
		transport:      transport,
		pool:           p,
		headers:        cfg.headers,
		defaultTimeout: cfg.defaultTimeout,
		logger:         logger,
		metrics:        m,
	}, nil
}

var (
	defaultPoster     *Poster
	defaultPosterOnce sync.Once
)

// Default returns a process-wide [Poster] built with default options.
//
// It is created on first call. Prefer [New] and passing the Poster
// explicitly; Default exists for callers that have nowhere to keep one.
func Default() *Poster {
	defaultPosterOnce.Do(func() {
		p, err := New()
		if err != nil {
			// defaults are constants and always valid
			panic(fmt.Sprintf("formpost: default poster: %v", err))
		}
		defaultPoster = p
	})
	return defaultPoster
}

// Post sends params as a form-encoded POST to rawURL and returns the
// response body.
//
// A timeout of zero or less uses the poster's default timeout. Timeouts
// above [MaxTimeout] are clamped. The timeout bounds the wait for a pooled
// connection, the connect and the read of the whole body.
//
// The body is returned whatever the HTTP status code, including redirects:
// only a 303 See Other is followed. Bytes that are not
// valid UTF-8 are replaced with U+FFFD. Transport failures are returned as
// a [*RequestError]; the response is always closed before Post returns.
func (p *Poster) Post(ctx context.Context, rawURL string, params map[string]string, timeout time.Duration) (string, error) {
	values := make(url.Values, len(params))
	for k, v := range params {
		values.Set(k, v)
	}
	return p.PostValues(ctx, rawURL, values, timeout)
}

// PostValues is like [Poster.Post] but accepts repeated keys.
func (p *Poster) PostValues(ctx context.Context, rawURL string, values url.Values, timeout time.Duration) (string, error) {
	if p.closed.Load() {
		return "", ErrClosed
	}
	if ctx == nil {
		ctx = context.Background()
	}

	timeout = p.resolveTimeout(timeout)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	requestID := uuid.NewString()
	p.logger.Info("post request",
		"request_id", requestID,
		"url", rawURL,
		"params", values,
		"timeout", timeout.String(),
	)

	start := time.Now()
	body, err := p.do(ctx, rawURL, values, requestID)
	p.metrics.duration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, ErrPoolExhausted) {
			p.metrics.requests.WithLabelValues(outcomeExhausted).Inc()
		} else {
			p.metrics.requests.WithLabelValues(outcomeError).Inc()
		}
		p.logger.Warn("post failed",
			"request_id", requestID,
			"url", rawURL,
			"params", values,
			"error", err,
			"duration", time.Since(start).String(),
		)
		return "", err
	}

	p.metrics.requests.WithLabelValues(outcomeOK).Inc()
	p.logger.Info("post response",
		"request_id", requestID,
		"url", rawURL,
		"params", values,
		"response", body,
		"duration", time.Since(start).String(),
	)
	return body, nil
}

func (p *Poster) do(ctx context.Context, rawURL string, values url.Values, requestID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(values.Encode()))
	if err != nil {
		return "", &RequestError{Op: "build", URL: rawURL, Err: err}
	}
	for key, vals := range p.headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Content-Type", ContentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", &RequestError{Op: "do", URL: rawURL, Err: unwrapURLError(err)}
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			p.logger.Error("failed to close response",
				"request_id", requestID,
				"url", rawURL,
				"error", cerr,
			)
		}
	}()

	p.metrics.responses.WithLabelValues(statusClass(resp.StatusCode)).Inc()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &RequestError{Op: "read", URL: rawURL, Err: err}
	}

	return strings.ToValidUTF8(string(data), "\uFFFD"), nil
}

// resolveTimeout applies the default for non-positive values and the
// MaxTimeout ceiling.
func (p *Poster) resolveTimeout(timeout time.Duration) time.Duration {
	if timeout <= 0 {
		return p.defaultTimeout
	}
	if timeout > MaxTimeout {
		return MaxTimeout
	}
	return timeout
}

// Stats returns the current pool usage.
func (p *Poster) Stats() Stats {
	return Stats{
		InFlight:    p.pool.InFlight(),
		MaxTotal:    p.pool.MaxTotal(),
		MaxPerRoute: p.pool.MaxPerRoute(),
	}
}

// Close closes idle pooled connections and rejects further posts with
// [ErrClosed]. Requests already in flight finish normally.
//
// Safe to call multiple times and on a nil Poster.
func (p *Poster) Close() {
	if p == nil {
		return
	}
	p.closed.Store(true)
	if p.transport != nil {
		p.transport.CloseIdleConnections()
	}
}

// unwrapURLError strips the *url.Error added by http.Client, since
// RequestError already carries the URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
