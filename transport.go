package formpost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/jpalmerr/formpost/internal/pool"
)

const (
	defaultIdleConnTimeout     = 90 * time.Second
	defaultTLSHandshakeTimeout = 10 * time.Second
	defaultKeepAlive           = 30 * time.Second

	maxRedirects = 10
)

// gatedTransport borrows a pool slot for the lifetime of each request.
//
// The wait for a slot is bounded by the request context, which carries the
// resolved per-request timeout. A positive wait caps it further. Running out
// of time while waiting reports [ErrPoolExhausted] wrapped together with
// context.DeadlineExceeded.
//
// The slot is held from before the connection is dialled or reused until the
// response body is closed, so the pool's per-route count always matches the
// connections actually in use by the inner transport.
type gatedTransport struct {
	pool    *pool.Pool
	wait    time.Duration
	inner   *http.Transport
	metrics *metrics
}

// newTransport builds the connection-pooling transport sized from the pool
// limits. Timeouts are applied per request via the context, not here.
func newTransport(p *pool.Pool) *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: defaultKeepAlive,
		}).DialContext,
		MaxIdleConns:        p.MaxTotal(),
		MaxIdleConnsPerHost: p.MaxPerRoute(),
		MaxConnsPerHost:     p.MaxPerRoute(),
		IdleConnTimeout:     defaultIdleConnTimeout,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		DisableKeepAlives:   false,
	}
}

func (t *gatedTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	route, err := pool.RouteOf(req.URL)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		return nil, err
	}

	release, err := t.pool.Acquire(req.Context(), route, t.wait)
	if err != nil {
		if req.Body != nil {
			_ = req.Body.Close()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w: %w", ErrPoolExhausted, err)
		}
		return nil, err
	}
	t.metrics.inFlight.Inc()

	done := func() {
		release()
		t.metrics.inFlight.Dec()
	}

	resp, err := t.inner.RoundTrip(req)
	if err != nil {
		done()
		return nil, err
	}
	resp.Body = &releaseOnClose{ReadCloser: resp.Body, release: done}
	return resp, nil
}

// checkRedirect follows only 303 See Other, which turns the POST into a
// GET by definition. 301, 302, 307 and 308 responses to a POST are returned
// to the caller as they are.
func checkRedirect(req *http.Request, via []*http.Request) error {
	if req.Response == nil || req.Response.StatusCode != http.StatusSeeOther {
		return http.ErrUseLastResponse
	}
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}
	return nil
}

// releaseOnClose hands the pool slot back when the body is closed.
type releaseOnClose struct {
	io.ReadCloser
	once    sync.Once
	release func()
}

func (b *releaseOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.once.Do(b.release)
	return err
}
