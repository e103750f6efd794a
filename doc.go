// Package formpost sends form-encoded HTTP POST requests through a bounded,
// shared connection pool and returns the response body as text.
//
// formpost is a small SDK: build one [Poster] at startup, pass it to the code
// that needs it, and close it on shutdown. There is no hidden global client;
// [Default] is available for code that cannot hold a reference.
//
// # Quick Start
//
//	p, err := formpost.New()
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	body, err := p.Post(ctx, "https://api.example.com/check", map[string]string{
//	    "appName": "mobile",
//	    "eventId": "mobile_test",
//	}, 2*time.Second)
//
// A zero timeout uses the default of 60 seconds.
//
// # Configuration
//
// formpost uses the functional options pattern:
//
//	p, err := formpost.New(
//	    formpost.WithMaxTotal(1000),
//	    formpost.WithMaxPerRoute(10),
//	    formpost.WithAcquireTimeout(2 * time.Second),
//	    formpost.WithDefaultTimeout(60 * time.Second),
//	    formpost.WithHeader("User-Agent", "billing/1.0"),
//	    formpost.WithLogger(logger),
//	    formpost.WithRegisterer(prometheus.DefaultRegisterer),
//	)
//
// # Pooling
//
// Connections are limited per route (scheme, host and port) and in total.
// The per-request timeout bounds the wait for a free slot, the connect and
// the read of the full body. A request that cannot get a slot in time fails
// with [ErrPoolExhausted]. [WithAcquireTimeout] sets a shorter cap on the
// slot wait alone.
//
// # Errors
//
// The response body is returned for every HTTP status code, including 4xx
// and 5xx. Redirects other than 303 See Other are not followed; the
// redirect response's own body is returned. Only transport failures produce an error. They are reported as
// [*RequestError] and unwrap to the underlying cause.
//
// # Architecture
//
//   - internal/pool: route-keyed connection slot accounting
//   - internal/batch: bounded fan-out of many posts, used by the CLI
//   - config: YAML configuration for the formpost binary
//   - cmd/formpost: the command-line tool
package formpost
