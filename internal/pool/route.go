package pool

import (
	"errors"
	"net"
	"net/url"
	"strings"
)

// Route identifies a connection destination.
//
// Two URLs share a route when they resolve to the same scheme, host and port,
// regardless of path or query.
type Route struct {
	Scheme string
	Host   string
	Port   string
}

// RouteOf derives the [Route] for u.
//
// Scheme and host are lowercased. A missing port is filled in from the
// scheme (80 for http, 443 for https).
func RouteOf(u *url.URL) (Route, error) {
	if u == nil {
		return Route{}, errors.New("nil url")
	}
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return Route{}, errors.New("url has no host")
	}

	port := u.Port()
	if port == "" {
		switch scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}

	return Route{Scheme: scheme, Host: host, Port: port}, nil
}

// String returns the route as scheme://host:port.
func (r Route) String() string {
	if r.Port == "" {
		return r.Scheme + "://" + r.Host
	}
	return r.Scheme + "://" + net.JoinHostPort(r.Host, r.Port)
}
