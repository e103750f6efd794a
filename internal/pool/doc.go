// Package pool bounds concurrent HTTP requests per destination route and in total.
//
// This package is internal to formpost. It sits in front of the standard
// library transport and decides whether a request may borrow a connection
// slot. The transport still owns the actual sockets; the pool only counts
// them, so that a borrow can fail after a bounded wait instead of queueing
// forever inside net/http.
//
// The main components are:
//
//   - [Route]: the (scheme, host, port) key used for per-destination limits
//   - [Pool]: weighted semaphores keyed by route plus one global semaphore
package pool
