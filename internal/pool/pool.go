package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrExhausted is returned by [Pool.Acquire] when no slot became free within
// the acquisition wait.
var ErrExhausted = errors.New("connection pool exhausted")

// Pool limits in-flight requests per [Route] and across all routes.
//
// Route semaphores are created on first use and dropped once no request
// holds or waits for a slot on that route, so the route table only grows
// with the number of destinations in use. Pool is safe for concurrent use.
type Pool struct {
	maxTotal    int64
	maxPerRoute int64

	total *semaphore.Weighted

	mu     sync.Mutex
	routes map[Route]*routeSlots

	inFlight atomic.Int64
}

// routeSlots is the semaphore of one route plus the number of callers
// holding or waiting on it.
type routeSlots struct {
	sem  *semaphore.Weighted
	refs int
}

// New creates a [Pool] allowing maxTotal concurrent borrows overall and
// maxPerRoute per route. Both limits must be positive.
func New(maxTotal, maxPerRoute int) (*Pool, error) {
	if maxTotal <= 0 {
		return nil, errors.New("max total must be positive")
	}
	if maxPerRoute <= 0 {
		return nil, errors.New("max per route must be positive")
	}
	if maxPerRoute > maxTotal {
		return nil, errors.New("max per route cannot exceed max total")
	}
	return &Pool{
		maxTotal:    int64(maxTotal),
		maxPerRoute: int64(maxPerRoute),
		total:       semaphore.NewWeighted(int64(maxTotal)),
		routes:      make(map[Route]*routeSlots),
	}, nil
}

// MaxTotal returns the global limit.
func (p *Pool) MaxTotal() int { return int(p.maxTotal) }

// MaxPerRoute returns the per-route limit.
func (p *Pool) MaxPerRoute() int { return int(p.maxPerRoute) }

// InFlight returns the number of slots currently borrowed.
func (p *Pool) InFlight() int { return int(p.inFlight.Load()) }

// Routes returns the number of routes currently tracked.
func (p *Pool) Routes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.routes)
}

// ref returns the semaphore for r, creating it if needed, and counts the
// caller as a user until the matching unref.
func (p *Pool) ref(r Route) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()

	slots, ok := p.routes[r]
	if !ok {
		slots = &routeSlots{sem: semaphore.NewWeighted(p.maxPerRoute)}
		p.routes[r] = slots
	}
	slots.refs++
	return slots.sem
}

func (p *Pool) unref(r Route) {
	p.mu.Lock()
	defer p.mu.Unlock()

	slots, ok := p.routes[r]
	if !ok {
		return
	}
	slots.refs--
	if slots.refs <= 0 {
		delete(p.routes, r)
	}
}

// Acquire borrows one slot for route r.
//
// The call blocks until a slot is free, wait elapses, or ctx is done. A
// non-positive wait leaves the call bounded by ctx alone. When wait elapses
// first, Acquire returns [ErrExhausted]; when ctx is done first it returns
// ctx.Err().
//
// On success the returned release func must be called exactly once.
// Extra calls are ignored.
func (p *Pool) Acquire(ctx context.Context, r Route, wait time.Duration) (func(), error) {
	acquireCtx := ctx
	if wait > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, wait)
		defer cancel()
	}

	routeSem := p.ref(r)
	if err := routeSem.Acquire(acquireCtx, 1); err != nil {
		p.unref(r)
		return nil, p.acquireErr(ctx, err)
	}
	if err := p.total.Acquire(acquireCtx, 1); err != nil {
		routeSem.Release(1)
		p.unref(r)
		return nil, p.acquireErr(ctx, err)
	}
	p.inFlight.Add(1)

	var once sync.Once
	return func() {
		once.Do(func() {
			p.inFlight.Add(-1)
			p.total.Release(1)
			routeSem.Release(1)
			p.unref(r)
		})
	}, nil
}

// acquireErr tells the caller's own cancellation apart from the pool wait
// running out.
func (p *Pool) acquireErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrExhausted
	}
	return err
}
