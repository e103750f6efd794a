package formpost

import (
	"errors"
	"fmt"

	"github.com/jpalmerr/formpost/internal/pool"
)

var (
	// ErrPoolExhausted is returned when no pooled connection slot became free
	// within the request timeout, or within the cap set by [WithAcquireTimeout].
	ErrPoolExhausted = pool.ErrExhausted

	// ErrClosed is returned by [Poster.Post] after [Poster.Close].
	ErrClosed = errors.New("poster is closed")
)

// RequestError reports which phase of a POST failed.
//
// Op is one of "build", "do" or "read". The underlying error is available
// through errors.Is and errors.As, so a caller can still test for
// context.DeadlineExceeded, *net.OpError, [ErrPoolExhausted] and so on.
type RequestError struct {
	Op  string
	URL string
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("post %s: %s: %v", e.URL, e.Op, e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}
