package formpost

import (
	"context"
	"errors"
	"testing"
)

// TestRequestError tests the RequestError type
func TestRequestError(t *testing.T) {
	err := &RequestError{
		Op:  "read",
		URL: "http://example.com/submit",
		Err: context.DeadlineExceeded,
	}

	want := "post http://example.com/submit: read: context deadline exceeded"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}

	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("errors.Is(err, context.DeadlineExceeded) = false, want true")
	}
}

func TestErrPoolExhausted_MatchesPool(t *testing.T) {
	err := &RequestError{Op: "do", URL: "http://example.com", Err: ErrPoolExhausted}
	if !errors.Is(err, ErrPoolExhausted) {
		t.Errorf("errors.Is(err, ErrPoolExhausted) = false, want true")
	}
}
