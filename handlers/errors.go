package handlers

import (
	"errors"
	"fmt"

	"github.com/daccred/lumenview.attest.so/horizon"
)

// ErrNotFound signals that an id or key exists neither upstream nor in the
// local store.
var ErrNotFound = errors.New("not found")

// UpstreamError wraps a failed or non-success Horizon call.
type UpstreamError struct {
	Err error
}

func (e *UpstreamError) Error() string { return fmt.Sprintf("upstream: %v", e.Err) }
func (e *UpstreamError) Unwrap() error { return e.Err }

// StoreError wraps a store read failure. Write failures on cache fills are
// logged and swallowed instead.
type StoreError struct {
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store: %v", e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }

// upstreamErr classifies a horizon client failure: a 404 means the entity
// does not exist, everything else is an upstream failure.
func upstreamErr(err error) error {
	var hErr *horizon.Error
	if errors.As(err, &hErr) && hErr.Status == 404 {
		return ErrNotFound
	}
	return &UpstreamError{Err: err}
}
