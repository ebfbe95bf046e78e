package fanin

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNoOperations is returned when a FanIn is built from an empty set of futures.
	ErrNoOperations = errors.New("fanin: no operations to fan in")

	// ErrNilOperation is returned when one of the futures handed to a FanIn is nil.
	ErrNilOperation = errors.New("fanin: nil operation")

	// ErrCancelled is the failure recorded for a future that was cancelled by its owner.
	// It also matches context.Canceled under errors.Is.
	ErrCancelled = fmt.Errorf("fanin: operation cancelled: %w", context.Canceled)

	// ErrNotDone is returned by Future.Result while the future is still pending.
	ErrNotDone = errors.New("fanin: operation not done")

	// ErrNilFailure stands in for a nil error passed to Future.Fail.
	ErrNilFailure = errors.New("fanin: operation failed with a nil error")
)

// PanicError carries a value recovered from a panicking operation.
type PanicError struct {
	Value any
}

func (p *PanicError) Error() string {
	return fmt.Sprintf("fanin: operation panicked: %v", p.Value)
}

// Message represents a value with optional error and source information.
// A non-nil Error marks the failure variant, otherwise Value holds the result.
type Message[T any] struct {
	Value  T     // The actual value produced
	Error  error // Any error that terminated the operation
	Source any   // Optional source information for debugging
}

// Failed returns true if the message carries a failure.
func (m Message[T]) Failed() bool {
	return m.Error != nil
}
