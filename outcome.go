package fanin

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"
)

// Outcome is an immutable snapshot of a fan-in: the values of the operations
// that succeeded and the errors of the ones that failed. Order within either
// list carries no meaning across operations.
type Outcome[T any] struct {
	successes []T
	failures  []error
}

// Succeeded returns an Outcome holding only the given values.
func Succeeded[T any](values ...T) Outcome[T] {
	b := NewOutcomeBuilder[T]()
	for _, v := range values {
		b.Add(v)
	}
	return b.Build()
}

// FailedWith returns an Outcome holding only the given errors.
func FailedWith[T any](errs ...error) Outcome[T] {
	b := NewOutcomeBuilder[T]()
	for _, err := range errs {
		b.AddError(err)
	}
	return b.Build()
}

// Successes returns a copy of the successful values.
func (o Outcome[T]) Successes() []T {
	return append(make([]T, 0, len(o.successes)), o.successes...)
}

// Failures returns a copy of the recorded errors.
func (o Outcome[T]) Failures() []error {
	return append(make([]error, 0, len(o.failures)), o.failures...)
}

// Len returns the total number of recorded outcomes.
// Comparing it with the number of submitted operations tells whether a wait gave up early.
func (o Outcome[T]) Len() int {
	return len(o.successes) + len(o.failures)
}

func (o Outcome[T]) HasFailures() bool {
	return len(o.failures) > 0
}

// Err combines all failures into a single error, or returns nil if there are none.
func (o Outcome[T]) Err() error {
	return multierr.Combine(o.failures...)
}

// FailureMessages renders the failures as a bracketed, comma separated list.
func (o Outcome[T]) FailureMessages() string {
	msgs := make([]string, len(o.failures))
	for i, err := range o.failures {
		msgs[i] = err.Error()
	}
	return "[" + strings.Join(msgs, ", ") + "]"
}

func (o Outcome[T]) String() string {
	return fmt.Sprintf("Succeeded %d: %v Failed %d: %v",
		len(o.successes), o.successes, len(o.failures), o.failures)
}

// Concat returns a new Outcome with this outcome's entries followed by other's.
// Neither input is modified.
func (o Outcome[T]) Concat(other Outcome[T]) Outcome[T] {
	successes := make([]T, 0, len(o.successes)+len(other.successes))
	successes = append(append(successes, o.successes...), other.successes...)
	failures := make([]error, 0, len(o.failures)+len(other.failures))
	failures = append(append(failures, o.failures...), other.failures...)
	return Outcome[T]{successes: successes, failures: failures}
}

// OutcomeBuilder accumulates results from many concurrently completing
// operations. All methods are safe for concurrent use.
type OutcomeBuilder[T any] struct {
	mu        sync.Mutex
	successes []T
	failures  []error
}

// NewOutcomeBuilder creates an empty builder.
func NewOutcomeBuilder[T any]() *OutcomeBuilder[T] {
	return &OutcomeBuilder[T]{}
}

// Add records a successful value.
func (b *OutcomeBuilder[T]) Add(value T) *OutcomeBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.successes = append(b.successes, value)
	return b
}

// AddError records a failure.
func (b *OutcomeBuilder[T]) AddError(err error) *OutcomeBuilder[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = append(b.failures, err)
	return b
}

// AddMessage records msg as a failure if it carries an error, as a success otherwise.
func (b *OutcomeBuilder[T]) AddMessage(msg Message[T]) *OutcomeBuilder[T] {
	if msg.Failed() {
		return b.AddError(msg.Error)
	}
	return b.Add(msg.Value)
}

// Build returns a snapshot of everything added so far. Later additions are
// not visible in the returned Outcome.
func (b *OutcomeBuilder[T]) Build() Outcome[T] {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Outcome[T]{
		successes: append(make([]T, 0, len(b.successes)), b.successes...),
		failures:  append(make([]error, 0, len(b.failures)), b.failures...),
	}
}
