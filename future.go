package fanin

import (
	"context"
	"errors"
	"sync"
)

// Future is a handle to an asynchronous operation that eventually settles
// with either a value or an error. Settling happens exactly once; later
// attempts are ignored.
type Future[T any] struct {
	mu        sync.Mutex
	done      chan struct{}
	value     T
	err       error
	callbacks []func(T, error)
}

// NewFuture creates a pending future to be settled by Complete, Fail or Cancel.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Completed returns a future that has already succeeded with value.
func Completed[T any](value T) *Future[T] {
	f := NewFuture[T]()
	f.Complete(value)
	return f
}

// Failed returns a future that has already failed with err.
func Failed[T any](err error) *Future[T] {
	f := NewFuture[T]()
	f.Fail(err)
	return f
}

// Go runs fn on a new goroutine and returns a future for its result.
// If ctx is already done, fn is not run and the future is cancelled.
// A panic in fn settles the future with a *PanicError.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Future[T] {
	f := NewFuture[T]()
	if ctx.Err() != nil {
		f.Cancel()
		return f
	}
	go func() {
		defer func() {
			if r := recover(); r != nil {
				f.Fail(&PanicError{Value: r})
			}
		}()
		value, err := fn(ctx)
		if err != nil {
			f.Fail(err)
		} else {
			f.Complete(value)
		}
	}()
	return f
}

// Complete settles the future with value. Returns false if it was already settled.
func (f *Future[T]) Complete(value T) bool {
	return f.settle(value, nil)
}

// Fail settles the future with err. A nil err is recorded as ErrNilFailure.
func (f *Future[T]) Fail(err error) bool {
	if err == nil {
		err = ErrNilFailure
	}
	var zero T
	return f.settle(zero, err)
}

// Cancel settles the future with ErrCancelled.
func (f *Future[T]) Cancel() bool {
	var zero T
	return f.settle(zero, ErrCancelled)
}

func (f *Future[T]) settle(value T, err error) bool {
	f.mu.Lock()
	select {
	case <-f.done:
		f.mu.Unlock()
		return false
	default:
	}
	f.value, f.err = value, err
	callbacks := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range callbacks {
		cb(value, err)
	}
	return true
}

// OnComplete registers cb to be called once the future settles. If it has
// already settled, cb is called immediately on the calling goroutine;
// otherwise it runs on the goroutine that settles the future.
// Registering a callback does not change what other consumers observe.
func (f *Future[T]) OnComplete(cb func(value T, err error)) {
	f.mu.Lock()
	select {
	case <-f.done:
		value, err := f.value, f.err
		f.mu.Unlock()
		cb(value, err)
		return
	default:
	}
	f.callbacks = append(f.callbacks, cb)
	f.mu.Unlock()
}

// Done returns a channel that is closed when the future settles.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// IsFailed returns true if the future settled with an error, including cancellation.
func (f *Future[T]) IsFailed() bool {
	_, err := f.Result()
	return err != nil && !errors.Is(err, ErrNotDone)
}

func (f *Future[T]) IsCancelled() bool {
	_, err := f.Result()
	return errors.Is(err, ErrCancelled)
}

// Result returns the settled value and error without blocking.
// While the future is pending it returns ErrNotDone.
func (f *Future[T]) Result() (T, error) {
	if !f.IsDone() {
		var zero T
		return zero, ErrNotDone
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.err
}

// Await blocks until the future settles or ctx is done.
func (f *Future[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.Result()
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// AwaitAll waits for every future and returns their values in input order.
// If any failed, the error of the first failed future (by position) is returned
// alongside the values that are available.
func AwaitAll[T any](ctx context.Context, futures ...*Future[T]) ([]T, error) {
	values := make([]T, len(futures))
	var firstErr error
	for i, f := range futures {
		v, err := f.Await(ctx)
		if ctx.Err() != nil {
			return values, ctx.Err()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
		values[i] = v
	}
	return values, firstErr
}

// Partition splits the settled futures into those that succeeded and those
// that failed. Pending futures appear in neither list.
func Partition[T any](futures []*Future[T]) (succeeded, failed []*Future[T]) {
	for _, f := range futures {
		if !f.IsDone() {
			continue
		}
		if f.IsFailed() {
			failed = append(failed, f)
		} else {
			succeeded = append(succeeded, f)
		}
	}
	return succeeded, failed
}
