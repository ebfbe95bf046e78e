package fanin

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// FanIn waits on a fixed set of futures and partitions their results into
// a single Outcome. A failing future never affects the others; its error is
// recorded as data.
type FanIn[T any] struct {
	name    string
	log     *zap.Logger
	outcome *OutcomeBuilder[T]
	count   int
	wg      sync.WaitGroup
	done    chan struct{}
}

// Option configures a FanIn.
type Option func(*options)

type options struct {
	name string
	log  *zap.Logger
}

// WithLogger sets the logger used for debug output. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) {
		if log != nil {
			o.log = log
		}
	}
}

// WithName labels the FanIn in log output.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

// Of creates a FanIn over a single future. Panics if future is nil.
func Of[T any](future *Future[T], opts ...Option) *FanIn[T] {
	fi, err := New([]*Future[T]{future}, opts...)
	if err != nil {
		panic(err)
	}
	return fi
}

// New creates a FanIn over futures and attaches a completion handler to each.
// Every entry is tracked independently, so a future listed twice contributes
// twice. Returns ErrNoOperations for an empty slice and ErrNilOperation if any
// entry is nil; in either case nothing has been wrapped.
func New[T any](futures []*Future[T], opts ...Option) (*FanIn[T], error) {
	if len(futures) == 0 {
		return nil, ErrNoOperations
	}
	for _, f := range futures {
		if f == nil {
			return nil, ErrNilOperation
		}
	}
	o := options{name: "fanin", log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	fi := &FanIn[T]{
		name:    o.name,
		log:     o.log,
		outcome: NewOutcomeBuilder[T](),
		count:   len(futures),
		done:    make(chan struct{}),
	}
	fi.wg.Add(len(futures))
	for _, f := range futures {
		f.OnComplete(fi.handle)
	}
	go func() {
		fi.wg.Wait()
		result := fi.outcome.Build()
		fi.log.Debug("fan-in settled",
			zap.String("name", fi.name),
			zap.Int("operations", fi.count),
			zap.Int("succeeded", len(result.successes)),
			zap.Int("failed", len(result.failures)))
		close(fi.done)
	}()
	return fi, nil
}

func (fi *FanIn[T]) handle(value T, err error) {
	defer fi.wg.Done()
	if err != nil {
		fi.outcome.AddError(err)
	} else {
		fi.outcome.Add(value)
	}
}

// Len returns the number of tracked operations.
func (fi *FanIn[T]) Len() int {
	return fi.count
}

// Done returns a channel that is closed once every operation has settled.
func (fi *FanIn[T]) Done() <-chan struct{} {
	return fi.done
}

// Snapshot returns whatever has been recorded so far without waiting.
func (fi *FanIn[T]) Snapshot() Outcome[T] {
	return fi.outcome.Build()
}

// WaitForAll blocks until every operation has settled and returns the outcome.
func (fi *FanIn[T]) WaitForAll() Outcome[T] {
	<-fi.done
	return fi.outcome.Build()
}

// WaitForAllTimeout is like WaitForAll but gives up after timeout and returns
// the partial outcome recorded so far. Giving up is not reported; compare
// the outcome's Len with Len to detect it. Operations still running are not
// cancelled and keep recording into the FanIn, which later calls will see.
func (fi *FanIn[T]) WaitForAllTimeout(timeout time.Duration) Outcome[T] {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	result, _ := fi.Wait(ctx)
	return result
}

// Wait blocks until every operation has settled or ctx is done. In the
// latter case it returns the partial outcome together with ctx.Err().
func (fi *FanIn[T]) Wait(ctx context.Context) (Outcome[T], error) {
	select {
	case <-fi.done:
		return fi.outcome.Build(), nil
	case <-ctx.Done():
		result := fi.outcome.Build()
		fi.log.Debug("gave up waiting for fan-in",
			zap.String("name", fi.name),
			zap.Int("operations", fi.count),
			zap.Int("settled", result.Len()),
			zap.Error(ctx.Err()))
		return result, ctx.Err()
	}
}

// WhenComplete calls cb exactly once, on its own goroutine, after every
// operation has settled. It does not block the caller, and fires even if all
// operations settled before it was called.
func (fi *FanIn[T]) WhenComplete(cb func(Outcome[T])) {
	go func() {
		<-fi.done
		cb(fi.outcome.Build())
	}()
}
