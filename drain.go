package fanin

import (
	"context"
	"errors"
	"io"
)

// ReadFunc produces the next value of a stream. Returning io.EOF ends the
// stream cleanly.
type ReadFunc[T any] func() (T, error)

// Stream calls read repeatedly on a new goroutine and sends each result on
// the returned channel, which has the given buffer size. The first error
// other than io.EOF is sent as a failed Message and ends the stream. The
// channel is closed when the stream ends or ctx is done.
func Stream[T any](ctx context.Context, read ReadFunc[T], buffer int) <-chan Message[T] {
	out := make(chan Message[T], buffer)
	go func() {
		defer close(out)
		for ctx.Err() == nil {
			value, err := read()
			if errors.Is(err, io.EOF) {
				return
			}
			select {
			case out <- Message[T]{Value: value, Error: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()
	return out
}

// Drain receives from ch until it is closed and partitions what it received
// into an Outcome. If ctx is done first, the messages received so far are
// returned together with ctx.Err().
func Drain[T any](ctx context.Context, ch <-chan Message[T]) (Outcome[T], error) {
	b := NewOutcomeBuilder[T]()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return b.Build(), nil
			}
			b.AddMessage(msg)
		case <-ctx.Done():
			return b.Build(), ctx.Err()
		}
	}
}
