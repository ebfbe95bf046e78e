package fanin

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Batcher is a streaming fan-in. Futures sent to it are gathered into
// batches; every FlushPeriod (or as soon as MaxBatch futures are pending) the
// pending batch is fanned in and, once all of its futures settle, the batch's
// Outcome is sent on the output channel. Outcomes of different batches may
// arrive in any order.
type Batcher[T any] struct {
	FlushPeriod time.Duration
	// MaxBatch triggers an immediate flush when this many futures are pending.
	// Zero disables size based flushing.
	MaxBatch int

	log        *zap.Logger
	pending    *Collector[T]
	selfOwnIn  bool
	inputChan  chan *Future[T]
	selfOwnOut bool
	outputChan chan Outcome[T]
	cmdChan    chan batcherCmd
	wg         sync.WaitGroup
	inflight   sync.WaitGroup
	batches    int
}

const DefaultFlushPeriod = 100 * time.Millisecond

type batcherCmd struct {
	Name string
}

// BatcherOption is a functional option for configuring a Batcher
type BatcherOption[T any] func(*Batcher[T])

// WithFlushPeriod sets the flush period for the batcher
func WithFlushPeriod[T any](period time.Duration) BatcherOption[T] {
	return func(b *Batcher[T]) {
		b.FlushPeriod = period
	}
}

// WithMaxBatch sets the pending count that forces a flush
func WithMaxBatch[T any](n int) BatcherOption[T] {
	return func(b *Batcher[T]) {
		b.MaxBatch = n
	}
}

// WithInputChan sets the input channel for the batcher
func WithInputChan[T any](ch chan *Future[T]) BatcherOption[T] {
	return func(b *Batcher[T]) {
		b.inputChan = ch
		b.selfOwnIn = false
	}
}

// WithOutputChan sets the output channel for the batcher
func WithOutputChan[T any](ch chan Outcome[T]) BatcherOption[T] {
	return func(b *Batcher[T]) {
		b.outputChan = ch
		b.selfOwnOut = false
	}
}

// WithBatchLogger sets the logger used by the batcher and the FanIns it creates
func WithBatchLogger[T any](log *zap.Logger) BatcherOption[T] {
	return func(b *Batcher[T]) {
		if log != nil {
			b.log = log
		}
	}
}

// NewBatcher creates a batcher. If channels are not provided via options, the
// batcher creates and owns them. The batcher starts running immediately.
func NewBatcher[T any](opts ...BatcherOption[T]) *Batcher[T] {
	out := &Batcher[T]{
		FlushPeriod: DefaultFlushPeriod,
		log:         zap.NewNop(),
		pending:     NewCollector[T](),
		cmdChan:     make(chan batcherCmd),
		selfOwnIn:   true,
		selfOwnOut:  true,
	}
	for _, opt := range opts {
		opt(out)
	}
	if out.FlushPeriod <= 0 {
		out.FlushPeriod = DefaultFlushPeriod
	}
	if out.inputChan == nil {
		out.inputChan = make(chan *Future[T])
	}
	if out.outputChan == nil {
		out.outputChan = make(chan Outcome[T])
	}
	out.start()
	return out
}

// RecvChan returns the channel on which batch outcomes are delivered.
func (b *Batcher[T]) RecvChan() <-chan Outcome[T] {
	return b.outputChan
}

// SendChan returns the channel onto which futures can be sent.
func (b *Batcher[T]) SendChan() chan<- *Future[T] {
	return b.inputChan
}

// Send hands a future to the batcher.
func (b *Batcher[T]) Send(future *Future[T]) {
	b.inputChan <- future
}

// Flush fans in whatever is pending right away.
func (b *Batcher[T]) Flush() {
	b.cmdChan <- batcherCmd{Name: "flush"}
}

// Stop flushes pending futures, waits until every batch has been delivered
// on the output channel and closes the channels the batcher owns. The output
// channel must be drained for Stop to return.
func (b *Batcher[T]) Stop() {
	b.cmdChan <- batcherCmd{Name: "stop"}
	b.wg.Wait()
	b.inflight.Wait()
	if b.selfOwnOut {
		close(b.outputChan)
	}
}

func (b *Batcher[T]) start() {
	ticker := time.NewTicker(b.FlushPeriod)
	b.wg.Add(1)
	go func() {
		defer func() {
			ticker.Stop()
			if b.selfOwnIn {
				close(b.inputChan)
			}
			b.wg.Done()
		}()
		in := b.inputChan
		for {
			select {
			case future, ok := <-in:
				if !ok {
					// closed by its owner; keep serving ticks and commands
					in = nil
					continue
				}
				if future == nil {
					continue
				}
				b.pending.Add(future)
				if b.MaxBatch > 0 && b.pending.Len() >= b.MaxBatch {
					b.flush()
				}
			case <-ticker.C:
				b.flush()
			case cmd := <-b.cmdChan:
				b.flush()
				if cmd.Name == "stop" {
					return
				}
			}
		}
	}()
}

func (b *Batcher[T]) flush() {
	if b.pending.Len() == 0 {
		return
	}
	b.batches++
	size := b.pending.Len()
	fi, err := b.pending.FanIn(WithLogger(b.log), WithName("batch"))
	b.pending = NewCollector[T]()
	if err != nil {
		b.log.Error("could not fan in batch", zap.Error(err))
		return
	}
	b.log.Debug("flushing batch", zap.Int("batch", b.batches), zap.Int("size", size))
	b.inflight.Add(1)
	fi.WhenComplete(func(result Outcome[T]) {
		defer b.inflight.Done()
		b.outputChan <- result
	})
}
