package fanin

import "iter"

// Collector accumulates futures one at a time so a FanIn can be assembled
// while work is still being submitted. Partial collectors built independently
// can be merged. A Collector is not safe for concurrent use; give each
// goroutine its own and Merge them afterwards.
type Collector[T any] struct {
	futures []*Future[T]
}

// NewCollector returns an empty Collector.
func NewCollector[T any]() *Collector[T] {
	return &Collector[T]{}
}

// Add appends futures to the pending sequence.
func (c *Collector[T]) Add(futures ...*Future[T]) *Collector[T] {
	c.futures = append(c.futures, futures...)
	return c
}

// Merge appends other's pending futures after this collector's own.
// other is left unchanged.
func (c *Collector[T]) Merge(other *Collector[T]) *Collector[T] {
	if other != nil {
		c.futures = append(c.futures, other.futures...)
	}
	return c
}

// Len returns the number of pending futures.
func (c *Collector[T]) Len() int {
	return len(c.futures)
}

// FanIn builds a FanIn over everything collected so far.
func (c *Collector[T]) FanIn(opts ...Option) (*FanIn[T], error) {
	futures := make([]*Future[T], len(c.futures))
	copy(futures, c.futures)
	return New(futures, opts...)
}

// Collect drains seq into a new Collector and builds a FanIn from it.
func Collect[T any](seq iter.Seq[*Future[T]], opts ...Option) (*FanIn[T], error) {
	c := NewCollector[T]()
	for f := range seq {
		c.Add(f)
	}
	return c.FanIn(opts...)
}
