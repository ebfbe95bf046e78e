// Package fanin aggregates the results of many independently running
// asynchronous operations into a single partitioned result.
//
// The main components include:
//
//   - Future: a handle to an asynchronous operation that settles exactly once with a value or an error
//   - Outcome: an immutable snapshot of what succeeded and what failed
//   - OutcomeBuilder: a thread-safe accumulator that produces Outcome snapshots
//   - FanIn: waits on a fixed set of futures, either blocking (WaitForAll) or via a callback (WhenComplete)
//   - Collector: assembles a FanIn one future at a time, mergeable across goroutines
//   - Batcher: a streaming fan-in that emits one Outcome per time or size window
//
// Failures are data: a FanIn never aborts because an operation failed, and
// waiting never returns an operation's error. Callers inspect
// Outcome.Failures (or Outcome.Err) to find out what went wrong.
//
// A typical use:
//
//	c := fanin.NewCollector[string]()
//	for _, url := range urls {
//		c.Add(fanin.Go(ctx, func(ctx context.Context) (string, error) {
//			return fetch(ctx, url)
//		}))
//	}
//	fi, err := c.FanIn()
//	if err != nil {
//		return err
//	}
//	result := fi.WaitForAll()
//	log.Printf("fetched %d, failed %d: %s",
//		len(result.Successes()), len(result.Failures()), result.FailureMessages())
package fanin
