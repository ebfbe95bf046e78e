// Package interval generates evenly stepped instants between two points in
// time, truncated to a unit, and formats days for object keys.
package interval

import (
	"errors"
	"fmt"
	"iter"
	"time"
)

// DayLayout is the layout used for day-granularity keys.
const DayLayout = "2006-01-02"

// Unit is the precision of an interval.
type Unit int

const (
	Minute Unit = iota
	Hour
	Day
)

func (u Unit) Duration() time.Duration {
	switch u {
	case Minute:
		return time.Minute
	case Hour:
		return time.Hour
	default:
		return 24 * time.Hour
	}
}

func (u Unit) String() string {
	switch u {
	case Minute:
		return "minute"
	case Hour:
		return "hour"
	default:
		return "day"
	}
}

var ErrNegativeDays = errors.New("interval: days must not be negative")

// Truncate rounds t down to unit in UTC.
func Truncate(t time.Time, unit Unit) time.Time {
	t = t.UTC()
	switch unit {
	case Minute:
		return t.Truncate(time.Minute)
	case Hour:
		return t.Truncate(time.Hour)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// Interval is a stepped range between two instants. Both ends are truncated
// to the step unit on construction.
type Interval struct {
	Begin        time.Time
	End          time.Time
	Step         Unit
	IncludeBegin bool
	IncludeEnd   bool
}

// Closed returns [begin, end].
func Closed(begin, end time.Time, step Unit) Interval {
	return Interval{Begin: Truncate(begin, step), End: Truncate(end, step), Step: step, IncludeBegin: true, IncludeEnd: true}
}

// Open returns (begin, end).
func Open(begin, end time.Time, step Unit) Interval {
	return Interval{Begin: Truncate(begin, step), End: Truncate(end, step), Step: step}
}

// Instants yields every step in the interval in ascending order.
func (i Interval) Instants() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for t := i.Begin; !t.After(i.End); t = next(t, i.Step) {
			if t.Equal(i.Begin) && !i.IncludeBegin {
				continue
			}
			if t.Equal(i.End) && !i.IncludeEnd {
				return
			}
			if !yield(t) {
				return
			}
		}
	}
}

// Slice collects Instants.
func (i Interval) Slice() []time.Time {
	var out []time.Time
	for t := range i.Instants() {
		out = append(out, t)
	}
	return out
}

func (i Interval) String() string {
	lo, hi := "(", ")"
	if i.IncludeBegin {
		lo = "["
	}
	if i.IncludeEnd {
		hi = "]"
	}
	return fmt.Sprintf("%s%s, %s%s/%s", lo, i.Begin.Format(time.RFC3339), i.End.Format(time.RFC3339), hi, i.Step)
}

// Calendar days do not always last 24h across zones, so days step by date.
func next(t time.Time, step Unit) time.Time {
	if step == Day {
		return t.AddDate(0, 0, 1)
	}
	return t.Add(step.Duration())
}

// EndingOn returns the n days of the closed range [end-n+1, end].
func EndingOn(end time.Time, n int) []time.Time {
	if n <= 0 {
		return nil
	}
	end = Truncate(end, Day)
	return Closed(end.AddDate(0, 0, -(n-1)), end, Day).Slice()
}

// DaysAgo returns the start of the day n days before now.
func DaysAgo(now time.Time, n int) (time.Time, error) {
	if n < 0 {
		return time.Time{}, fmt.Errorf("%w: %d", ErrNegativeDays, n)
	}
	return Truncate(now, Day).AddDate(0, 0, -n), nil
}

// ParseDay parses a "2006-01-02" day in UTC.
func ParseDay(s string) (time.Time, error) {
	return time.ParseInLocation(DayLayout, s, time.UTC)
}

// FormatDay renders t as "2006-01-02" in UTC.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayLayout)
}
