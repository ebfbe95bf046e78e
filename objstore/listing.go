package objstore

import "time"

// Listing is the set of objects found under a prefix.
type Listing struct {
	Bucket  string
	Prefix  string
	Objects []ObjectInfo
}

// Addresses returns the address of every listed object.
func (l *Listing) Addresses() []Address {
	out := make([]Address, len(l.Objects))
	for i, o := range l.Objects {
		out[i] = o.Address
	}
	return out
}

// Between keeps the objects updated in [begin, end).
func (l *Listing) Between(begin, end time.Time) *Listing {
	return l.filter(func(o ObjectInfo) bool {
		return !o.Updated.Before(begin) && o.Updated.Before(end)
	})
}

// After keeps the objects updated at or after begin.
func (l *Listing) After(begin time.Time) *Listing {
	return l.filter(func(o ObjectInfo) bool { return !o.Updated.Before(begin) })
}

// Before keeps the objects updated strictly before end.
func (l *Listing) Before(end time.Time) *Listing {
	return l.filter(func(o ObjectInfo) bool { return o.Updated.Before(end) })
}

func (l *Listing) filter(keep func(ObjectInfo) bool) *Listing {
	out := &Listing{Bucket: l.Bucket, Prefix: l.Prefix}
	for _, o := range l.Objects {
		if keep(o) {
			out.Objects = append(out.Objects, o)
		}
	}
	return out
}
