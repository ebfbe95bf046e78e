package objstore

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by a Store when an object does not exist.
var ErrNotFound = errors.New("objstore: object not found")

// ObjectInfo describes a listed object.
type ObjectInfo struct {
	Address     Address
	Size        int64
	ContentType string
	Updated     time.Time
}

// Store is the storage backend the Client runs against.
type Store interface {
	// NewReader opens the object for reading and reports its size.
	NewReader(ctx context.Context, addr Address) (io.ReadCloser, int64, error)
	// NewWriter returns a writer whose Close commits the object.
	NewWriter(ctx context.Context, addr Address) io.WriteCloser
	Delete(ctx context.Context, addr Address) error
	// List returns every object in bucket whose key starts with prefix.
	List(ctx context.Context, bucket, prefix string) ([]ObjectInfo, error)
}
