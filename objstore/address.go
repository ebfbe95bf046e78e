// Package objstore provides object-storage helpers (addressing, listing,
// download, upload and deletion) over Google Cloud Storage, with batch
// variants that fan their per-object results into a single fanin.Outcome.
package objstore

import (
	"errors"
	"fmt"
	"strings"

	"github.com/panyam/fanin/weburl"
)

const (
	publicHost = "storage.googleapis.com"
	gsScheme   = "gs://"
)

var (
	ErrBlankBucket  = errors.New("objstore: blank bucket")
	ErrBlankKey     = errors.New("objstore: blank key")
	ErrInvalidGSURL = errors.New("objstore: invalid gs:// address")
)

// Address locates a single object.
type Address struct {
	Bucket string
	Key    string
}

// NewAddress joins keyParts with "/" into the key of an object in bucket.
func NewAddress(bucket string, keyParts ...string) (Address, error) {
	if strings.TrimSpace(bucket) == "" {
		return Address{}, ErrBlankBucket
	}
	if len(keyParts) == 0 {
		return Address{}, ErrBlankKey
	}
	for _, part := range keyParts {
		if strings.TrimSpace(part) == "" {
			return Address{}, fmt.Errorf("%w: in %q", ErrBlankKey, keyParts)
		}
	}
	return Address{Bucket: bucket, Key: strings.Join(keyParts, "/")}, nil
}

// ParseAddress parses "gs://bucket/key".
func ParseAddress(s string) (Address, error) {
	rest, ok := strings.CutPrefix(s, gsScheme)
	if !ok {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidGSURL, s)
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalidGSURL, s)
	}
	return NewAddress(bucket, key)
}

// URL returns the public https URL of the object.
func (a Address) URL() (string, error) {
	b := weburl.NewBuilder().Scheme(weburl.SchemeHTTPS).Host(publicHost).PathElement(a.Bucket)
	for _, part := range strings.Split(a.Key, "/") {
		b.PathElement(part)
	}
	u, err := b.Build()
	if err != nil {
		return "", fmt.Errorf("objstore: url for %s: %w", a, err)
	}
	return u.String(), nil
}

func (a Address) String() string {
	return gsScheme + a.Bucket + "/" + a.Key
}
