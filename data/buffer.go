// Package data holds a bounded byte buffer that is loaded exactly once.
package data

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

var (
	ErrAlreadyLoaded = errors.New("data: buffer already loaded")
	ErrNotLoaded     = errors.New("data: buffer not loaded")
	ErrTooLarge      = errors.New("data: content exceeds max size")
	ErrInvalidSize   = errors.New("data: size must be positive")
)

// Buffer holds at most MaxSize bytes. It can be loaded only once.
type Buffer struct {
	maxSize int
	bytes   []byte
	loaded  bool
}

// New returns an empty buffer that accepts up to maxSize bytes.
func New(maxSize int) *Buffer {
	return &Buffer{maxSize: maxSize}
}

func (b *Buffer) MaxSize() int {
	return b.maxSize
}

// LoadString loads the bytes of s.
func (b *Buffer) LoadString(s string) error {
	if b.loaded {
		return ErrAlreadyLoaded
	}
	if len(s) > b.maxSize {
		return fmt.Errorf("%w: %d > %d", ErrTooLarge, len(s), b.maxSize)
	}
	b.bytes = []byte(s)
	b.loaded = true
	return nil
}

// Load reads exactly size bytes from r.
func (b *Buffer) Load(size int64, r io.Reader) error {
	if size <= 0 {
		return ErrInvalidSize
	}
	if size > int64(b.maxSize) {
		return fmt.Errorf("%w: %d > %d", ErrTooLarge, size, b.maxSize)
	}
	if b.loaded {
		return ErrAlreadyLoaded
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(r, buf); err != nil {
		return fmt.Errorf("data: reading %d bytes: %w", size, err)
	}
	b.bytes = buf
	b.loaded = true
	return nil
}

// Reader returns a reader over the loaded bytes.
func (b *Buffer) Reader() (io.Reader, error) {
	if !b.loaded {
		return nil, ErrNotLoaded
	}
	return bytes.NewReader(b.bytes), nil
}

// Bytes returns a copy of the loaded bytes.
func (b *Buffer) Bytes() []byte {
	return bytes.Clone(b.bytes)
}

func (b *Buffer) Len() int {
	return len(b.bytes)
}

func (b *Buffer) String() string {
	return string(b.bytes)
}
