// Package sink stores downloaded transfer payloads.
package sink

import (
	"context"
	"fmt"
	"io"
)

// Sink is a destination for a downloaded payload.
type Sink interface {
	Name() string
	// Put stores size bytes read from r under name and returns where they landed.
	// Implementations fail if r does not yield exactly size bytes. A negative
	// size means the length is unknown and is not checked.
	Put(ctx context.Context, name string, r io.Reader, size int64) (string, error)
	// ValidateSetup checks that the destination is reachable and writable.
	ValidateSetup() error
}

func checkSize(expected, written int64) error {
	if expected >= 0 && written != expected {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expected, written)
	}
	return nil
}

// countingReader counts the bytes passed through it.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
