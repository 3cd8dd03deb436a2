package sink

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemorySink keeps payloads in memory. Useful for tests.
// This implementation is safe for concurrent use.
type MemorySink struct {
	name  string
	files map[string][]byte
	mu    sync.RWMutex
}

// NewMemorySink creates a new in-memory sink with the given name.
func NewMemorySink(name string) *MemorySink {
	return &MemorySink{
		name:  name,
		files: make(map[string][]byte),
	}
}

func (m *MemorySink) Name() string { return m.name }

// Put stores the payload under name, replacing any earlier one.
func (m *MemorySink) Put(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read payload: %w", err)
	}
	if err := checkSize(size, int64(len(data))); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[name] = data
	return "memory://" + m.name + "/" + name, nil
}

// Get returns a stored payload.
func (m *MemorySink) Get(name string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.files[name]
	return data, ok
}

func (m *MemorySink) ValidateSetup() error { return nil }

var _ Sink = (*MemorySink)(nil)
