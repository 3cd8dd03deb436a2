package staging

import (
	"fmt"
	"sync"

	"itransfer/internal/transfer"
)

// stagingArea implements transfer.StagingArea using a pluggable stagingStore
// for the storage mechanics. The size limit and locking live here.
type stagingArea struct {
	store   stagingStore
	maxSize int64
	mu      sync.Mutex
}

var _ transfer.StagingArea = (*stagingArea)(nil)

// Add appends items to the queue. Nothing is staged if the new total would
// exceed the size limit.
func (s *stagingArea) Add(items ...transfer.UploadItem) error {
	if len(items) == 0 {
		return nil
	}
	for _, item := range items {
		if err := validateItem(item); err != nil {
			return err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.sizeLocked()
	if err != nil {
		return fmt.Errorf("getting current size: %w", err)
	}
	if current+transfer.TotalSize(items) > s.maxSize {
		return fmt.Errorf("staging area full: would exceed max size of %d bytes", s.maxSize)
	}

	if err := s.store.Append(items); err != nil {
		return fmt.Errorf("adding to queue: %w", err)
	}
	return nil
}

// List returns the staged items in staging order.
func (s *stagingArea) List() ([]transfer.UploadItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Items()
}

// Count returns the number of staged items.
func (s *stagingArea) Count() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, err := s.store.Items()
	if err != nil {
		return 0, err
	}
	return len(items), nil
}

// Size returns the total size of staged items in bytes.
func (s *stagingArea) Size() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sizeLocked()
}

// Clear removes every staged item.
func (s *stagingArea) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Reset()
}

func (s *stagingArea) sizeLocked() (int64, error) {
	items, err := s.store.Items()
	if err != nil {
		return 0, err
	}
	return transfer.TotalSize(items), nil
}
