package staging

import "itransfer/internal/transfer"

// memoryStore keeps the queue in a slice. Items may carry any content handle.
type memoryStore struct {
	items []transfer.UploadItem
}

func (m *memoryStore) Append(items []transfer.UploadItem) error {
	m.items = append(m.items, items...)
	return nil
}

func (m *memoryStore) Items() ([]transfer.UploadItem, error) {
	out := make([]transfer.UploadItem, len(m.items))
	copy(out, m.items)
	return out, nil
}

func (m *memoryStore) Reset() error {
	m.items = nil
	return nil
}

// NewMemoryStagingArea creates a staging area that lives as long as the process.
// maxSize is the maximum total size in bytes; must be positive.
func NewMemoryStagingArea(maxSize int64) transfer.StagingArea {
	return &stagingArea{store: &memoryStore{}, maxSize: maxSize}
}
