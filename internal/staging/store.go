package staging

import "itransfer/internal/transfer"

// stagingStore abstracts the storage mechanics for a staging area.
// Concurrency is managed by the caller (stagingArea.mu), so stores
// do not need to be safe for concurrent use.
type stagingStore interface {
	// Append adds items to the end of the queue.
	Append(items []transfer.UploadItem) error

	// Items returns the queue in staging order.
	Items() ([]transfer.UploadItem, error)

	// Reset empties the queue.
	Reset() error
}
