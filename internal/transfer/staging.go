package transfer

// StagingArea holds the ordered list of items waiting to be submitted.
// Adds are additive: new selections are appended, never replacing what is
// already staged. Duplicate paths are kept as-is.
type StagingArea interface {
	// Add appends items to the staged list. It fails without staging
	// anything if the total size would exceed the configured limit.
	Add(items ...UploadItem) error

	// List returns the staged items in staging order.
	List() ([]UploadItem, error)

	// Count returns the number of staged items.
	Count() (int, error)

	// Size returns the total size of staged items in bytes.
	Size() (int64, error)

	// Clear removes every staged item.
	Clear() error
}
