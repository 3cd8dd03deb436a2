package transfer

import (
	"bytes"
	"io"
)

// Archive is a generated in-memory bundle of staged items.
type Archive struct {
	Name string
	Data []byte
}

// Size returns the archive length in bytes.
func (a *Archive) Size() int64 {
	return int64(len(a.Data))
}

// Open returns a reader over the archive bytes.
func (a *Archive) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(a.Data)), nil
}

// Archiver bundles several staged items into one compressed archive,
// reporting progress as items are consumed and the archive is finalized.
type Archiver interface {
	Build(items []UploadItem, progress ProgressFunc) (*Archive, error)
}
