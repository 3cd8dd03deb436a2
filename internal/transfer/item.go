package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Opener lazily opens the content of a staged file.
// Content is never read until an archive is built or the upload starts.
type Opener interface {
	Open() (io.ReadCloser, error)
}

// FileHandle is an Opener backed by an absolute path on the local filesystem.
type FileHandle string

func (h FileHandle) Open() (io.ReadCloser, error) {
	return os.Open(string(h))
}

// CurrentSize stats the file without opening it.
func (h FileHandle) CurrentSize() (int64, error) {
	info, err := os.Stat(string(h))
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Sizer is implemented by openers that can report the current content size
// without reading it.
type Sizer interface {
	CurrentSize() (int64, error)
}

// OpenerFunc adapts a function to the Opener interface.
type OpenerFunc func() (io.ReadCloser, error)

func (f OpenerFunc) Open() (io.ReadCloser, error) { return f() }

// UploadItem is one file staged for transfer.
//
// Path is slash-separated and rooted at "/", preserving the folder the file
// was added under (e.g. "/photos/a.jpg"). Source is set when the content
// lives on the local filesystem, so the item can be persisted and reopened.
type UploadItem struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Source string `json:"source,omitempty"`
	Handle Opener `json:"-"`
}

// NewFileItem creates an UploadItem for a file on the local filesystem.
func NewFileItem(path, source string, size int64) UploadItem {
	return UploadItem{
		Name:   baseName(path),
		Path:   path,
		Size:   size,
		Source: source,
		Handle: FileHandle(source),
	}
}

// Open opens the item's content.
func (i UploadItem) Open() (io.ReadCloser, error) {
	if i.Handle != nil {
		return i.Handle.Open()
	}
	if i.Source != "" {
		return FileHandle(i.Source).Open()
	}
	return nil, fmt.Errorf("item %s has no content handle", i.Path)
}

// CheckSize compares the item's current size with its staged size. Items
// whose handle cannot report a size pass; their length is enforced while
// reading instead (see ExactReader).
func (i UploadItem) CheckSize() error {
	h := i.Handle
	if h == nil && i.Source != "" {
		h = FileHandle(i.Source)
	}
	sizer, ok := h.(Sizer)
	if !ok {
		return nil
	}
	size, err := sizer.CurrentSize()
	if err != nil {
		return fmt.Errorf("checking %s: %w", i.Path, err)
	}
	if size != i.Size {
		return &SizeChangedError{Path: i.Path, Staged: i.Size, Actual: size}
	}
	return nil
}

// CheckSizes runs CheckSize on every item and joins the failures.
func CheckSizes(items []UploadItem) error {
	var errs []error
	for _, item := range items {
		if err := item.CheckSize(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ExactReader yields exactly size bytes from r, the content of the staged
// file at path. It fails with a *SizeChangedError when r ends early or still
// has data once size bytes were read.
func ExactReader(path string, r io.Reader, size int64) io.Reader {
	return &exactReader{path: path, r: r, size: size}
}

type exactReader struct {
	path string
	r    io.Reader
	size int64
	read int64
}

func (e *exactReader) Read(p []byte) (int, error) {
	if e.read >= e.size {
		var extra [1]byte
		n, err := io.ReadFull(e.r, extra[:])
		switch {
		case n > 0:
			return 0, &SizeChangedError{Path: e.path, Staged: e.size, Actual: -1}
		case err == io.EOF:
			return 0, io.EOF
		default:
			return 0, err
		}
	}

	if rest := e.size - e.read; int64(len(p)) > rest {
		p = p[:rest]
	}
	n, err := e.r.Read(p)
	e.read += int64(n)
	if err == io.EOF {
		if e.read < e.size {
			return n, &SizeChangedError{Path: e.path, Staged: e.size, Actual: e.read}
		}
		err = nil
	}
	return n, err
}

// RelativePath returns the path without its leading slash. This is the name
// used inside archives and in the manifest sent to the backend.
func (i UploadItem) RelativePath() string {
	return strings.TrimPrefix(i.Path, "/")
}

func baseName(p string) string {
	if idx := strings.LastIndex(p, "/"); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// FileInfo is a {name, size} pair as exchanged with the backend, both in the
// upload manifest and in transfer listings.
type FileInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// Manifest returns the files_list entries for the staged items.
func Manifest(items []UploadItem) []FileInfo {
	out := make([]FileInfo, len(items))
	for i, item := range items {
		out[i] = FileInfo{Name: item.RelativePath(), Size: item.Size}
	}
	return out
}

// TotalSize returns the sum of the item sizes.
func TotalSize(items []UploadItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Size
	}
	return total
}

// ExpirationChoices are the link lifetimes the backend accepts, in days.
var ExpirationChoices = []int{3, 5, 7, 10}

// DefaultExpirationDays is used when no expiration is configured.
const DefaultExpirationDays = 7

// ValidExpiration reports whether days is one of ExpirationChoices.
func ValidExpiration(days int) bool {
	for _, d := range ExpirationChoices {
		if d == days {
			return true
		}
	}
	return false
}

// ArchiveName returns the generated archive name for t in local time:
// iTransfer_YYMMDDHHmm.zip.
func ArchiveName(t time.Time) string {
	return "iTransfer_" + t.Local().Format("0601021504") + ".zip"
}
