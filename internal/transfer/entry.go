package transfer

// EntryKind distinguishes files from directories. Anything else (symlinks,
// devices, pipes, sockets) is EntryOther and is skipped by the walker.
type EntryKind int

const (
	EntryOther EntryKind = iota
	EntryFile
	EntryDir
)

func (k EntryKind) String() string {
	switch k {
	case EntryFile:
		return "file"
	case EntryDir:
		return "directory"
	default:
		return "other"
	}
}

// Entry is a file or directory handle handed to the walker, either from a
// path given on the command line or from an in-memory tree.
type Entry interface {
	// Name is the base name of the entry.
	Name() string

	Kind() EntryKind

	// File returns the size and a lazy content handle. Only valid for EntryFile.
	File() (size int64, handle Opener, source string, err error)

	// OpenDir opens a paginated reader over the children. Only valid for EntryDir.
	OpenDir() (DirReader, error)
}

// DirReader reads the children of a directory in pages.
// ReadEntries returns io.EOF once the directory has no further entries;
// a short page does not mean the directory is exhausted.
type DirReader interface {
	ReadEntries(n int) ([]Entry, error)
	Close() error
}

// Identifier is implemented by entries that can name the underlying object
// independently of the path they were reached by. The walker uses it to
// avoid visiting the same directory twice.
type Identifier interface {
	Identity() string
}
