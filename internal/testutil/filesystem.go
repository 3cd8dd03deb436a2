package testutil

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"itransfer/internal/transfer"
)

// MockEntry is an in-memory transfer.Entry. Build trees with MockFile,
// MockDir and MockOther.
type MockEntry struct {
	name     string
	kind     transfer.EntryKind
	content  []byte
	children []*MockEntry
	identity string

	openErr   error
	readErr   error
	pageLimit int

	mu    sync.Mutex
	opens int
}

// MockFile creates a file entry with the given content.
func MockFile(name, content string) *MockEntry {
	return &MockEntry{name: name, kind: transfer.EntryFile, content: []byte(content)}
}

// MockDir creates a directory entry.
func MockDir(name string, children ...*MockEntry) *MockEntry {
	return &MockEntry{name: name, kind: transfer.EntryDir, children: children}
}

// MockOther creates an entry that is neither a file nor a directory.
func MockOther(name string) *MockEntry {
	return &MockEntry{name: name, kind: transfer.EntryOther}
}

// Entries converts mock entries to the walker's input type.
func Entries(es ...*MockEntry) []transfer.Entry {
	out := make([]transfer.Entry, len(es))
	for i, e := range es {
		out[i] = e
	}
	return out
}

// AddChild appends a child after construction, which allows building cycles.
func (e *MockEntry) AddChild(c *MockEntry) *MockEntry {
	e.children = append(e.children, c)
	return e
}

// WithOpenError makes File and OpenDir fail with err.
func (e *MockEntry) WithOpenError(err error) *MockEntry {
	e.openErr = err
	return e
}

// WithReadError makes ReadEntries fail with err after the first page.
func (e *MockEntry) WithReadError(err error) *MockEntry {
	e.readErr = err
	return e
}

// WithPageLimit caps each ReadEntries page at n regardless of what is asked.
func (e *MockEntry) WithPageLimit(n int) *MockEntry {
	e.pageLimit = n
	return e
}

// WithIdentity sets the identity used for the visited guard.
func (e *MockEntry) WithIdentity(id string) *MockEntry {
	e.identity = id
	return e
}

// Opens returns how many times the file content was opened.
func (e *MockEntry) Opens() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opens
}

func (e *MockEntry) Name() string { return e.name }

func (e *MockEntry) Kind() transfer.EntryKind { return e.kind }

func (e *MockEntry) File() (int64, transfer.Opener, string, error) {
	if e.openErr != nil {
		return 0, nil, "", e.openErr
	}
	if e.kind != transfer.EntryFile {
		return 0, nil, "", fmt.Errorf("%s is not a file", e.name)
	}
	opener := transfer.OpenerFunc(func() (io.ReadCloser, error) {
		e.mu.Lock()
		e.opens++
		e.mu.Unlock()
		return io.NopCloser(bytes.NewReader(e.content)), nil
	})
	return int64(len(e.content)), opener, "", nil
}

func (e *MockEntry) OpenDir() (transfer.DirReader, error) {
	if e.openErr != nil {
		return nil, e.openErr
	}
	if e.kind != transfer.EntryDir {
		return nil, fmt.Errorf("%s is not a directory", e.name)
	}
	return &mockDirReader{entry: e}, nil
}

func (e *MockEntry) Identity() string {
	if e.identity != "" {
		return e.identity
	}
	return fmt.Sprintf("%p", e)
}

type mockDirReader struct {
	entry *MockEntry
	pos   int
	calls int
}

func (r *mockDirReader) ReadEntries(n int) ([]transfer.Entry, error) {
	if r.calls > 0 && r.entry.readErr != nil {
		return nil, r.entry.readErr
	}
	r.calls++

	children := r.entry.children
	if r.pos >= len(children) {
		return nil, io.EOF
	}
	if r.entry.pageLimit > 0 && r.entry.pageLimit < n {
		n = r.entry.pageLimit
	}
	end := min(r.pos+n, len(children))
	page := make([]transfer.Entry, 0, end-r.pos)
	for _, c := range children[r.pos:end] {
		page = append(page, c)
	}
	r.pos = end
	return page, nil
}

func (r *mockDirReader) Close() error { return nil }

var (
	_ transfer.Entry      = (*MockEntry)(nil)
	_ transfer.Identifier = (*MockEntry)(nil)
)
