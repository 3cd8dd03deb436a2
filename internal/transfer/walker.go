package transfer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
)

const (
	// DefaultWalkWorkers is the number of directories read concurrently.
	DefaultWalkWorkers = 4

	// DefaultPageSize is the number of children requested per directory read.
	DefaultPageSize = 128
)

// IgnoreMatcher reports whether a path relative to the staging root should be skipped.
type IgnoreMatcher interface {
	Match(relativePath string) bool
}

// Walker turns files and directory trees into a flat list of UploadItems,
// preserving the folder structure in each item's Path.
//
// Directories are expanded through an explicit work queue drained by a pool
// of workers, so sibling directories are read concurrently and deep trees do
// not grow the call stack.
type Walker struct {
	workers  int
	pageSize int
	ignore   IgnoreMatcher
	logger   Logger
}

// NewWalker creates a Walker. ignore may be nil.
func NewWalker(ignore IgnoreMatcher, logger Logger) *Walker {
	if logger == nil {
		logger = NewNopLogger()
	}
	return &Walker{
		workers:  DefaultWalkWorkers,
		pageSize: DefaultPageSize,
		ignore:   ignore,
		logger:   logger,
	}
}

// WithLimits overrides the worker count and directory page size.
// Non-positive values keep the current setting.
func (w *Walker) WithLimits(workers, pageSize int) *Walker {
	if workers > 0 {
		w.workers = workers
	}
	if pageSize > 0 {
		w.pageSize = pageSize
	}
	return w
}

type dirTask struct {
	top   int
	path  string
	entry Entry
}

type foundItem struct {
	top  int
	item UploadItem
}

// walkState is the queue shared by the workers of one Walk call.
type walkState struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []dirTask
	active  int
	visited map[string]struct{}
	found   []foundItem
	errs    []error
	ctxErr  bool
}

func newWalkState() *walkState {
	s := &walkState{visited: make(map[string]struct{})}
	s.cond = sync.NewCond(&s.mu)
	return s
}

func (s *walkState) push(t dirTask, key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.visited[key]; ok {
		return
	}
	s.visited[key] = struct{}{}
	s.queue = append(s.queue, t)
	s.cond.Signal()
}

func (s *walkState) add(f foundItem) {
	s.mu.Lock()
	s.found = append(s.found, f)
	s.mu.Unlock()
}

func (s *walkState) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		if s.ctxErr {
			return
		}
		s.ctxErr = true
	}
	s.errs = append(s.errs, err)
}

// next blocks until a task is available or all work is done.
func (s *walkState) next() (dirTask, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.queue) == 0 && s.active > 0 {
		s.cond.Wait()
	}
	if len(s.queue) == 0 {
		return dirTask{}, false
	}
	t := s.queue[0]
	s.queue = s.queue[1:]
	s.active++
	return t, true
}

func (s *walkState) done() {
	s.mu.Lock()
	s.active--
	s.mu.Unlock()
	s.cond.Broadcast()
}

// Walk expands entries into UploadItems.
//
// Files become "/<name>"; files under a directory become
// "/<dir>/<subdir>/.../<name>". Entries that are neither files nor
// directories are skipped. Read failures do not discard what was already
// collected: the items found so far are returned together with the joined errors.
//
// Items found under the same top-level entry are ordered by path; top-level
// entries keep their input order.
func (w *Walker) Walk(ctx context.Context, entries []Entry) ([]UploadItem, error) {
	s := newWalkState()
	for i, e := range entries {
		w.visit(s, i, "", e)
	}

	var wg sync.WaitGroup
	for range w.workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				t, ok := s.next()
				if !ok {
					return
				}
				w.readDir(ctx, s, t)
				s.done()
			}
		}()
	}
	wg.Wait()

	sort.SliceStable(s.found, func(a, b int) bool {
		if s.found[a].top != s.found[b].top {
			return s.found[a].top < s.found[b].top
		}
		return s.found[a].item.Path < s.found[b].item.Path
	})

	items := make([]UploadItem, len(s.found))
	for i, f := range s.found {
		items[i] = f.item
	}
	w.logger.Debug("walk complete", "entries", len(entries), "items", len(items), "errors", len(s.errs))
	return items, errors.Join(s.errs...)
}

// Files stages entries the way a file picker does: every file lands at the
// root as "/<name>". Directories are not expanded and are reported as errors.
func (w *Walker) Files(entries []Entry) ([]UploadItem, error) {
	var items []UploadItem
	var errs []error
	for _, e := range entries {
		switch e.Kind() {
		case EntryFile:
			item, err := fileItem("/"+e.Name(), e)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			items = append(items, item)
		case EntryDir:
			errs = append(errs, fmt.Errorf("%s is a directory", e.Name()))
		default:
			w.logger.Debug("skipping unsupported entry", "name", e.Name())
		}
	}
	return items, errors.Join(errs...)
}

func (w *Walker) visit(s *walkState, top int, parent string, e Entry) {
	path := parent + "/" + e.Name()
	if w.ignore != nil && w.ignore.Match(path[1:]) {
		w.logger.Debug("ignoring entry", "path", path)
		return
	}

	switch e.Kind() {
	case EntryFile:
		item, err := fileItem(path, e)
		if err != nil {
			s.fail(err)
			return
		}
		s.add(foundItem{top: top, item: item})
	case EntryDir:
		key := path
		if id, ok := e.(Identifier); ok {
			key = id.Identity()
		}
		s.push(dirTask{top: top, path: path, entry: e}, key)
	default:
		w.logger.Debug("skipping unsupported entry", "path", path, "kind", e.Kind().String())
	}
}

func (w *Walker) readDir(ctx context.Context, s *walkState, t dirTask) {
	if err := ctx.Err(); err != nil {
		s.fail(err)
		return
	}

	r, err := t.entry.OpenDir()
	if err != nil {
		s.fail(fmt.Errorf("opening directory %s: %w", t.path, err))
		return
	}
	defer r.Close()

	for {
		page, err := r.ReadEntries(w.pageSize)
		for _, child := range page {
			w.visit(s, t.top, t.path, child)
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if err != nil {
			s.fail(fmt.Errorf("reading directory %s: %w", t.path, err))
			return
		}
		if len(page) == 0 {
			return
		}
		if err := ctx.Err(); err != nil {
			s.fail(err)
			return
		}
	}
}

func fileItem(path string, e Entry) (UploadItem, error) {
	size, handle, source, err := e.File()
	if err != nil {
		return UploadItem{}, fmt.Errorf("reading file %s: %w", path, err)
	}
	return UploadItem{
		Name:   e.Name(),
		Path:   path,
		Size:   size,
		Source: source,
		Handle: handle,
	}, nil
}
