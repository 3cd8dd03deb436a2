package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"itransfer/internal/transfer"
)

// OSFilesystemManager resolves command-line paths into walker entries
// backed by the local filesystem.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Resolve validates a raw path and returns an Entry for it.
// Only regular files and directories are accepted at the top level; special
// files found while walking a directory are skipped by the walker instead.
func (m *OSFilesystemManager) Resolve(rawPath string) (transfer.Entry, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Lstat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	if mode&os.ModeSymlink != 0 {
		return nil, fmt.Errorf("symlinks not supported: %s", absPath)
	}
	if mode&os.ModeDevice != 0 {
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	}
	if mode&os.ModeNamedPipe != 0 {
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	}
	if mode&os.ModeSocket != 0 {
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	}

	return &osEntry{path: absPath, info: info}, nil
}

// ResolveAll resolves every path, stopping at the first failure.
func (m *OSFilesystemManager) ResolveAll(rawPaths []string) ([]transfer.Entry, error) {
	entries := make([]transfer.Entry, 0, len(rawPaths))
	for _, p := range rawPaths {
		e, err := m.Resolve(p)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// osEntry is a file or directory on the local filesystem. info comes from
// Lstat, so symlinks report as EntryOther and are never followed.
type osEntry struct {
	path string
	info fs.FileInfo
}

func (e *osEntry) Name() string {
	return e.info.Name()
}

func (e *osEntry) Kind() transfer.EntryKind {
	switch {
	case e.info.Mode().IsRegular():
		return transfer.EntryFile
	case e.info.IsDir():
		return transfer.EntryDir
	default:
		return transfer.EntryOther
	}
}

func (e *osEntry) File() (int64, transfer.Opener, string, error) {
	if !e.info.Mode().IsRegular() {
		return 0, nil, "", fmt.Errorf("not a regular file: %s", e.path)
	}
	return e.info.Size(), transfer.FileHandle(e.path), e.path, nil
}

func (e *osEntry) OpenDir() (transfer.DirReader, error) {
	if !e.info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", e.path)
	}
	f, err := os.Open(e.path)
	if err != nil {
		return nil, err
	}
	return &osDirReader{dir: e.path, f: f}, nil
}

// Identity names the underlying directory so that the same directory
// reached twice is only walked once: device and inode where the platform
// has them, the canonical path otherwise.
func (e *osEntry) Identity() string {
	if id, ok := statIdentity(e.info); ok {
		return id
	}
	if resolved, err := filepath.EvalSymlinks(e.path); err == nil {
		return resolved
	}
	return e.path
}

type osDirReader struct {
	dir string
	f   *os.File
}

func (r *osDirReader) ReadEntries(n int) ([]transfer.Entry, error) {
	des, readErr := r.f.ReadDir(n)

	entries := make([]transfer.Entry, 0, len(des))
	var errs []error
	for _, de := range des {
		info, err := de.Info()
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("stat %s: %w", de.Name(), err))
			continue
		}
		entries = append(entries, &osEntry{path: filepath.Join(r.dir, de.Name()), info: info})
	}

	if errors.Is(readErr, io.EOF) {
		return entries, io.EOF
	}
	if readErr != nil {
		errs = append(errs, readErr)
	}
	return entries, errors.Join(errs...)
}

func (r *osDirReader) Close() error {
	return r.f.Close()
}

var (
	_ transfer.Entry      = (*osEntry)(nil)
	_ transfer.Identifier = (*osEntry)(nil)
	_ transfer.DirReader  = (*osDirReader)(nil)
)
