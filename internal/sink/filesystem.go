package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// FileSystemSink writes payloads into a directory.
type FileSystemSink struct {
	name string
	root string
}

// NewFileSystemSink creates the root directory if needed.
func NewFileSystemSink(name, root string) (*FileSystemSink, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sink directory: %w", err)
	}
	return &FileSystemSink{name: name, root: root}, nil
}

func (s *FileSystemSink) Name() string { return s.name }

// Put writes the payload to <root>/<name> using atomic write (temp file + rename).
// An existing file with the same name is replaced.
func (s *FileSystemSink) Put(ctx context.Context, name string, r io.Reader, size int64) (string, error) {
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return "", fmt.Errorf("invalid file name: %q", name)
	}
	destPath := filepath.Join(s.root, base)

	tmpFile, err := os.CreateTemp(s.root, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, &ctxReader{ctx: ctx, r: r})
	if err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := checkSize(size, written); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return destPath, nil
}

// ValidateSetup verifies that the sink root is an accessible directory.
func (s *FileSystemSink) ValidateSetup() error {
	info, err := os.Stat(s.root)
	if err != nil {
		return fmt.Errorf("sink root not accessible: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("sink root is not a directory: %s", s.root)
	}
	return nil
}

// ctxReader stops a copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ Sink = (*FileSystemSink)(nil)
