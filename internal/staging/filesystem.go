package staging

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"itransfer/internal/transfer"
)

// fileStore persists the queue as JSON so staged files survive between
// invocations.
//
// Directory structure:
//
//	<staging_dir>/
//	  queue.json    (ordered list of staged files)
type fileStore struct {
	queuePath string
}

func (f *fileStore) Append(items []transfer.UploadItem) error {
	queue, err := f.load()
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.Source == "" {
			return fmt.Errorf("%s has no local source and cannot be persisted", item.Path)
		}
		queue = append(queue, toStaged(item))
	}
	return f.save(queue)
}

func (f *fileStore) Items() ([]transfer.UploadItem, error) {
	queue, err := f.load()
	if err != nil {
		return nil, err
	}
	items := make([]transfer.UploadItem, len(queue))
	for i, s := range queue {
		items[i] = s.item()
	}
	return items, nil
}

func (f *fileStore) Reset() error {
	if err := os.Remove(f.queuePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing queue: %w", err)
	}
	return nil
}

func (f *fileStore) load() ([]stagedItem, error) {
	data, err := os.ReadFile(f.queuePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading queue: %w", err)
	}
	var queue []stagedItem
	if err := json.Unmarshal(data, &queue); err != nil {
		return nil, fmt.Errorf("decoding queue: %w", err)
	}
	return queue, nil
}

// save writes the queue atomically: temp file in the same directory, then rename.
func (f *fileStore) save(queue []stagedItem) error {
	data, err := json.MarshalIndent(queue, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding queue: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.queuePath), ".queue-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing queue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, f.queuePath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming queue: %w", err)
	}
	return nil
}

// Verify reports every persisted file that has disappeared or changed size
// since it was staged.
func (f *fileStore) Verify() error {
	queue, err := f.load()
	if err != nil {
		return err
	}
	var errs []error
	for _, s := range queue {
		if err := validateUnchanged(s); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FileSystemStagingArea is a staging area persisted under a directory.
type FileSystemStagingArea struct {
	*stagingArea
	store *fileStore
}

// NewFileSystemStagingArea creates a filesystem-backed staging area.
// maxSize is the maximum total size in bytes; must be positive.
func NewFileSystemStagingArea(stagingDir string, maxSize int64) (*FileSystemStagingArea, error) {
	if err := os.MkdirAll(stagingDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	store := &fileStore{queuePath: filepath.Join(stagingDir, "queue.json")}
	return &FileSystemStagingArea{
		stagingArea: &stagingArea{store: store, maxSize: maxSize},
		store:       store,
	}, nil
}

// Verify checks that every staged file is still present and unchanged.
func (f *FileSystemStagingArea) Verify() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.store.Verify()
}

var _ transfer.StagingArea = (*FileSystemStagingArea)(nil)
