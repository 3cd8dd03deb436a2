package staging

import (
	"fmt"
	"os"
	"strings"

	"itransfer/internal/transfer"
)

// stagedItem is the persisted form of a staged file. Only files that live on
// the local filesystem can be persisted; their content is reopened from Source.
type stagedItem struct {
	Name   string `json:"name"`
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Source string `json:"source"`
}

func toStaged(item transfer.UploadItem) stagedItem {
	return stagedItem{Name: item.Name, Path: item.Path, Size: item.Size, Source: item.Source}
}

func (s stagedItem) item() transfer.UploadItem {
	return transfer.UploadItem{
		Name:   s.Name,
		Path:   s.Path,
		Size:   s.Size,
		Source: s.Source,
		Handle: transfer.FileHandle(s.Source),
	}
}

func validateItem(item transfer.UploadItem) error {
	if !strings.HasPrefix(item.Path, "/") {
		return fmt.Errorf("invalid path %q: must start with /", item.Path)
	}
	if item.Size < 0 {
		return fmt.Errorf("invalid size %d for %s", item.Size, item.Path)
	}
	return nil
}

// validateUnchanged checks that a persisted file still exists with the size it
// had when it was staged.
func validateUnchanged(s stagedItem) error {
	info, err := os.Stat(s.Source)
	if err != nil {
		return fmt.Errorf("staged file %s: %w", s.Path, err)
	}
	if info.Size() != s.Size {
		return &transfer.SizeChangedError{Path: s.Path, Staged: s.Size, Actual: info.Size()}
	}
	return nil
}
