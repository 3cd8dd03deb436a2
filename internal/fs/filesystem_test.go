package fs

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"itransfer/internal/transfer"
)

func mkfile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOSFilesystemManager_Resolve(t *testing.T) {
	root := t.TempDir()
	mkfile(t, filepath.Join(root, "a.txt"), "hello")
	if err := os.Symlink(filepath.Join(root, "a.txt"), filepath.Join(root, "link")); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager()

	t.Run("file", func(t *testing.T) {
		e, err := m.Resolve(filepath.Join(root, "a.txt"))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if e.Kind() != transfer.EntryFile {
			t.Errorf("Kind() = %v, want file", e.Kind())
		}
		size, handle, source, err := e.File()
		if err != nil {
			t.Fatalf("File() error = %v", err)
		}
		if size != 5 {
			t.Errorf("size = %d, want 5", size)
		}
		if source != filepath.Join(root, "a.txt") {
			t.Errorf("source = %q", source)
		}
		rc, err := handle.Open()
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		data, _ := io.ReadAll(rc)
		rc.Close()
		if string(data) != "hello" {
			t.Errorf("content = %q", data)
		}
	})

	t.Run("directory", func(t *testing.T) {
		e, err := m.Resolve(root)
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if e.Kind() != transfer.EntryDir {
			t.Errorf("Kind() = %v, want directory", e.Kind())
		}
	})

	t.Run("rejects symlink", func(t *testing.T) {
		if _, err := m.Resolve(filepath.Join(root, "link")); err == nil {
			t.Fatal("Resolve() expected error for symlink")
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := m.Resolve(filepath.Join(root, "missing")); err == nil {
			t.Fatal("Resolve() expected error")
		}
	})
}

func TestWalk_OSDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "album")
	mkfile(t, filepath.Join(root, "cover.jpg"), "c")
	mkfile(t, filepath.Join(root, "disc1", "01.flac"), "11")
	mkfile(t, filepath.Join(root, "disc1", "02.flac"), "222")
	mkfile(t, filepath.Join(root, "disc2", "deep", "x.txt"), "x")
	if err := os.MkdirAll(filepath.Join(root, "empty"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "cover.jpg"), filepath.Join(root, "cover-link.jpg")); err != nil {
		t.Fatal(err)
	}
	// A directory symlink back to the root must not cause a cycle.
	if err := os.Symlink(root, filepath.Join(root, "disc2", "loop")); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager()
	e, err := m.Resolve(root)
	if err != nil {
		t.Fatal(err)
	}

	w := transfer.NewWalker(nil, nil).WithLimits(2, 1)
	items, err := w.Walk(context.Background(), []transfer.Entry{e})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}

	want := []string{
		"/album/cover.jpg",
		"/album/disc1/01.flac",
		"/album/disc1/02.flac",
		"/album/disc2/deep/x.txt",
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d: %+v", len(items), len(want), items)
	}
	for i, item := range items {
		if item.Path != want[i] {
			t.Errorf("items[%d].Path = %q, want %q", i, item.Path, want[i])
		}
	}
	if items[2].Size != 3 {
		t.Errorf("02.flac size = %d, want 3", items[2].Size)
	}
}

func TestWalk_OSDirectoryWithIgnore(t *testing.T) {
	root := filepath.Join(t.TempDir(), "project")
	mkfile(t, filepath.Join(root, "main.go"), "package main")
	mkfile(t, filepath.Join(root, "debug.log"), "log")
	mkfile(t, filepath.Join(root, "build", "out.o"), "o")

	m := NewOSFilesystemManager()
	e, err := m.Resolve(root)
	if err != nil {
		t.Fatal(err)
	}

	ignore := NewIgnoreMatcher([]string{"*.log", "project/build"})
	items, err := transfer.NewWalker(ignore, nil).Walk(context.Background(), []transfer.Entry{e})
	if err != nil {
		t.Fatalf("Walk() error = %v", err)
	}
	if len(items) != 1 || items[0].Path != "/project/main.go" {
		t.Errorf("items = %+v, want only /project/main.go", items)
	}
}

func TestOSEntry_IdentitySameDirectory(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "photos")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager()
	a, err := m.Resolve(dir)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Resolve(filepath.Join(root, ".", "photos"))
	if err != nil {
		t.Fatal(err)
	}
	other, err := m.Resolve(root)
	if err != nil {
		t.Fatal(err)
	}

	idA := a.(transfer.Identifier).Identity()
	if idA == "" {
		t.Fatal("Identity() is empty")
	}
	if idB := b.(transfer.Identifier).Identity(); idA != idB {
		t.Errorf("Identity() = %q and %q for the same directory", idA, idB)
	}
	if idO := other.(transfer.Identifier).Identity(); idO == idA {
		t.Errorf("Identity() = %q for different directories", idO)
	}
}
