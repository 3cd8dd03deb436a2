package session

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"itransfer/internal/config"
	"itransfer/internal/encryption"
)

func newAgeStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	enc := encryption.NewAgeEncryptor(config.EncryptionConfig{
		Type:         "age",
		IdentityPath: filepath.Join(dir, "keys", "itransfer.key"),
	})
	if err := enc.Setup(); err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	path := filepath.Join(dir, "session.age")
	return NewStore(path, enc), path
}

func TestStore_LoadMissing(t *testing.T) {
	s, _ := newAgeStore(t)

	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.IsAuthenticated() {
		t.Error("Load() on missing session should be unauthenticated")
	}
}

func TestStore_SaveLoadClear(t *testing.T) {
	s, path := newAgeStore(t)

	if err := s.Save("admin-token"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(raw, []byte("admin-token")) {
		t.Error("session file contains the plaintext token")
	}

	state, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	token, err := state.Require()
	if err != nil {
		t.Fatalf("Require() error = %v", err)
	}
	if token != "admin-token" {
		t.Errorf("token = %q, want %q", token, "admin-token")
	}

	if err := s.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("session file still exists after Clear()")
	}
	if err := s.Clear(); err != nil {
		t.Errorf("second Clear() error = %v", err)
	}
}

func TestStore_PlainEncryption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session")
	s := NewStore(path, encryption.PlainEncryptor{})

	if err := s.Save("tok"); err != nil {
		t.Fatal(err)
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != "tok" {
		t.Errorf("file = %q, want plain token", raw)
	}

	state, err := s.Load()
	if err != nil {
		t.Fatal(err)
	}
	if state.Token() != "tok" {
		t.Errorf("Token() = %q, want %q", state.Token(), "tok")
	}
}

func TestStore_SaveEmpty(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "session"), encryption.PlainEncryptor{})
	if err := s.Save(""); err == nil {
		t.Error("Save(\"\") should fail")
	}
}

func TestStore_CorruptSession(t *testing.T) {
	s, path := newAgeStore(t)
	if err := os.WriteFile(path, []byte("not age data"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load(); err == nil {
		t.Error("Load() of corrupt session should fail")
	}
}
