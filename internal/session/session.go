// Package session persists the backend auth token between invocations.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"itransfer/internal/encryption"
	"itransfer/internal/transfer"
)

// Store keeps the token in a single file, encrypted with enc.
type Store struct {
	path string
	enc  encryption.Encryptor
}

// NewStore creates a Store writing to path.
func NewStore(path string, enc encryption.Encryptor) *Store {
	return &Store{path: path, enc: enc}
}

// Save writes the token, replacing any previous session.
func (s *Store) Save(token string) error {
	if token == "" {
		return fmt.Errorf("empty token")
	}

	var buf bytes.Buffer
	if err := s.enc.Encrypt(strings.NewReader(token), &buf); err != nil {
		return fmt.Errorf("encrypting session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing session: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing session file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// Load returns the stored AuthState. A missing session file is
// Unauthenticated, not an error.
func (s *Store) Load() (transfer.AuthState, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return transfer.Unauthenticated(), nil
		}
		return transfer.Unauthenticated(), fmt.Errorf("reading session: %w", err)
	}

	var out bytes.Buffer
	if err := s.enc.Decrypt(bytes.NewReader(data), &out); err != nil {
		return transfer.Unauthenticated(), fmt.Errorf("decrypting session: %w", err)
	}

	token := strings.TrimSpace(out.String())
	if token == "" {
		return transfer.Unauthenticated(), nil
	}
	return transfer.Authenticated(token), nil
}

// Clear removes the session file. Clearing a missing session is a no-op.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing session: %w", err)
	}
	return nil
}
