// Package storage provides the minimal file-backed key/value store consumed
// by the cache gate: read, write, delete and existence checks for named
// entries under a configurable root directory. Keys are slash-separated
// relative paths; writers to the same key race harmlessly because cached
// payloads are content-addressed and byte-identical by construction.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Store is a file-backed key/value store rooted at a single directory.
// The zero value is not usable; construct with [New].
type Store struct {
	root string
}

// New creates a Store rooted at the given directory. The directory is
// created lazily on first write.
func New(root string) *Store {
	return &Store{root: root}
}

// Root returns the root directory of the store.
func (s *Store) Root() string { return s.root }

// SanitizeKey normalizes a caller-chosen key fragment so it cannot escape
// the store root: parent references are stripped and the result carries no
// leading or trailing separators.
func SanitizeKey(key string) string {
	key = strings.ReplaceAll(key, "..", "")
	return strings.Trim(key, "/")
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(SanitizeKey(key)))
}

// Exists reports whether an entry with the given key is present.
func (s *Store) Exists(key string) bool {
	_, err := os.Stat(s.path(key))
	return err == nil
}

// Read returns the payload stored under key. A missing entry is reported
// as an error wrapping fs.ErrNotExist.
func (s *Store) Read(key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, fmt.Errorf("storage: read %s: %w", key, err)
	}
	return data, nil
}

// Write stores the payload under key, creating parent directories as needed
// and replacing any previous payload.
func (s *Store) Write(key string, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("storage: create dir for %s: %w", key, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("storage: write %s: %w", key, err)
	}
	return nil
}

// Delete removes the entry stored under key. It reports whether an entry
// was actually removed; deleting a missing entry is not an error.
func (s *Store) Delete(key string) (bool, error) {
	err := os.Remove(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("storage: delete %s: %w", key, err)
	}
	return true, nil
}

// Flush removes every entry under the given key prefix (a directory).
// It reports whether anything was removed.
func (s *Store) Flush(prefix string) (bool, error) {
	path := s.path(prefix)
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err := os.RemoveAll(path); err != nil {
		return false, fmt.Errorf("storage: flush %s: %w", prefix, err)
	}
	return true, nil
}
