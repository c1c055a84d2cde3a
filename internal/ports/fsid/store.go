// Package fsid persists the device's player identity in a small file, so the
// same player id survives process restarts.
package fsid

import (
	"os"
	"path/filepath"
	"strings"
)

type Store struct {
	path string
}

func New(path string) *Store {
	return &Store{path: path}
}

// Load returns the stored player id, or "" when none has been saved yet.
func (s *Store) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the player id, creating parent directories as needed.
func (s *Store) Save(id string) error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(s.path, []byte(id+"\n"), 0o600)
}
