package authzclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileStore persists the session mirror as a JSON file. The file is written
// atomically and readable only by the owning user.
type FileStore struct {
	path string
}

// NewFileStore builds a store rooted at the given file path. Parent
// directories are created on first save.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("authzclient: store path is required")
	}
	return &FileStore{path: path}, nil
}

// Load reads the stored session. A missing file returns (nil, nil).
func (s *FileStore) Load() (*Session, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("authzclient: read session file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("authzclient: decode session file: %w", err)
	}

	return &session, nil
}

// Save writes the session to disk, replacing any previous one.
func (s *FileStore) Save(session *Session) error {
	if session == nil {
		return s.Clear()
	}

	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("authzclient: encode session: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("authzclient: create session dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("authzclient: create temp session file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("authzclient: write session file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("authzclient: chmod session file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("authzclient: close session file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("authzclient: replace session file: %w", err)
	}

	return nil
}

// Clear removes the stored session. Clearing an absent file is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("authzclient: remove session file: %w", err)
	}
	return nil
}

var _ Store = (*FileStore)(nil)
