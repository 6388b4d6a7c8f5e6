package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenKey is the well-known name the token is persisted under.
const TokenKey = "token"

// TokenStore persists the session token between runs. Load returns "" and a
// nil error when nothing has been saved.
type TokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file named TokenKey inside Dir.
type FileTokenStore struct {
	Dir string
}

// DefaultTokenDir returns <user config dir>/snippet-vault.
func DefaultTokenDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("session: locating config dir: %w", err)
	}
	return filepath.Join(base, "snippet-vault"), nil
}

func (s *FileTokenStore) path() string {
	return filepath.Join(s.Dir, TokenKey)
}

func (s *FileTokenStore) Load() (string, error) {
	raw, err := os.ReadFile(s.path())
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("session: reading token: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Save writes the token with owner-only permissions.
func (s *FileTokenStore) Save(token string) error {
	if err := os.MkdirAll(s.Dir, 0o700); err != nil {
		return fmt.Errorf("session: creating token dir: %w", err)
	}
	tmp := s.path() + ".tmp"
	if err := os.WriteFile(tmp, []byte(token), 0o600); err != nil {
		return fmt.Errorf("session: writing token: %w", err)
	}
	if err := os.Rename(tmp, s.path()); err != nil {
		return fmt.Errorf("session: writing token: %w", err)
	}
	return nil
}

func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path())
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("session: removing token: %w", err)
	}
	return nil
}

// MemoryTokenStore is a TokenStore that lives only as long as the process.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

func (m *MemoryTokenStore) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token, nil
}

func (m *MemoryTokenStore) Save(token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MemoryTokenStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = ""
	return nil
}
