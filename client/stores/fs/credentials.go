// Package fs keeps mesto client sessions in a JSON file.
package fs

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/panyam/mesto/client"
	fsstore "github.com/panyam/mesto/stores/fs"
)

// DefaultAppName names the config subdirectory used when no path is given.
const DefaultAppName = "mesto"

const credentialsFileName = "credentials.json"

// DefaultPath returns <user config dir>/<appName>/credentials.json, falling
// back to ~/.config when the platform has no config dir.
func DefaultPath(appName string) (string, error) {
	if appName == "" {
		appName = DefaultAppName
	}
	base, err := os.UserConfigDir()
	if err != nil {
		home, herr := os.UserHomeDir()
		if herr != nil {
			return "", fmt.Errorf("no config directory: %w", errors.Join(err, herr))
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, appName, credentialsFileName), nil
}

// sessionFile is the on-disk layout, keyed by scheme://host.
type sessionFile struct {
	Servers map[string]*client.ServerCredential `json:"servers"`
}

// CredentialStore keeps one session per server. Changes stay in memory
// until Save; the file is only readable by its owner.
type CredentialStore struct {
	path string

	mu    sync.RWMutex
	byKey map[string]*client.ServerCredential
	dirty bool
}

// NewCredentialStore opens the sessions file at path, or DefaultPath(appName)
// when path is empty. A missing file is an empty store. Sessions that have
// already expired are dropped while loading.
func NewCredentialStore(path string, appName string) (*CredentialStore, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(appName); err != nil {
			return nil, err
		}
	}
	s := &CredentialStore{path: path, byKey: map[string]*client.ServerCredential{}}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, err
	}
	var file sessionFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	for key, cred := range file.Servers {
		if cred != nil && !cred.IsExpired() {
			s.byKey[key] = cred
		}
	}
	s.dirty = len(s.byKey) != len(file.Servers)
	return s, nil
}

// Path returns the sessions file location.
func (s *CredentialStore) Path() string { return s.path }

// keyFor reduces a server URL to scheme://host. A missing scheme means https.
func keyFor(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("invalid server URL: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid server URL %q: no host", serverURL)
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "https"
	}
	return scheme + "://" + u.Host, nil
}

func (s *CredentialStore) GetCredential(serverURL string) (*client.ServerCredential, error) {
	key, err := keyFor(serverURL)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.byKey[key], nil
}

func (s *CredentialStore) SetCredential(serverURL string, cred *client.ServerCredential) error {
	return s.change(serverURL, func(key string) bool {
		s.byKey[key] = cred
		return true
	})
}

func (s *CredentialStore) RemoveCredential(serverURL string) error {
	return s.change(serverURL, func(key string) bool {
		_, had := s.byKey[key]
		delete(s.byKey, key)
		return had
	})
}

// change runs fn under the write lock and marks the store dirty when fn
// reports a change.
func (s *CredentialStore) change(serverURL string, fn func(key string) bool) error {
	key, err := keyFor(serverURL)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn(key) {
		s.dirty = true
	}
	return nil
}

// ListServers returns the keys of stored sessions in sorted order.
func (s *CredentialStore) ListServers() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.byKey)), nil
}

// Save writes the sessions file if anything changed since it was loaded or
// last saved.
func (s *CredentialStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	raw, err := json.MarshalIndent(sessionFile{Servers: s.byKey}, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding sessions: %w", err)
	}
	if err := fsstore.WriteFileAtomic(s.path, raw, 0600); err != nil {
		return fmt.Errorf("saving sessions: %w", err)
	}
	s.dirty = false
	return nil
}
