// Package settings stores per-user langkit settings: the API keys and
// endpoints of translation providers.
//
// The store lives in the XDG config directory:
//
//	$XDG_CONFIG_HOME/langkit/credentials.yaml  (default: ~/.config/langkit/)
//
// The file maps provider IDs to entries and is written with 0600
// permissions.
//
// Lookup order for API keys:
//  1. --api-key flag
//  2. LANGKIT_API_KEY environment variable
//  3. This store
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	dirName  = "langkit"
	fileName = "credentials.yaml"
)

// EnvAPIKey overrides stored keys for every provider.
const EnvAPIKey = "LANGKIT_API_KEY"

// Entry holds the credentials of one provider.
type Entry struct {
	Key     string `yaml:"key,omitempty"`
	BaseURL string `yaml:"base_url,omitempty"`
}

// Store maps provider IDs to their entries.
type Store map[string]Entry

// Providers returns the stored provider IDs in sorted order.
func (s Store) Providers() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Dir returns the langkit config directory, honoring $XDG_CONFIG_HOME.
func Dir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, dirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".config", dirName), nil
}

// FilePath returns the credential file path, or "" when no home directory
// is available.
func FilePath() string {
	dir, err := Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, fileName)
}

// ---------------------------------------------------------------------------
// Load / Save
// ---------------------------------------------------------------------------

// Load reads the store. A missing file yields an empty store; a corrupt
// one is an error so that Save never silently drops keys.
func Load() (Store, error) {
	path := FilePath()
	if path == "" {
		return make(Store), nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return make(Store), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	store := make(Store)
	if err := yaml.Unmarshal(data, &store); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return store, nil
}

// Save writes the store with 0600 permissions.
func Save(store Store) error {
	path := FilePath()
	if path == "" {
		return errors.New("cannot determine config directory")
	}
	data, err := yaml.Marshal(store)
	if err != nil {
		return fmt.Errorf("marshaling credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Accessors
// ---------------------------------------------------------------------------

// Get returns the entry stored for a provider.
func Get(providerID string) (Entry, bool) {
	store, err := Load()
	if err != nil {
		return Entry{}, false
	}
	e, ok := store[providerID]
	return e, ok
}

// Set stores the entry for a provider, replacing any previous one.
func Set(providerID string, e Entry) error {
	store, err := Load()
	if err != nil {
		return err
	}
	store[providerID] = e
	return Save(store)
}

// Remove deletes a provider's entry. Removing a missing entry is a no-op.
func Remove(providerID string) error {
	store, err := Load()
	if err != nil {
		return err
	}
	if _, ok := store[providerID]; !ok {
		return nil
	}
	delete(store, providerID)
	return Save(store)
}

// RemoveAll deletes the credential file.
func RemoveAll() error {
	path := FilePath()
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing %s: %w", path, err)
	}
	return nil
}

// APIKey resolves the key for a provider: flag value first, then the
// environment, then the store.
func APIKey(providerID, flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(EnvAPIKey); env != "" {
		return env
	}
	e, _ := Get(providerID)
	return e.Key
}

// BaseURL returns the stored endpoint of a provider.
func BaseURL(providerID string) string {
	e, _ := Get(providerID)
	return e.BaseURL
}

// MaskKey returns a masked key for display.
func MaskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
