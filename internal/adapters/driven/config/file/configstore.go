package file

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/config"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// DefaultDirName is the config directory under the user's home.
const DefaultDirName = ".sercha-context"

// ConfigStore persists configuration as a TOML file. Set only changes
// memory; Save writes the whole file.
type ConfigStore struct {
	*config.Values

	saveMu   sync.Mutex
	filePath string
}

// NewConfigStore creates a TOML config store backed by path and loads it.
// If path is empty, defaults to ~/.sercha-context/config.toml.
func NewConfigStore(path string) (*ConfigStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(home, DefaultDirName, "config.toml")
	}

	s := &ConfigStore{
		Values:   config.NewValues(),
		filePath: path,
	}
	if err := s.Load(); err != nil {
		return nil, err
	}
	return s, nil
}

// Save writes the current values to disk as nested tables.
func (s *ConfigStore) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	nested, err := config.Nest(s.Snapshot())
	if err != nil {
		return err
	}
	data, err := toml.Marshal(nested)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.filePath), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	// The file may hold API keys.
	return os.WriteFile(s.filePath, data, 0o600)
}

// Load replaces the current values with the file contents. A missing
// file is an empty configuration.
func (s *ConfigStore) Load() error {
	data, err := os.ReadFile(s.filePath)
	if errors.Is(err, os.ErrNotExist) {
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return err
	}

	var nested map[string]any
	if err := toml.Unmarshal(data, &nested); err != nil {
		return fmt.Errorf("parse %s: %w", s.filePath, err)
	}
	s.Replace(config.Flatten(nested))
	return nil
}

// Path returns the configuration file path.
func (s *ConfigStore) Path() string {
	return s.filePath
}
