package memory

import (
	"maps"
	"sync"

	"github.com/custodia-labs/sercha-context/internal/adapters/driven/config"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driven"
)

// Ensure ConfigStore implements the interface.
var _ driven.ConfigStore = (*ConfigStore)(nil)

// ConfigStore keeps configuration in memory. Save records a snapshot
// that Load restores, mirroring the file store without touching disk.
type ConfigStore struct {
	*config.Values

	mu      sync.Mutex
	saved   map[string]any
	saves   int
	saveErr error
}

// NewConfigStore creates an empty in-memory config store.
func NewConfigStore() *ConfigStore {
	return &ConfigStore{Values: config.NewValues()}
}

// Save snapshots the current values, or returns the error set with
// FailSaves.
func (s *ConfigStore) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = s.Snapshot()
	s.saves++
	return nil
}

// Load restores the last saved snapshot.
func (s *ConfigStore) Load() error {
	s.mu.Lock()
	saved := s.saved
	s.mu.Unlock()
	if saved == nil {
		return nil
	}
	s.Replace(maps.Clone(saved))
	return nil
}

// Saves reports how many times Save succeeded.
func (s *ConfigStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// FailSaves makes subsequent Save calls return err; nil clears it.
func (s *ConfigStore) FailSaves(err error) {
	s.mu.Lock()
	s.saveErr = err
	s.mu.Unlock()
}

// Path returns the pseudo path of the store.
func (s *ConfigStore) Path() string {
	return ":memory:"
}
