package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/sercha-context/internal/core/domain"
	"github.com/custodia-labs/sercha-context/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-context/internal/logger"
)

// Ensure ContextLoader implements the interface.
var _ driving.ContextLoader = (*ContextLoader)(nil)

// reloadDebounce coalesces the burst of events an editor save produces.
const reloadDebounce = 200 * time.Millisecond

// contextFile is the TOML layout of a context definition file:
//
//	[[contexts]]
//	id = "rust-async"
//	domain = "technical"
//	content = "Tokio is the de facto async runtime."
//	tags = ["rust", "async"]
//	priority = 8
type contextFile struct {
	Contexts []domain.Context `toml:"contexts"`
}

// ContextLoader upserts contexts from TOML definition files.
type ContextLoader struct {
	contexts driving.ContextService
}

// NewContextLoader creates a loader writing through contexts.
func NewContextLoader(contexts driving.ContextService) *ContextLoader {
	return &ContextLoader{contexts: contexts}
}

// LoadFile reads path and adds new contexts or updates changed ones.
// Invalid entries are skipped and reported together after the rest
// have been applied.
func (l *ContextLoader) LoadFile(ctx context.Context, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read contexts file: %w", err)
	}
	var file contextFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return 0, fmt.Errorf("parse contexts file %s: %w", path, err)
	}
	logger.Debug("Loading %d contexts from %s", len(file.Contexts), path)

	changed := 0
	var errs []error
	for i, def := range file.Contexts {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		def.Tags = dedupeTags(def.Tags)
		if strings.TrimSpace(def.ID) == "" {
			errs = append(errs, fmt.Errorf("%w: contexts[%d] has no id", domain.ErrInvalidInput, i))
			continue
		}
		ok, err := l.upsert(ctx, def)
		if err != nil {
			errs = append(errs, fmt.Errorf("contexts[%d] %s: %w", i, def.ID, err))
			continue
		}
		if ok {
			changed++
		}
	}
	logger.Info("Loaded %s: %d added or updated, %d errors", path, changed, len(errs))
	return changed, errors.Join(errs...)
}

func (l *ContextLoader) upsert(ctx context.Context, def domain.Context) (bool, error) {
	existing, err := l.contexts.Get(ctx, def.ID)
	if errors.Is(err, domain.ErrNotFound) {
		_, err = l.contexts.Add(ctx, def)
		return err == nil, err
	}
	if err != nil {
		return false, err
	}
	if sameDefinition(existing, &def) {
		return false, nil
	}
	_, err = l.contexts.Update(ctx, def.ID, func(c *domain.Context) error {
		c.Domain = def.Domain
		c.Content = def.Content
		c.Tags = def.Tags
		c.Priority = def.Priority
		c.Metadata = def.Metadata
		c.ExpiresAt = def.ExpiresAt
		return nil
	})
	return err == nil, err
}

// sameDefinition compares the file-controlled fields.
func sameDefinition(stored, def *domain.Context) bool {
	if !strings.EqualFold(stored.Domain, strings.TrimSpace(def.Domain)) && def.Domain != "" {
		return false
	}
	if stored.Content != def.Content || stored.Priority != def.Priority {
		return false
	}
	if !slices.Equal(stored.Tags, def.Tags) && !(len(stored.Tags) == 0 && len(def.Tags) == 0) {
		return false
	}
	if !maps.Equal(stored.Metadata, def.Metadata) {
		return false
	}
	switch {
	case stored.ExpiresAt == nil && def.ExpiresAt == nil:
		return true
	case stored.ExpiresAt == nil || def.ExpiresAt == nil:
		return false
	default:
		return stored.ExpiresAt.Equal(*def.ExpiresAt)
	}
}

// Watch loads path, then reloads it on every change until ctx is
// cancelled. The parent directory is watched so editors that save by
// renaming a temp file are still seen.
func (l *ContextLoader) Watch(ctx context.Context, path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if _, err := l.LoadFile(ctx, abs); err != nil {
		logger.Warn("Initial load of %s: %v", abs, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	logger.Info("Watching %s for changes", abs)

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isReloadEvent(event, abs) {
				continue
			}
			logger.Debug("Context file event: %s", event)
			if timer == nil {
				timer = time.NewTimer(reloadDebounce)
			} else {
				timer.Reset(reloadDebounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if _, err := l.LoadFile(ctx, abs); err != nil {
				logger.Warn("Reload of %s: %v", abs, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// isReloadEvent reports whether event is a write or create of target.
func isReloadEvent(event fsnotify.Event, target string) bool {
	if filepath.Clean(event.Name) != target {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
