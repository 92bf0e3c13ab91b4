// Package config holds the key/value model shared by the configuration
// store adapters. Keys are dot separated ("router.retry_count") and map
// onto nested TOML tables when persisted.
package config

import (
	"errors"
	"fmt"
	"maps"
	"sort"
	"strings"
	"sync"
)

// ErrEmptyKey is returned by Set for a blank key.
var ErrEmptyKey = errors.New("config: empty key")

// Values is a concurrency-safe flat map of configuration keys with typed
// accessors. Missing keys and wrong types read as zero values.
type Values struct {
	mu   sync.RWMutex
	data map[string]any
}

// NewValues creates an empty value set.
func NewValues() *Values {
	return &Values{data: make(map[string]any)}
}

// Get retrieves the raw value for key.
func (v *Values) Get(key string) (any, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.data[key]
	return val, ok
}

// GetString retrieves a string value.
func (v *Values) GetString(key string) string {
	val, _ := v.Get(key)
	s, _ := val.(string)
	return s
}

// GetInt retrieves an integer value. TOML decodes integers as int64 and
// JSON as float64; both are accepted.
func (v *Values) GetInt(key string) int {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// GetFloat retrieves a floating point value. Integers are accepted so
// "min_score = 0" needs no decimal point.
func (v *Values) GetFloat(key string) float64 {
	val, _ := v.Get(key)
	switch n := val.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

// GetBool retrieves a boolean value.
func (v *Values) GetBool(key string) bool {
	val, _ := v.Get(key)
	b, _ := val.(bool)
	return b
}

// GetStringSlice retrieves a string list. TOML arrays decode as []any;
// non-string items are skipped.
func (v *Values) GetStringSlice(key string) []string {
	val, _ := v.Get(key)
	switch list := val.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Set stores value under key.
func (v *Values) Set(key string, value any) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.data[key] = value
	return nil
}

// Snapshot returns a copy of the flat key map.
func (v *Values) Snapshot() map[string]any {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return maps.Clone(v.data)
}

// Replace swaps the whole key map for flat.
func (v *Values) Replace(flat map[string]any) {
	if flat == nil {
		flat = make(map[string]any)
	}
	v.mu.Lock()
	v.data = flat
	v.mu.Unlock()
}

// Flatten converts nested tables to dot-notation keys:
// {"a": {"b": 1}} becomes {"a.b": 1}.
func Flatten(nested map[string]any) map[string]any {
	flat := make(map[string]any)
	flattenInto(flat, nested, "")
	return flat
}

func flattenInto(dst, m map[string]any, prefix string) {
	for key, value := range m {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}
		if table, ok := value.(map[string]any); ok {
			flattenInto(dst, table, full)
			continue
		}
		dst[full] = value
	}
}

// Nest is the inverse of Flatten. A key that is both a value and a table
// prefix ("a" and "a.b") cannot be represented and is an error.
func Nest(flat map[string]any) (map[string]any, error) {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	root := make(map[string]any)
	for _, key := range keys {
		parts := strings.Split(key, ".")
		node := root
		for _, part := range parts[:len(parts)-1] {
			child, exists := node[part]
			if !exists {
				next := make(map[string]any)
				node[part] = next
				node = next
				continue
			}
			next, ok := child.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("config: key %q conflicts with value %q", key, part)
			}
			node = next
		}
		leaf := parts[len(parts)-1]
		if _, isTable := node[leaf].(map[string]any); isTable {
			return nil, fmt.Errorf("config: key %q conflicts with table", key)
		}
		node[leaf] = flat[key]
	}
	return root, nil
}
