// Package settings persists the head-cleaner option: one mapping from
// "{event}-{callback}" keys to booleans, stored and loaded as a single value.
package settings

import (
	"context"
	"errors"
	"sort"
)

// OptionName is the fixed identifier the option is stored under. It is
// also the form field prefix on the settings page.
const OptionName = "head_cleaner_settings"

// ErrUnknownBackend is returned by Open for an unrecognized backend name.
var ErrUnknownBackend = errors.New("settings: unknown backend")

// Map is the saved checkbox state. A key that is absent is unchecked.
type Map map[string]bool

// Enabled reports whether the checkbox for key is checked. It is safe to
// call on a nil Map.
func (m Map) Enabled(key string) bool {
	return m[key]
}

// Keys returns the checked keys in sorted order.
func (m Map) Keys() []string {
	keys := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a copy of m without unchecked entries. The result is never nil.
func (m Map) Clone() Map {
	out := make(Map, len(m))
	for k, v := range m {
		if v {
			out[k] = true
		}
	}
	return out
}

// Store is the storage port for the option. The whole Map is read and
// written as one value, so readers never observe a partial write.
// Implementations must be safe for concurrent use.
type Store interface {
	// Load returns the saved Map, or an empty Map if nothing is saved.
	Load(ctx context.Context) (Map, error)

	// Save replaces the saved Map.
	Save(ctx context.Context, m Map) error

	// Delete removes the option entirely.
	Delete(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}
