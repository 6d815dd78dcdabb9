// Package mirror holds the local copy of every setting last fetched from,
// or written back by, the remote settings authority.
//
// The store performs no remote calls. A value becomes the truth for later
// reads only after the caller has a result from the authority, or when a
// reducer deliberately stages a local default.
package mirror

import (
	"fmt"
	"sort"
	"sync"

	"codeberg.org/mutker/powerctl/internal/errors"
)

// Key names a setting and fixes its Go type.
type Key[T any] struct {
	name string
}

// NewKey declares a typed setting key.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the setting name.
func (k Key[T]) Name() string {
	return k.name
}

func (k Key[T]) String() string {
	return k.name
}

// Store is a process-local key/value store. Stored values are shared, not
// copied: callers must clone slices before editing them.
type Store struct {
	mu      sync.RWMutex
	values  map[string]any
	version uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// Get returns the value stored under key, or def if it was never populated.
func Get[T any](s *Store, key Key[T], def T) T {
	v, ok := Lookup(s, key)
	if !ok {
		return def
	}

	return v
}

// Lookup returns the value stored under key and whether it was populated.
func Lookup[T any](s *Store, key Key[T]) (T, bool) {
	var zero T

	s.mu.RLock()
	raw, ok := s.values[key.name]
	s.mu.RUnlock()
	if !ok {
		return zero, false
	}

	v, ok := raw.(T)
	if !ok {
		// Values only enter through Set, which is typed by the same key.
		panic(fmt.Sprintf("mirror: setting %q holds %T, want %T", key.name, raw, zero))
	}

	return v, true
}

// Must returns the value stored under a required key. Reading a required
// setting that was never populated is a programming error and panics.
func Must[T any](s *Store, key Key[T]) T {
	v, ok := Lookup(s, key)
	if !ok {
		panic(errors.New().WithData(errors.ErrMissingSetting, key.name))
	}

	return v
}

// Set stores value under key.
func Set[T any](s *Store, key Key[T], value T) {
	s.mu.Lock()
	s.values[key.name] = value
	s.version++
	s.mu.Unlock()
}

// Has reports whether name was ever populated.
func (s *Store) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.values[name]
	return ok
}

// Require returns a missing_setting error listing every name that was never
// populated.
func (s *Store) Require(names ...string) error {
	s.mu.RLock()
	var missing []string
	for _, name := range names {
		if _, ok := s.values[name]; !ok {
			missing = append(missing, name)
		}
	}
	s.mu.RUnlock()

	if len(missing) > 0 {
		return errors.New().WithData(errors.ErrMissingSetting, missing)
	}

	return nil
}

// Version returns a counter incremented by every Set.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.version
}

// Names returns the populated setting names in sorted order.
func (s *Store) Names() []string {
	s.mu.RLock()
	names := make([]string, 0, len(s.values))
	for name := range s.values {
		names = append(names, name)
	}
	s.mu.RUnlock()

	sort.Strings(names)
	return names
}
