// Package savedstate keeps small per-torrent UI state, such as the
// directory a user was browsing, across process restarts.
package savedstate

import (
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Store persists state values grouped by scope, usually a torrent's info
// hash.
type Store interface {
	// Load returns every value saved under scope. A scope with no values
	// yields an empty map.
	Load(scope string) (map[string][]int, error)

	// Save replaces the values saved under scope.
	Save(scope string, values map[string][]int) error
}

// Handle exposes one scope of a Store. Values are read once when the
// handle is opened and written back by Save, which also queries every
// registered provider.
type Handle struct {
	store Store
	scope string

	mu        sync.Mutex
	values    map[string][]int
	providers map[string]func() []int
}

// Open loads scope from store.
func Open(store Store, scope string) (*Handle, error) {
	values, err := store.Load(scope)
	if err != nil {
		return nil, fmt.Errorf("loading state for %s: %w", scope, err)
	}
	if values == nil {
		values = make(map[string][]int)
	}
	return &Handle{
		store:     store,
		scope:     scope,
		values:    values,
		providers: make(map[string]func() []int),
	}, nil
}

// Scope returns the handle's scope.
func (h *Handle) Scope() string {
	return h.scope
}

// Get returns the value stored under key.
func (h *Handle) Get(key string) ([]int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	v, ok := h.values[key]
	return slices.Clone(v), ok
}

// Set stores a value until the next Save.
func (h *Handle) Set(key string, value []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.values[key] = slices.Clone(value)
}

// SetProvider registers a function whose result replaces key on Save.
func (h *Handle) SetProvider(key string, provider func() []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.providers[key] = provider
}

// Save queries the providers and writes all values to the store.
func (h *Handle) Save() error {
	h.mu.Lock()
	providers := maps.Clone(h.providers)
	h.mu.Unlock()

	provided := make(map[string][]int, len(providers))
	for key, provider := range providers {
		provided[key] = provider()
	}

	h.mu.Lock()
	for key, value := range provided {
		h.values[key] = value
	}
	values := maps.Clone(h.values)
	h.mu.Unlock()

	if err := h.store.Save(h.scope, values); err != nil {
		return fmt.Errorf("saving state for %s: %w", h.scope, err)
	}
	return nil
}

// MemoryStore is a Store kept in memory.
type MemoryStore struct {
	mu     sync.Mutex
	scopes map[string]map[string][]int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{scopes: make(map[string]map[string][]int)}
}

// Load implements Store.
func (s *MemoryStore) Load(scope string) (map[string][]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneValues(s.scopes[scope]), nil
}

// Save implements Store.
func (s *MemoryStore) Save(scope string, values map[string][]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scopes[scope] = cloneValues(values)
	return nil
}

func cloneValues(values map[string][]int) map[string][]int {
	out := make(map[string][]int, len(values))
	for k, v := range values {
		out[k] = slices.Clone(v)
	}
	return out
}
