package settings

import (
	"sort"
	"sync"
)

// MemoryStore is an in-memory Store for tests and dry runs. Scopes can be
// marked as failing to simulate access-denied backends.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]map[string]string
	failed map[string]bool
	writes int
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]map[string]string),
		failed: make(map[string]bool),
	}
}

// Fail makes every Write and Delete in scope return false.
func (s *MemoryStore) Fail(scope string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed[scope] = true
}

func (s *MemoryStore) Write(scope, key, value string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	if s.failed[scope] {
		return false
	}
	if s.values[scope] == nil {
		s.values[scope] = make(map[string]string)
	}
	s.values[scope][key] = value
	return true
}

func (s *MemoryStore) Read(scope, key, def string) string {
	if v, ok := s.Lookup(scope, key); ok {
		return v
	}
	return def
}

func (s *MemoryStore) Lookup(scope, key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[scope][key]
	return v, ok
}

func (s *MemoryStore) Delete(scope, key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failed[scope] {
		return false
	}
	delete(s.values[scope], key)
	return true
}

// Writes returns how many Write calls were attempted, including failed ones.
func (s *MemoryStore) Writes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.writes
}

// Keys returns the sorted keys present in scope.
func (s *MemoryStore) Keys(scope string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.values[scope]))
	for k := range s.values[scope] {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
