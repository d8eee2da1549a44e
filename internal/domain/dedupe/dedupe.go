// Package dedupe tracks item names under the case-insensitive, trimmed
// comparison used for uniqueness inside a ranked list and the spot catalog.
package dedupe

import (
	"strings"
	"sync"
)

// Key folds a name to its comparison form.
func Key(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Same reports whether two names refer to the same item.
func Same(a, b string) bool {
	return Key(a) == Key(b)
}

// NameSet is a set of names keyed by Key. It is safe for concurrent use.
// The first spelling added for a key is the one returned by Canonical.
type NameSet struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewNameSet returns a set seeded with names.
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{names: make(map[string]string, len(names))}
	for _, n := range names {
		s.Add(n)
	}
	return s
}

// Add records name and reports whether it was new. Blank names are ignored.
func (s *NameSet) Add(name string) bool {
	k := Key(name)
	if k == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[k]; ok {
		return false
	}
	s.names[k] = strings.TrimSpace(name)
	return true
}

// Has reports whether name, or another spelling of it, is present.
func (s *NameSet) Has(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.names[Key(name)]
	return ok
}

// Canonical returns the stored spelling of name.
func (s *NameSet) Canonical(name string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n, ok := s.names[Key(name)]
	return n, ok
}

// Remove deletes name and reports whether it was present.
func (s *NameSet) Remove(name string) bool {
	k := Key(name)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.names[k]; !ok {
		return false
	}
	delete(s.names, k)
	return true
}

// Len returns the number of distinct names.
func (s *NameSet) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.names)
}
