package settings

import (
	"context"
	"sync"
)

// MemoryStore keeps the option in process memory. It is the default backend
// for local runs and the test double for the other packages.
type MemoryStore struct {
	mu  sync.RWMutex
	doc *Document
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (Map, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return Map{}, nil
	}
	return s.doc.Value.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, m Map) error {
	doc := NewDocument(m)
	s.mu.Lock()
	s.doc = &doc
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context) error {
	s.mu.Lock()
	s.doc = nil
	s.mu.Unlock()
	return nil
}

// Revision returns the revision of the saved document, or "" if none.
func (s *MemoryStore) Revision() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.doc == nil {
		return ""
	}
	return s.doc.Revision
}

func (s *MemoryStore) Close() error { return nil }
