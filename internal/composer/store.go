package composer

import (
	"sync"

	apperrors "github.com/spec-kit/ticket-desk/pkg/util/errorutil"
)

// Entry guards one draft. Callers lock it around every read or mutation and
// release it before issuing network calls.
type Entry struct {
	sync.Mutex
	Draft *Draft
}

// Store keeps drafts in memory; drafts are never persisted.
type Store struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[string]*Entry)}
}

// Put registers a draft.
func (s *Store) Put(d *Draft) *Entry {
	e := &Entry{Draft: d}
	s.mu.Lock()
	s.entries[d.ID] = e
	s.mu.Unlock()
	return e
}

// Get returns the entry for id if owner matches.
func (s *Store) Get(owner, id string) (*Entry, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, apperrors.NewNotFound("draft", map[string]any{"id": id})
	}
	if e.Draft.Owner != owner {
		// Drafts of other sessions are indistinguishable from missing ones.
		return nil, apperrors.NewNotFound("draft", map[string]any{"id": id})
	}
	return e, nil
}

// Delete discards a draft.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
}

// DeleteOwner discards every draft of owner that is not being submitted and
// returns how many were removed.
func (s *Store) DeleteOwner(owner string) int {
	s.mu.RLock()
	var owned []*Entry
	for _, e := range s.entries {
		if e.Draft.Owner == owner {
			owned = append(owned, e)
		}
	}
	s.mu.RUnlock()

	removed := 0
	for _, e := range owned {
		// Entry locks are always taken before the store lock.
		e.Lock()
		if !e.Draft.Submitting() {
			s.Delete(e.Draft.ID)
			removed++
		}
		e.Unlock()
	}
	return removed
}

// Len returns the number of open drafts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
