package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/pagemarket/marketplace/internal/domain"
)

type DirectoryStore struct {
	mu      sync.RWMutex
	entries map[string]domain.DirectoryEntry
}

func NewDirectoryStore() *DirectoryStore {
	return &DirectoryStore{entries: make(map[string]domain.DirectoryEntry)}
}

func (s *DirectoryStore) List(_ context.Context) ([]domain.DirectoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.DirectoryEntry, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, copyEntry(e))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

func (s *DirectoryStore) GetByUsername(_ context.Context, username string) (domain.DirectoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[username]
	if !ok {
		return domain.DirectoryEntry{}, domain.ErrNotFound
	}
	return copyEntry(e), nil
}

// Save upserts: an existing entry under the same username is silently
// overwritten, which is exactly what the user-created consumer relies on.
func (s *DirectoryStore) Save(_ context.Context, entry domain.DirectoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.Username] = copyEntry(entry)
	return nil
}

// copyEntry detaches the sales slice so callers mutate their own copy. The
// read-modify-write sequence in the consumers stays a last-write-wins race.
func copyEntry(e domain.DirectoryEntry) domain.DirectoryEntry {
	out := e
	out.Sales = make([]int64, len(e.Sales))
	copy(out.Sales, e.Sales)
	return out
}
