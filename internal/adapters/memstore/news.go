package memstore

import (
	"context"
	"sync"

	"github.com/pagemarket/marketplace/internal/domain"
)

// NewsStore keeps entries in insertion order so the feed can serve the ten
// newest entries.
type NewsStore struct {
	mu      sync.RWMutex
	entries map[int64]domain.NewsEntry
	order   []int64
}

func NewNewsStore() *NewsStore {
	return &NewsStore{entries: make(map[int64]domain.NewsEntry)}
}

func (s *NewsStore) List(_ context.Context) ([]domain.NewsEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.NewsEntry, 0, len(s.order))
	for _, id := range s.order {
		if e, ok := s.entries[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *NewsStore) GetBySale(_ context.Context, saleID int64) (domain.NewsEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[saleID]
	if !ok {
		return domain.NewsEntry{}, domain.ErrNotFound
	}
	return e, nil
}

// Save upserts by sale id. An overwrite keeps the entry's original position
// in the feed.
func (s *NewsStore) Save(_ context.Context, entry domain.NewsEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entry.Sale]; !ok {
		s.order = append(s.order, entry.Sale)
	}
	s.entries[entry.Sale] = entry
	return nil
}

func (s *NewsStore) DeleteBySale(_ context.Context, saleID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[saleID]; !ok {
		return domain.ErrNotFound
	}
	delete(s.entries, saleID)
	return nil
}
