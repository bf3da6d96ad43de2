// Package memstore provides map-backed repositories guarded by RWMutexes.
// Each operation is an atomic single-row read or write; there is no
// application-level locking across a read-modify-write sequence, so two
// concurrent list mutations for the same key can still lose an update.
package memstore

import (
	"context"
	"sync"

	"github.com/pagemarket/marketplace/internal/domain"
)

type SaleStore struct {
	mu     sync.RWMutex
	nextID int64
	sales  map[int64]domain.Sale
	order  []int64
}

func NewSaleStore() *SaleStore {
	return &SaleStore{nextID: 1, sales: make(map[int64]domain.Sale)}
}

func (s *SaleStore) List(_ context.Context) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Sale, 0, len(s.order))
	for _, id := range s.order {
		if sale, ok := s.sales[id]; ok {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *SaleStore) GetByID(_ context.Context, id int64) (domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sale, ok := s.sales[id]
	if !ok {
		return domain.Sale{}, domain.ErrNotFound
	}
	return sale, nil
}

func (s *SaleStore) ListByBook(_ context.Context, bookID int64) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Sale
	for _, id := range s.order {
		if sale, ok := s.sales[id]; ok && sale.Book == bookID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *SaleStore) ListBySeller(_ context.Context, username string) ([]domain.Sale, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Sale
	for _, id := range s.order {
		if sale, ok := s.sales[id]; ok && sale.Seller == username {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (s *SaleStore) Create(_ context.Context, sale domain.Sale) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sale.ID = s.nextID
	s.nextID++
	s.sales[sale.ID] = sale
	s.order = append(s.order, sale.ID)
	return sale, nil
}

func (s *SaleStore) Update(_ context.Context, sale domain.Sale) (domain.Sale, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[sale.ID]; !ok {
		return domain.Sale{}, domain.ErrNotFound
	}
	s.sales[sale.ID] = sale
	return sale, nil
}

func (s *SaleStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sales[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.sales, id)
	return nil
}

type BookStore struct {
	mu     sync.RWMutex
	nextID int64
	books  map[int64]domain.Book
	order  []int64
}

func NewBookStore() *BookStore {
	return &BookStore{nextID: 1, books: make(map[int64]domain.Book)}
}

func (s *BookStore) List(_ context.Context) ([]domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Book, 0, len(s.order))
	for _, id := range s.order {
		if book, ok := s.books[id]; ok {
			out = append(out, book)
		}
	}
	return out, nil
}

func (s *BookStore) GetByID(_ context.Context, id int64) (domain.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	book, ok := s.books[id]
	if !ok {
		return domain.Book{}, domain.ErrNotFound
	}
	return book, nil
}

func (s *BookStore) Create(_ context.Context, book domain.Book) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	book.ID = s.nextID
	s.nextID++
	s.books[book.ID] = book
	s.order = append(s.order, book.ID)
	return book, nil
}

func (s *BookStore) Update(_ context.Context, book domain.Book) (domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[book.ID]; !ok {
		return domain.Book{}, domain.ErrNotFound
	}
	s.books[book.ID] = book
	return book, nil
}

func (s *BookStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.books[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.books, id)
	return nil
}
