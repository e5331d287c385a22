package catalog

import (
	"context"
	"sync"
)

type DeleteMode int

const (
	// DeleteLast drops the last product whatever id is asked for. It matches
	// the behavior of the first list-backed deployments and is the default.
	DeleteLast DeleteMode = iota
	// DeleteMatch drops the first product with the requested id.
	DeleteMatch
)

// MemStore keeps products in a process-wide ordered list. Nothing survives a
// restart. The mutex only guards individual calls; concurrent requests still
// interleave in any order.
type MemStore struct {
	mu         sync.Mutex
	products   []Product
	deleteMode DeleteMode
}

func NewMemStore(seed []Product, mode DeleteMode) *MemStore {
	products := make([]Product, len(seed))
	copy(products, seed)
	return &MemStore{products: products, deleteMode: mode}
}

func (s *MemStore) Ping(ctx context.Context) error { return nil }

func (s *MemStore) List(ctx context.Context) ([]Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Product, len(s.products))
	copy(out, s.products)
	return out, nil
}

func (s *MemStore) Get(ctx context.Context, id int) (Product, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return Product{}, false, nil
	}
	return s.products[i], true, nil
}

func (s *MemStore) Seed(ctx context.Context, products []Product) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.products) > 0 {
		return 0, nil
	}
	s.products = append(s.products, products...)
	return len(products), nil
}

func (s *MemStore) Create(ctx context.Context, p Product) (Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.products = append(s.products, p)
	return p, nil
}

func (s *MemStore) Update(ctx context.Context, id int, p Product) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return false, nil
	}
	overwrite(&s.products[i], p)
	return true, nil
}

func (s *MemStore) Delete(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := len(s.products) - 1
	if s.deleteMode == DeleteMatch {
		i = s.indexOf(id)
	}
	if i < 0 {
		return false, nil
	}

	s.products = append(s.products[:i], s.products[i+1:]...)
	return true, nil
}

func (s *MemStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.products), nil
}

func (s *MemStore) indexOf(id int) int {
	for i, p := range s.products {
		if p.ID == id {
			return i
		}
	}
	return -1
}
