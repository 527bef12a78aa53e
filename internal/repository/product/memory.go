package product

import (
	"context"
	"errors"
	"strings"
	"sync"

	"storefront/internal/domain"
)

var ErrIDRequired = errors.New("product id required")

type memoryRepo struct {
	mu    sync.RWMutex
	order []string
	items map[string]domain.ProductSnapshot
}

// NewMemory returns a process-local Repository.
func NewMemory() Repository {
	return &memoryRepo{items: make(map[string]domain.ProductSnapshot)}
}

func (r *memoryRepo) List(_ context.Context) ([]domain.ProductSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ProductSnapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.items[id])
	}
	return out, nil
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.ProductSnapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &p, nil
}

func (r *memoryRepo) Upsert(_ context.Context, p domain.ProductSnapshot) (*domain.ProductSnapshot, error) {
	p.ID = strings.TrimSpace(p.ID)
	if p.ID == "" {
		return nil, ErrIDRequired
	}
	p.Colors = append([]string(nil), p.Colors...)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		r.order = append(r.order, p.ID)
	}
	r.items[p.ID] = p
	return &p, nil
}
