package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// InMemoryBrandRepository implements BrandRepository with in-memory storage.
type InMemoryBrandRepository struct {
	mu     sync.RWMutex
	brands map[string]models.Brand
}

func NewInMemoryBrandRepository() *InMemoryBrandRepository {
	return &InMemoryBrandRepository{brands: make(map[string]models.Brand)}
}

// List returns every brand ordered by name.
func (r *InMemoryBrandRepository) List(ctx context.Context) ([]models.Brand, error) {
	r.mu.RLock()
	out := make([]models.Brand, 0, len(r.brands))
	for _, b := range r.brands {
		out = append(out, b)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *InMemoryBrandRepository) GetByID(ctx context.Context, id string) (*models.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, exists := r.brands[id]
	if !exists {
		return nil, ErrNotFound
	}
	return &b, nil
}

func (r *InMemoryBrandRepository) GetBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, b := range r.brands {
		if b.Slug == slug {
			return &b, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryBrandRepository) Create(ctx context.Context, b *models.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.brands[b.ID]; exists || r.slugTaken(b.Slug, "") {
		return ErrConflict
	}
	r.brands[b.ID] = *b
	return nil
}

func (r *InMemoryBrandRepository) Update(ctx context.Context, b *models.Brand) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.brands[b.ID]; !exists {
		return ErrNotFound
	}
	if r.slugTaken(b.Slug, b.ID) {
		return ErrConflict
	}
	r.brands[b.ID] = *b
	return nil
}

func (r *InMemoryBrandRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.brands[id]; !exists {
		return ErrNotFound
	}
	delete(r.brands, id)
	return nil
}

func (r *InMemoryBrandRepository) slugTaken(slug, exceptID string) bool {
	for id, b := range r.brands {
		if id != exceptID && b.Slug == slug {
			return true
		}
	}
	return false
}
