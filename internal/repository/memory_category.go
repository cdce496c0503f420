package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// InMemoryCategoryRepository implements CategoryRepository with in-memory storage.
type InMemoryCategoryRepository struct {
	mu         sync.RWMutex
	categories map[string]models.Category
}

func NewInMemoryCategoryRepository() *InMemoryCategoryRepository {
	return &InMemoryCategoryRepository{categories: make(map[string]models.Category)}
}

// List returns every category ordered by path.
func (r *InMemoryCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	r.mu.RLock()
	out := make([]models.Category, 0, len(r.categories))
	for _, c := range r.categories {
		out = append(out, cloneCategory(c))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *InMemoryCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, exists := r.categories[id]
	if !exists {
		return nil, ErrNotFound
	}
	clone := cloneCategory(c)
	return &clone, nil
}

func (r *InMemoryCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, c := range r.categories {
		if c.Slug == slug {
			clone := cloneCategory(c)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

func (r *InMemoryCategoryRepository) Create(ctx context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[c.ID]; exists || r.slugTaken(c.Slug, "") {
		return ErrConflict
	}
	r.categories[c.ID] = cloneCategory(*c)
	return nil
}

func (r *InMemoryCategoryRepository) Update(ctx context.Context, c *models.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[c.ID]; !exists {
		return ErrNotFound
	}
	if r.slugTaken(c.Slug, c.ID) {
		return ErrConflict
	}
	r.categories[c.ID] = cloneCategory(*c)
	return nil
}

func (r *InMemoryCategoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.categories[id]; !exists {
		return ErrNotFound
	}
	delete(r.categories, id)
	return nil
}

func (r *InMemoryCategoryRepository) slugTaken(slug, exceptID string) bool {
	for id, c := range r.categories {
		if id != exceptID && c.Slug == slug {
			return true
		}
	}
	return false
}

func cloneCategory(c models.Category) models.Category {
	out := c
	out.Children = nil
	out.Ancestors = append([]string{}, c.Ancestors...)
	if c.ParentCategory != nil {
		parent := *c.ParentCategory
		out.ParentCategory = &parent
	}
	out.Attributes = make([]models.CategoryAttribute, len(c.Attributes))
	for i, a := range c.Attributes {
		ca := a
		ca.Values = append([]string(nil), a.Values...)
		out.Attributes[i] = ca
	}
	return out
}
