package repository

import (
	"context"
	"sync"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// InMemoryProductRepository implements ProductRepository with in-memory storage.
type InMemoryProductRepository struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewInMemoryProductRepository creates an empty in-memory product repository.
func NewInMemoryProductRepository() *InMemoryProductRepository {
	return &InMemoryProductRepository{
		products: make(map[string]models.Product),
	}
}

// List returns the page of products matching q and the total match count.
func (r *InMemoryProductRepository) List(ctx context.Context, q models.ProductQuery) ([]models.Product, int, error) {
	r.mu.RLock()
	matched := make([]models.Product, 0, len(r.products))
	for _, p := range r.products {
		if matchProduct(&p, q) {
			matched = append(matched, cloneProduct(p))
		}
	}
	r.mu.RUnlock()

	sortProducts(matched, q)
	return paginate(matched, q), len(matched), nil
}

// GetByID returns a product by its ID
func (r *InMemoryProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, exists := r.products[id]
	if !exists {
		return nil, ErrNotFound
	}
	clone := cloneProduct(product)
	return &clone, nil
}

// GetBySlug returns a product by its slug
func (r *InMemoryProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.products {
		if p.Slug == slug {
			clone := cloneProduct(p)
			return &clone, nil
		}
	}
	return nil, ErrNotFound
}

// Create stores a new product. The ID and slug must be unused.
func (r *InMemoryProductRepository) Create(ctx context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; exists || r.slugTaken(p.Slug, "") {
		return ErrConflict
	}
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

// Update replaces an existing product.
func (r *InMemoryProductRepository) Update(ctx context.Context, p *models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[p.ID]; !exists {
		return ErrNotFound
	}
	if r.slugTaken(p.Slug, p.ID) {
		return ErrConflict
	}
	r.products[p.ID] = cloneProduct(*p)
	return nil
}

func (r *InMemoryProductRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.products[id]; !exists {
		return ErrNotFound
	}
	delete(r.products, id)
	return nil
}

// AdjustStock adds delta to the stock of productID/sku. The change is
// refused when stock would drop below zero.
func (r *InMemoryProductRepository) AdjustStock(ctx context.Context, productID, sku string, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, exists := r.products[productID]
	if !exists {
		return ErrNotFound
	}
	v, ok := p.Variant(sku)
	if !ok {
		return ErrNotFound
	}
	if v.Stock+delta < 0 {
		return ErrInsufficientStock
	}
	v.Stock += delta
	r.products[productID] = p
	return nil
}

func (r *InMemoryProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, p := range r.products {
		if p.CategoryID == categoryID {
			n++
		}
	}
	return n, nil
}

func (r *InMemoryProductRepository) slugTaken(slug, exceptID string) bool {
	for id, p := range r.products {
		if id != exceptID && p.Slug == slug {
			return true
		}
	}
	return false
}

func cloneProduct(p models.Product) models.Product {
	out := p
	out.FilterAttributes = append([]models.Attribute(nil), p.FilterAttributes...)
	out.Tags = append([]string(nil), p.Tags...)
	if p.BrandID != nil {
		brand := *p.BrandID
		out.BrandID = &brand
	}
	out.Variants = make([]models.Variant, len(p.Variants))
	for i, v := range p.Variants {
		cv := v
		cv.Attributes = append([]models.Attribute(nil), v.Attributes...)
		cv.Images = append([]string(nil), v.Images...)
		if v.SalePrice != nil {
			sale := *v.SalePrice
			cv.SalePrice = &sale
		}
		out.Variants[i] = cv
	}
	return out
}
