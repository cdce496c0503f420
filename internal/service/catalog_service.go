package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/metrics"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/variant"
)

// CatalogService serves the public storefront reads.
type CatalogService struct {
	products   repository.ProductRepository
	categories *CategoryService
	brands     repository.BrandRepository
	metrics    *metrics.Metrics
	log        *zap.Logger
}

func NewCatalogService(
	products repository.ProductRepository,
	categories *CategoryService,
	brands repository.BrandRepository,
	m *metrics.Metrics,
	log *zap.Logger,
) *CatalogService {
	return &CatalogService{products: products, categories: categories, brands: brands, metrics: m, log: log}
}

// Search lists active products matching q.
func (s *CatalogService) Search(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error) {
	q.ActiveOnly = true
	return s.list(ctx, q)
}

// ListAll lists products for the admin console, inactive ones included.
func (s *CatalogService) ListAll(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error) {
	q.ActiveOnly = false
	return s.list(ctx, q)
}

// ByCategorySlug lists active products of the category and all of its
// descendants.
func (s *CatalogService) ByCategorySlug(ctx context.Context, slug string, q models.ProductQuery) (models.Page[models.Product], *models.Category, error) {
	tree, err := s.categories.Descendants(ctx, slug)
	if err != nil {
		return models.Page[models.Product]{}, nil, err
	}

	q.ActiveOnly = true
	q.CategoryIDs = make([]string, 0, len(tree))
	for _, c := range tree {
		q.CategoryIDs = append(q.CategoryIDs, c.ID)
	}

	page, err := s.list(ctx, q)
	if err != nil {
		return models.Page[models.Product]{}, nil, err
	}
	return page, &tree[0], nil
}

func (s *CatalogService) list(ctx context.Context, q models.ProductQuery) (models.Page[models.Product], error) {
	normalizePage(&q)
	products, total, err := s.products.List(ctx, q)
	if err != nil {
		return models.Page[models.Product]{}, err
	}
	return models.NewPage(products, total, q.Page, q.Limit), nil
}

// GetByID returns an active product with its category and brand.
func (s *CatalogService) GetByID(ctx context.Context, id string) (*models.ProductDetail, error) {
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, p)
}

// GetBySlug returns an active product with its category and brand.
func (s *CatalogService) GetBySlug(ctx context.Context, slug string) (*models.ProductDetail, error) {
	p, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, p)
}

func (s *CatalogService) detail(ctx context.Context, p *models.Product) (*models.ProductDetail, error) {
	if !p.IsActive {
		return nil, repository.ErrNotFound
	}

	d := &models.ProductDetail{Product: *p}
	if cat, err := s.categories.Get(ctx, p.CategoryID); err == nil {
		d.CategoryRef = cat
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if p.BrandID != nil {
		if brand, err := s.brands.GetByID(ctx, *p.BrandID); err == nil {
			d.BrandRef = brand
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
	}
	return d, nil
}

// Related returns up to limit active products from the same category,
// topped up with products of the same brand, never the product itself.
func (s *CatalogService) Related(ctx context.Context, id string, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = 4
	}
	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	out := []models.Product{}
	seen := map[string]bool{p.ID: true}
	collect := func(q models.ProductQuery) error {
		q.ActiveOnly = true
		q.Limit = limit + 1
		q.Page = 1
		candidates, _, err := s.products.List(ctx, q)
		if err != nil {
			return err
		}
		for _, c := range candidates {
			if len(out) >= limit {
				return nil
			}
			if !seen[c.ID] {
				seen[c.ID] = true
				out = append(out, c)
			}
		}
		return nil
	}

	if err := collect(models.ProductQuery{CategoryIDs: []string{p.CategoryID}}); err != nil {
		return nil, err
	}
	if len(out) < limit && p.BrandID != nil {
		if err := collect(models.ProductQuery{BrandID: *p.BrandID}); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// VariantView derives the selection view of the product identified by id
// or slug.
func (s *CatalogService) VariantView(ctx context.Context, idOrSlug string, sel variant.Selection) (*variant.View, error) {
	p, err := s.lookup(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}
	view := variant.NewResolver(p.Variants).View(sel)
	return &view, nil
}

// SelectVariant applies one click to sel and returns the resulting view.
func (s *CatalogService) SelectVariant(ctx context.Context, idOrSlug string, sel variant.Selection, ev variant.Event) (*variant.View, error) {
	p, err := s.lookup(ctx, idOrSlug)
	if err != nil {
		return nil, err
	}

	r := variant.NewResolver(p.Variants)
	next, err := r.Apply(sel, ev)
	if err != nil {
		return nil, err
	}
	view := r.View(next)
	s.metrics.VariantSelected(view.Active != nil)
	return &view, nil
}

func (s *CatalogService) lookup(ctx context.Context, idOrSlug string) (*models.Product, error) {
	p, err := s.products.GetByID(ctx, idOrSlug)
	if errors.Is(err, repository.ErrNotFound) {
		p, err = s.products.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, repository.ErrNotFound
	}
	return p, nil
}
