package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

// CatalogImporter stores seed records. Records whose id or slug already
// exists are skipped, so seeding is safe to repeat on every start.
type CatalogImporter struct {
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	products   repository.ProductRepository
	log        *zap.Logger
	now        func() time.Time
}

func NewCatalogImporter(
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	products repository.ProductRepository,
	log *zap.Logger,
) *CatalogImporter {
	return &CatalogImporter{categories: categories, brands: brands, products: products, log: log, now: time.Now}
}

// ImportCategory derives ancestors and path from the already stored parent.
func (i *CatalogImporter) ImportCategory(ctx context.Context, c models.Category) error {
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if exists, err := i.exists(ctx, c.ID, c.Slug, i.categoryByID, i.categoryBySlug); err != nil || exists {
		return err
	}
	if c.ID == "" {
		c.ID = uuid.NewString()
	}

	c.Ancestors = []string{}
	c.Path = c.Name
	if c.ParentCategory != nil {
		parent, err := i.categories.GetByID(ctx, *c.ParentCategory)
		if err != nil {
			return err
		}
		c.Ancestors = append(append([]string{}, parent.Ancestors...), parent.ID)
		c.Path = parent.Path + pathSeparator + c.Name
	}
	if c.Attributes == nil {
		c.Attributes = []models.CategoryAttribute{}
	}
	c.Children = nil
	c.CreatedAt, c.UpdatedAt = i.stamp(c.CreatedAt)

	if err := i.categories.Create(ctx, &c); err != nil {
		return err
	}
	i.log.Debug("seeded category", zap.String("id", c.ID), zap.String("path", c.Path))
	return nil
}

func (i *CatalogImporter) ImportBrand(ctx context.Context, b models.Brand) error {
	if b.Slug == "" {
		b.Slug = Slugify(b.Name)
	}
	if exists, err := i.exists(ctx, b.ID, b.Slug, i.brandByID, i.brandBySlug); err != nil || exists {
		return err
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.CreatedAt, b.UpdatedAt = i.stamp(b.CreatedAt)

	if err := i.brands.Create(ctx, &b); err != nil {
		return err
	}
	i.log.Debug("seeded brand", zap.String("id", b.ID), zap.String("slug", b.Slug))
	return nil
}

// ImportProduct checks the product against its category like an admin write
// does before storing it.
func (i *CatalogImporter) ImportProduct(ctx context.Context, p models.Product) error {
	if p.Slug == "" {
		p.Slug = Slugify(p.Name)
	}
	if exists, err := i.exists(ctx, p.ID, p.Slug, i.productByID, i.productBySlug); err != nil || exists {
		return err
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}

	cat, err := i.categories.GetByID(ctx, p.CategoryID)
	if err != nil {
		return err
	}
	p.FilterAttributes = cleanAttributes(p.FilterAttributes)
	p.Variants = cleanVariants(p.Variants)
	p.Tags = cleanTags(p.Tags)

	verr := validation.New()
	checkSchema(verr, &p, cat)
	if err := verr.OrNil(); err != nil {
		return err
	}

	p.MinPrice = p.ComputeMinPrice()
	p.CreatedAt, p.UpdatedAt = i.stamp(p.CreatedAt)

	if err := i.products.Create(ctx, &p); err != nil {
		return err
	}
	i.log.Debug("seeded product", zap.String("id", p.ID), zap.String("slug", p.Slug))
	return nil
}

func (i *CatalogImporter) stamp(created time.Time) (time.Time, time.Time) {
	now := i.now().UTC()
	if created.IsZero() {
		created = now
	}
	return created, now
}

type finder func(ctx context.Context, key string) error

func (i *CatalogImporter) exists(ctx context.Context, id, slug string, byID, bySlug finder) (bool, error) {
	checks := []struct {
		key  string
		find finder
	}{{id, byID}, {slug, bySlug}}

	for _, c := range checks {
		if c.key == "" {
			continue
		}
		err := c.find(ctx, c.key)
		if err == nil {
			return true, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return false, err
		}
	}
	return false, nil
}

func (i *CatalogImporter) categoryByID(ctx context.Context, id string) error {
	_, err := i.categories.GetByID(ctx, id)
	return err
}

func (i *CatalogImporter) categoryBySlug(ctx context.Context, slug string) error {
	_, err := i.categories.GetBySlug(ctx, slug)
	return err
}

func (i *CatalogImporter) brandByID(ctx context.Context, id string) error {
	_, err := i.brands.GetByID(ctx, id)
	return err
}

func (i *CatalogImporter) brandBySlug(ctx context.Context, slug string) error {
	_, err := i.brands.GetBySlug(ctx, slug)
	return err
}

func (i *CatalogImporter) productByID(ctx context.Context, id string) error {
	_, err := i.products.GetByID(ctx, id)
	return err
}

func (i *CatalogImporter) productBySlug(ctx context.Context, slug string) error {
	_, err := i.products.GetBySlug(ctx, slug)
	return err
}
