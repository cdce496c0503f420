package seed

import (
	"context"
	"fmt"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// Importer stores seed records. Implementations decide how to treat records
// that already exist.
type Importer interface {
	ImportCategory(ctx context.Context, c models.Category) error
	ImportBrand(ctx context.Context, b models.Brand) error
	ImportProduct(ctx context.Context, p models.Product) error
}

// Apply imports a catalog: categories parents-first, then brands, then
// products.
func Apply(ctx context.Context, catalog *Catalog, imp Importer) error {
	ordered, err := parentsFirst(catalog.Categories)
	if err != nil {
		return err
	}
	for _, c := range ordered {
		if err := imp.ImportCategory(ctx, c); err != nil {
			return fmt.Errorf("import category %q: %w", c.Slug, err)
		}
	}
	for _, b := range catalog.Brands {
		if err := imp.ImportBrand(ctx, b); err != nil {
			return fmt.Errorf("import brand %q: %w", b.Slug, err)
		}
	}
	for _, p := range catalog.Products {
		if err := imp.ImportProduct(ctx, p); err != nil {
			return fmt.Errorf("import product %q: %w", p.Slug, err)
		}
	}
	return nil
}

// parentsFirst orders categories so that every parent in the document comes
// before its children. Parents outside the document are assumed to exist.
func parentsFirst(categories []models.Category) ([]models.Category, error) {
	inDoc := make(map[string]bool, len(categories))
	for _, c := range categories {
		inDoc[c.ID] = true
	}

	placed := make(map[string]bool, len(categories))
	ordered := make([]models.Category, 0, len(categories))
	for len(ordered) < len(categories) {
		progress := false
		for _, c := range categories {
			if placed[c.ID] {
				continue
			}
			if c.ParentCategory != nil && inDoc[*c.ParentCategory] && !placed[*c.ParentCategory] {
				continue
			}
			placed[c.ID] = true
			ordered = append(ordered, c)
			progress = true
		}
		if !progress {
			return nil, fmt.Errorf("category parents form a cycle")
		}
	}
	return ordered, nil
}
