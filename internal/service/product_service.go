package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/events"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
	"github.com/Lixing-Zhang/storefront-api/internal/variant"
)

// ProductService handles admin product writes and the authoring form.
type ProductService struct {
	products   repository.ProductRepository
	categories repository.CategoryRepository
	brands     repository.BrandRepository
	publisher  events.Publisher
	log        *zap.Logger
	now        func() time.Time
}

// NewProductService creates a new product service
func NewProductService(
	products repository.ProductRepository,
	categories repository.CategoryRepository,
	brands repository.BrandRepository,
	publisher events.Publisher,
	log *zap.Logger,
) *ProductService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProductService{
		products:   products,
		categories: categories,
		brands:     brands,
		publisher:  publisher,
		log:        log,
		now:        time.Now,
	}
}

// Create validates in against its category and stores a new product.
func (s *ProductService) Create(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	p := &models.Product{
		ID:               uuid.NewString(),
		Name:             strings.TrimSpace(in.Name),
		ShortDescription: in.ShortDescription,
		LongDescription:  in.LongDescription,
		CategoryID:       in.CategoryID,
		FilterAttributes: cleanAttributes(in.FilterAttributes),
		Variants:         cleanVariants(in.Variants),
		Tags:             cleanTags(in.Tags),
		IsActive:         in.IsActive == nil || *in.IsActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if in.BrandID != "" {
		brand := in.BrandID
		p.BrandID = &brand
	}

	if err := s.check(ctx, p); err != nil {
		return nil, err
	}

	var err error
	if p.Slug, err = s.slugFor(ctx, in.Slug, p.Name, p.ID); err != nil {
		return nil, err
	}
	p.MinPrice = p.ComputeMinPrice()

	if err := s.products.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.log.Info("product created", zap.String("id", p.ID), zap.String("slug", p.Slug), zap.Int("variants", len(p.Variants)))
	s.publish(ctx, events.ProductSaved, p.ID, p)
	return p, nil
}

// Update applies a partial update. The category invariants are checked
// again whenever the category, the variants or the filter attributes change.
func (s *ProductService) Update(ctx context.Context, id string, patch models.ProductPatch) (*models.Product, error) {
	if err := validation.Struct(patch); err != nil {
		return nil, err
	}

	p, err := s.products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.ShortDescription != nil {
		p.ShortDescription = *patch.ShortDescription
	}
	if patch.LongDescription != nil {
		p.LongDescription = *patch.LongDescription
	}
	if patch.CategoryID != nil {
		p.CategoryID = *patch.CategoryID
	}
	if patch.BrandID != nil {
		p.BrandID = nil
		if *patch.BrandID != "" {
			brand := *patch.BrandID
			p.BrandID = &brand
		}
	}
	if patch.FilterAttributes != nil {
		p.FilterAttributes = cleanAttributes(*patch.FilterAttributes)
	}
	if patch.Variants != nil {
		p.Variants = cleanVariants(*patch.Variants)
	}
	if patch.Tags != nil {
		p.Tags = cleanTags(*patch.Tags)
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}

	if patch.CategoryID != nil || patch.Variants != nil || patch.FilterAttributes != nil || patch.BrandID != nil {
		if err := s.check(ctx, p); err != nil {
			return nil, err
		}
	}
	if patch.Slug != nil {
		if p.Slug, err = s.slugFor(ctx, *patch.Slug, p.Name, p.ID); err != nil {
			return nil, err
		}
	}

	p.MinPrice = p.ComputeMinPrice()
	p.UpdatedAt = s.now().UTC()

	if err := s.products.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update product: %w", err)
	}

	s.log.Info("product updated", zap.String("id", p.ID))
	s.publish(ctx, events.ProductSaved, p.ID, p)
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if err := s.products.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info("product deleted", zap.String("id", id))
	s.publish(ctx, events.ProductDeleted, id, map[string]string{"id": id})
	return nil
}

// NewForm returns a blank authoring form for categoryID, which may be empty.
func (s *ProductService) NewForm(ctx context.Context, categoryID string) (*variant.Form, error) {
	if categoryID == "" {
		return variant.NewForm(nil), nil
	}
	cat, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	return variant.NewForm(cat), nil
}

// EditForm projects an existing product onto its category. A category that
// no longer exists yields rows without attribute controls.
func (s *ProductService) EditForm(ctx context.Context, productID string) (*variant.Form, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	cat, err := s.categories.GetByID(ctx, p.CategoryID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return variant.FormFromProduct(p, cat), nil
}

// ChangeFormCategory re-projects form onto another category.
func (s *ProductService) ChangeFormCategory(ctx context.Context, form *variant.Form, categoryID string) (*variant.Form, error) {
	var cat *models.Category
	if categoryID != "" {
		var err error
		if cat, err = s.categories.GetByID(ctx, categoryID); err != nil {
			return nil, err
		}
	}
	form.ChangeCategory(cat)
	return form, nil
}

// SubmitForm validates form, serializes it with the uploaded image URLs and
// creates or updates the product.
func (s *ProductService) SubmitForm(ctx context.Context, form *variant.Form, uploads map[int][]string) (*models.Product, error) {
	if err := form.Validate(); err != nil {
		return nil, err
	}
	in := form.Payload(uploads)

	if form.ProductID == "" {
		return s.Create(ctx, in)
	}
	return s.Update(ctx, form.ProductID, models.ProductPatch{
		Name:             &in.Name,
		ShortDescription: &in.ShortDescription,
		LongDescription:  &in.LongDescription,
		CategoryID:       &in.CategoryID,
		BrandID:          &in.BrandID,
		FilterAttributes: &in.FilterAttributes,
		Variants:         &in.Variants,
		Tags:             &in.Tags,
		IsActive:         in.IsActive,
	})
}

// check verifies that p's category and brand exist and that its variants
// and filter attributes fit the category's schema.
func (s *ProductService) check(ctx context.Context, p *models.Product) error {
	verr := validation.New()

	cat, err := s.categories.GetByID(ctx, p.CategoryID)
	if errors.Is(err, repository.ErrNotFound) {
		verr.Add("category", "does not exist")
		return verr
	}
	if err != nil {
		return err
	}

	if p.BrandID != nil {
		if _, err := s.brands.GetByID(ctx, *p.BrandID); errors.Is(err, repository.ErrNotFound) {
			verr.Add("brand", "does not exist")
		} else if err != nil {
			return err
		}
	}

	checkSchema(verr, p, cat)
	return verr.OrNil()
}

// checkSchema records every violation of the category's attribute schema.
func checkSchema(verr *validation.Error, p *models.Product, cat *models.Category) {
	variantAxes, filterAxes := variant.Partition(cat.Attributes)

	if len(p.Variants) == 0 {
		verr.Add("variants", "must contain at least 1 items")
	}

	skus := map[string]int{}
	combos := map[string]int{}
	for i, v := range p.Variants {
		prefix := fmt.Sprintf("variants[%d]", i)
		switch {
		case v.SKU == "":
			verr.Add(prefix+".sku", "is required")
		default:
			if first, dup := skus[v.SKU]; dup {
				verr.Add(prefix+".sku", fmt.Sprintf("duplicates variants[%d]", first))
			} else {
				skus[v.SKU] = i
			}
		}
		if v.Price < 0 {
			verr.Add(prefix+".price", "must be greater than or equal to 0")
		}
		if v.SalePrice != nil && *v.SalePrice < 0 {
			verr.Add(prefix+".salePrice", "must be greater than or equal to 0")
		}
		if v.Stock < 0 {
			verr.Add(prefix+".stock", "must be greater than or equal to 0")
		}

		checkAttributes(verr, prefix+".attributes", v.Attributes, variantAxes, "variant")

		key := v.CombinationKey()
		if first, dup := combos[key]; dup {
			verr.Add(prefix+".attributes", fmt.Sprintf("same attribute combination as variants[%d]", first))
		} else {
			combos[key] = i
		}
	}

	for i, keys := range variant.MissingAxes(p.Variants) {
		for _, key := range keys {
			if _, ok := findAxis(variantAxes, key); ok {
				verr.Add(fmt.Sprintf("variants[%d].attributes[%s]", i, key), "is required when other variants set it")
			}
		}
	}

	checkAttributes(verr, "filterAttributes", p.FilterAttributes, filterAxes, "filter")
}

func checkAttributes(verr *validation.Error, prefix string, attrs []models.Attribute, axes []models.CategoryAttribute, kind string) {
	seen := map[string]bool{}
	for _, a := range attrs {
		field := fmt.Sprintf("%s[%s]", prefix, a.Key)
		axis, ok := findAxis(axes, a.Key)
		switch {
		case !ok:
			verr.Add(field, fmt.Sprintf("is not a %s attribute of the category", kind))
		case seen[a.Key]:
			verr.Add(field, "is set more than once")
		case !axis.Allows(a.Value):
			verr.Add(field, fmt.Sprintf("%q is not an allowed value", a.Value))
		}
		seen[a.Key] = true
	}
}

func findAxis(axes []models.CategoryAttribute, name string) (models.CategoryAttribute, bool) {
	for _, a := range axes {
		if a.Name == name {
			return a, true
		}
	}
	return models.CategoryAttribute{}, false
}

func (s *ProductService) slugFor(ctx context.Context, requested, name, selfID string) (string, error) {
	base := Slugify(requested)
	if base == "" {
		base = Slugify(name)
	}
	return uniqueSlug(ctx, base, selfID, func(ctx context.Context, slug string) (string, error) {
		p, err := s.products.GetBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		return p.ID, nil
	})
}

func (s *ProductService) publish(ctx context.Context, eventType, key string, payload any) {
	if err := s.publisher.Publish(ctx, eventType, key, payload); err != nil {
		s.log.Warn("publish event failed", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
	}
}

// cleanAttributes trims keys and values and drops blank values.
func cleanAttributes(attrs []models.Attribute) []models.Attribute {
	out := make([]models.Attribute, 0, len(attrs))
	for _, a := range attrs {
		key, value := strings.TrimSpace(a.Key), strings.TrimSpace(a.Value)
		if key == "" || value == "" {
			continue
		}
		out = append(out, models.Attribute{Key: key, Value: value})
	}
	return out
}

func cleanVariants(variants []models.Variant) []models.Variant {
	out := make([]models.Variant, 0, len(variants))
	for _, v := range variants {
		v.SKU = strings.TrimSpace(v.SKU)
		v.Attributes = cleanAttributes(v.Attributes)
		if v.Images == nil {
			v.Images = []string{}
		}
		out = append(out, v)
	}
	return out
}

func cleanTags(tags []string) []string {
	out := []string{}
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !containsID(out, t) {
			out = append(out, t)
		}
	}
	return out
}
