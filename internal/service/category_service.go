package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

const pathSeparator = " > "

// CategoryService manages the category tree and its attribute schemas.
type CategoryService struct {
	categories repository.CategoryRepository
	products   repository.ProductRepository
	log        *zap.Logger
	now        func() time.Time
}

func NewCategoryService(categories repository.CategoryRepository, products repository.ProductRepository, log *zap.Logger) *CategoryService {
	return &CategoryService{categories: categories, products: products, log: log, now: time.Now}
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*models.Category, error) {
	return s.categories.GetByID(ctx, id)
}

func (s *CategoryService) BySlug(ctx context.Context, slug string) (*models.Category, error) {
	return s.categories.GetBySlug(ctx, slug)
}

// Tree returns the root categories with their children nested, siblings
// ordered by name.
func (s *CategoryService) Tree(ctx context.Context) ([]*models.Category, error) {
	all, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	nodes := make(map[string]*models.Category, len(all))
	for i := range all {
		nodes[all[i].ID] = &all[i]
	}

	roots := []*models.Category{}
	for i := range all {
		c := &all[i]
		if c.ParentCategory != nil {
			if parent, ok := nodes[*c.ParentCategory]; ok {
				parent.Children = append(parent.Children, c)
				continue
			}
		}
		roots = append(roots, c)
	}

	var sortLevel func(level []*models.Category)
	sortLevel = func(level []*models.Category) {
		sort.Slice(level, func(i, j int) bool { return level[i].Name < level[j].Name })
		for _, c := range level {
			sortLevel(c.Children)
		}
	}
	sortLevel(roots)
	return roots, nil
}

// Descendants returns the category identified by slug followed by every
// category below it.
func (s *CategoryService) Descendants(ctx context.Context, slug string) ([]models.Category, error) {
	root, err := s.categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	all, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}

	out := []models.Category{*root}
	for _, c := range all {
		if containsID(c.Ancestors, root.ID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *CategoryService) Create(ctx context.Context, in models.CategoryInput) (*models.Category, error) {
	attrs, err := normalizeInput(&in)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	c := &models.Category{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		Attributes:  attrs,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.place(ctx, c, in.ParentCategory); err != nil {
		return nil, err
	}
	if c.Slug, err = s.slugFor(ctx, in.Slug, in.Name, c.ID); err != nil {
		return nil, err
	}

	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create category: %w", err)
	}
	s.log.Info("category created", zap.String("id", c.ID), zap.String("path", c.Path))
	return c, nil
}

// Update replaces a category's fields. A rename or a move rewrites the
// ancestors and path of the whole subtree.
func (s *CategoryService) Update(ctx context.Context, id string, in models.CategoryInput) (*models.Category, error) {
	attrs, err := normalizeInput(&in)
	if err != nil {
		return nil, err
	}

	c, err := s.categories.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	oldPath := c.Path
	oldAncestors := strings.Join(c.Ancestors, "/")

	c.Name = in.Name
	c.Description = in.Description
	c.Attributes = attrs
	c.UpdatedAt = s.now().UTC()
	if err := s.place(ctx, c, in.ParentCategory); err != nil {
		return nil, err
	}
	if c.Slug, err = s.slugFor(ctx, in.Slug, in.Name, c.ID); err != nil {
		return nil, err
	}

	if err := s.categories.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update category: %w", err)
	}
	if c.Path != oldPath || strings.Join(c.Ancestors, "/") != oldAncestors {
		if err := s.reparentSubtree(ctx, c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Delete refuses to remove a category that still has children or products.
func (s *CategoryService) Delete(ctx context.Context, id string) error {
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		return err
	}

	all, err := s.categories.List(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.ParentCategory != nil && *c.ParentCategory == id {
			return ErrCategoryInUse
		}
	}

	n, err := s.products.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrCategoryInUse
	}
	return s.categories.Delete(ctx, id)
}

// place sets parent, ancestors and path of c under parentID.
func (s *CategoryService) place(ctx context.Context, c *models.Category, parentID *string) error {
	if parentID == nil || strings.TrimSpace(*parentID) == "" {
		c.ParentCategory = nil
		c.Ancestors = []string{}
		c.Path = c.Name
		return nil
	}

	if *parentID == c.ID {
		return ErrCategoryCycle
	}
	parent, err := s.categories.GetByID(ctx, *parentID)
	if errors.Is(err, repository.ErrNotFound) {
		verr := validation.New()
		verr.Add("parentCategory", "does not exist")
		return verr
	}
	if err != nil {
		return err
	}
	if containsID(parent.Ancestors, c.ID) {
		return ErrCategoryCycle
	}

	pid := parent.ID
	c.ParentCategory = &pid
	c.Ancestors = append(append([]string{}, parent.Ancestors...), parent.ID)
	c.Path = parent.Path + pathSeparator + c.Name
	return nil
}

// reparentSubtree recomputes ancestors and path below root, parents first.
func (s *CategoryService) reparentSubtree(ctx context.Context, root *models.Category) error {
	all, err := s.categories.List(ctx)
	if err != nil {
		return err
	}

	byParent := map[string][]models.Category{}
	for _, c := range all {
		if c.ParentCategory != nil {
			byParent[*c.ParentCategory] = append(byParent[*c.ParentCategory], c)
		}
	}

	queue := []*models.Category{root}
	for len(queue) > 0 {
		parent := queue[0]
		queue = queue[1:]
		for _, child := range byParent[parent.ID] {
			child := child
			child.Ancestors = append(append([]string{}, parent.Ancestors...), parent.ID)
			child.Path = parent.Path + pathSeparator + child.Name
			child.UpdatedAt = s.now().UTC()
			if err := s.categories.Update(ctx, &child); err != nil {
				return fmt.Errorf("update subtree %s: %w", child.ID, err)
			}
			queue = append(queue, &child)
		}
	}
	return nil
}

func (s *CategoryService) slugFor(ctx context.Context, requested, name, selfID string) (string, error) {
	base := Slugify(requested)
	if base == "" {
		base = Slugify(name)
	}
	return uniqueSlug(ctx, base, selfID, func(ctx context.Context, slug string) (string, error) {
		c, err := s.categories.GetBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		return c.ID, nil
	})
}

// normalizeInput validates in and returns its cleaned attribute list: names
// trimmed, non-empty and unique; values trimmed and de-duplicated.
func normalizeInput(in *models.CategoryInput) ([]models.CategoryAttribute, error) {
	in.Name = strings.TrimSpace(in.Name)
	verr := validation.New()
	if err := verr.Merge(validation.Struct(in)); err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	attrs := make([]models.CategoryAttribute, 0, len(in.Attributes))
	for i, a := range in.Attributes {
		name := strings.TrimSpace(a.Name)
		field := fmt.Sprintf("attributes[%d].name", i)
		switch {
		case name == "":
			verr.Add(field, "is required")
			continue
		case seen[strings.ToLower(name)]:
			verr.Add(field, fmt.Sprintf("duplicate attribute %q", name))
			continue
		}
		seen[strings.ToLower(name)] = true

		values := []string{}
		for _, v := range a.Values {
			v = strings.TrimSpace(v)
			if v != "" && !containsID(values, v) {
				values = append(values, v)
			}
		}
		attrs = append(attrs, models.CategoryAttribute{
			Name:      name,
			Values:    values,
			IsVariant: a.IsVariant,
			IsFilter:  a.IsFilter,
		})
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return attrs, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
