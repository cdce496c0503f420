package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

// BrandService manages brands.
type BrandService struct {
	brands repository.BrandRepository
	log    *zap.Logger
	now    func() time.Time
}

func NewBrandService(brands repository.BrandRepository, log *zap.Logger) *BrandService {
	return &BrandService{brands: brands, log: log, now: time.Now}
}

func (s *BrandService) List(ctx context.Context) ([]models.Brand, error) {
	return s.brands.List(ctx)
}

func (s *BrandService) Get(ctx context.Context, id string) (*models.Brand, error) {
	return s.brands.GetByID(ctx, id)
}

func (s *BrandService) Create(ctx context.Context, in models.BrandInput) (*models.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	b := &models.Brand{
		ID:          uuid.NewString(),
		Name:        in.Name,
		Description: in.Description,
		LogoURL:     in.LogoURL,
		IsActive:    in.IsActive == nil || *in.IsActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	var err error
	if b.Slug, err = s.slugFor(ctx, in.Slug, in.Name, b.ID); err != nil {
		return nil, err
	}
	if err := s.brands.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create brand: %w", err)
	}
	s.log.Info("brand created", zap.String("id", b.ID), zap.String("slug", b.Slug))
	return b, nil
}

func (s *BrandService) Update(ctx context.Context, id string, in models.BrandInput) (*models.Brand, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	b, err := s.brands.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	b.Name = in.Name
	b.Description = in.Description
	b.LogoURL = in.LogoURL
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}
	b.UpdatedAt = s.now().UTC()
	if b.Slug, err = s.slugFor(ctx, in.Slug, in.Name, b.ID); err != nil {
		return nil, err
	}

	if err := s.brands.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update brand: %w", err)
	}
	return b, nil
}

func (s *BrandService) Delete(ctx context.Context, id string) error {
	return s.brands.Delete(ctx, id)
}

func (s *BrandService) slugFor(ctx context.Context, requested, name, selfID string) (string, error) {
	base := Slugify(requested)
	if base == "" {
		base = Slugify(name)
	}
	return uniqueSlug(ctx, base, selfID, func(ctx context.Context, slug string) (string, error) {
		b, err := s.brands.GetBySlug(ctx, slug)
		if err != nil {
			return "", err
		}
		return b.ID, nil
	})
}
