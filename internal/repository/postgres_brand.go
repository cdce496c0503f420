package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

const brandColumns = `id, name, slug, description, logo_url, is_active, created_at, updated_at`

// PGBrandRepository implements BrandRepository on PostgreSQL.
type PGBrandRepository struct {
	DB *sqlx.DB
}

func NewPGBrandRepository(db *sqlx.DB) *PGBrandRepository {
	return &PGBrandRepository{DB: db}
}

func (r *PGBrandRepository) List(ctx context.Context) ([]models.Brand, error) {
	var brands []models.Brand
	query := fmt.Sprintf("SELECT %s FROM brands ORDER BY name", brandColumns)
	if err := r.DB.SelectContext(ctx, &brands, query); err != nil {
		return nil, fmt.Errorf("list brands: %w", err)
	}
	return nonNil(brands), nil
}

func (r *PGBrandRepository) GetByID(ctx context.Context, id string) (*models.Brand, error) {
	return r.getOne(ctx, "id", id)
}

func (r *PGBrandRepository) GetBySlug(ctx context.Context, slug string) (*models.Brand, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *PGBrandRepository) getOne(ctx context.Context, column, value string) (*models.Brand, error) {
	var b models.Brand
	query := fmt.Sprintf("SELECT %s FROM brands WHERE %s = $1 LIMIT 1", brandColumns, column)
	if err := r.DB.GetContext(ctx, &b, query, value); err != nil {
		return nil, mapError(err)
	}
	return &b, nil
}

func (r *PGBrandRepository) Create(ctx context.Context, b *models.Brand) error {
	query := `
		INSERT INTO brands (id, name, slug, description, logo_url, is_active, created_at, updated_at)
		VALUES (:id, :name, :slug, :description, :logo_url, :is_active, :created_at, :updated_at)
	`
	_, err := r.DB.NamedExecContext(ctx, query, b)
	return mapError(err)
}

func (r *PGBrandRepository) Update(ctx context.Context, b *models.Brand) error {
	query := `
		UPDATE brands
		SET name = :name, slug = :slug, description = :description, logo_url = :logo_url,
			is_active = :is_active, updated_at = :updated_at
		WHERE id = :id
	`
	res, err := r.DB.NamedExecContext(ctx, query, b)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *PGBrandRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM brands WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
