package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

const categoryColumns = `id, name, slug, description, parent_id, ancestors, path, attributes, created_at, updated_at`

type categoryRow struct {
	ID          string                                 `db:"id"`
	Name        string                                 `db:"name"`
	Slug        string                                 `db:"slug"`
	Description string                                 `db:"description"`
	ParentID    sql.NullString                         `db:"parent_id"`
	Ancestors   jsonColumn[[]string]                   `db:"ancestors"`
	Path        string                                 `db:"path"`
	Attributes  jsonColumn[[]models.CategoryAttribute] `db:"attributes"`
	CreatedAt   time.Time                              `db:"created_at"`
	UpdatedAt   time.Time                              `db:"updated_at"`
}

func (r categoryRow) toModel() models.Category {
	return models.Category{
		ID:             r.ID,
		Name:           r.Name,
		Slug:           r.Slug,
		Description:    r.Description,
		ParentCategory: stringPtr(r.ParentID),
		Ancestors:      nonNil(r.Ancestors.V),
		Path:           r.Path,
		Attributes:     nonNil(r.Attributes.V),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func categoryArgs(c *models.Category) []any {
	return []any{
		c.ID, c.Name, c.Slug, c.Description, nullString(c.ParentCategory),
		jsonColumn[[]string]{V: nonNil(c.Ancestors)}, c.Path,
		jsonColumn[[]models.CategoryAttribute]{V: nonNil(c.Attributes)},
		c.CreatedAt, c.UpdatedAt,
	}
}

// PGCategoryRepository implements CategoryRepository on PostgreSQL.
type PGCategoryRepository struct {
	DB *sqlx.DB
}

func NewPGCategoryRepository(db *sqlx.DB) *PGCategoryRepository {
	return &PGCategoryRepository{DB: db}
}

func (r *PGCategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var rows []categoryRow
	query := fmt.Sprintf("SELECT %s FROM categories ORDER BY path", categoryColumns)
	if err := r.DB.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	out := make([]models.Category, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toModel())
	}
	return out, nil
}

func (r *PGCategoryRepository) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return r.getOne(ctx, "id", id)
}

func (r *PGCategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *PGCategoryRepository) getOne(ctx context.Context, column, value string) (*models.Category, error) {
	var row categoryRow
	query := fmt.Sprintf("SELECT %s FROM categories WHERE %s = $1 LIMIT 1", categoryColumns, column)
	if err := r.DB.GetContext(ctx, &row, query, value); err != nil {
		return nil, mapError(err)
	}
	c := row.toModel()
	return &c, nil
}

func (r *PGCategoryRepository) Create(ctx context.Context, c *models.Category) error {
	query := `
		INSERT INTO categories (` + categoryColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.DB.ExecContext(ctx, query, categoryArgs(c)...)
	return mapError(err)
}

func (r *PGCategoryRepository) Update(ctx context.Context, c *models.Category) error {
	query := `
		UPDATE categories
		SET name = $2, slug = $3, description = $4, parent_id = $5, ancestors = $6,
			path = $7, attributes = $8, created_at = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, categoryArgs(c)...)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *PGCategoryRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM categories WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}
