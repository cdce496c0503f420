package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

const productColumns = `id, name, slug, short_description, long_description, category_id, brand_id,
	filter_attributes, variants, tags, is_active, min_price, created_at, updated_at`

type productRow struct {
	ID               string                         `db:"id"`
	Name             string                         `db:"name"`
	Slug             string                         `db:"slug"`
	ShortDescription string                         `db:"short_description"`
	LongDescription  string                         `db:"long_description"`
	CategoryID       string                         `db:"category_id"`
	BrandID          sql.NullString                 `db:"brand_id"`
	FilterAttributes jsonColumn[[]models.Attribute] `db:"filter_attributes"`
	Variants         jsonColumn[[]models.Variant]   `db:"variants"`
	Tags             pq.StringArray                 `db:"tags"`
	IsActive         bool                           `db:"is_active"`
	MinPrice         float64                        `db:"min_price"`
	CreatedAt        time.Time                      `db:"created_at"`
	UpdatedAt        time.Time                      `db:"updated_at"`
}

func (r productRow) toModel() models.Product {
	p := models.Product{
		ID:               r.ID,
		Name:             r.Name,
		Slug:             r.Slug,
		ShortDescription: r.ShortDescription,
		LongDescription:  r.LongDescription,
		CategoryID:       r.CategoryID,
		BrandID:          stringPtr(r.BrandID),
		FilterAttributes: r.FilterAttributes.V,
		Variants:         r.Variants.V,
		Tags:             []string(r.Tags),
		IsActive:         r.IsActive,
		MinPrice:         r.MinPrice,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if p.FilterAttributes == nil {
		p.FilterAttributes = []models.Attribute{}
	}
	if p.Variants == nil {
		p.Variants = []models.Variant{}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return p
}

func productArgs(p *models.Product) []any {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return []any{
		p.ID, p.Name, p.Slug, p.ShortDescription, p.LongDescription, p.CategoryID, nullString(p.BrandID),
		jsonColumn[[]models.Attribute]{V: nonNil(p.FilterAttributes)},
		jsonColumn[[]models.Variant]{V: nonNil(p.Variants)},
		pq.StringArray(tags), p.IsActive, p.MinPrice, p.CreatedAt, p.UpdatedAt,
	}
}

// PGProductRepository implements ProductRepository on PostgreSQL. Variants
// and attributes are JSONB documents on the product row.
type PGProductRepository struct {
	DB *sqlx.DB
}

func NewPGProductRepository(db *sqlx.DB) *PGProductRepository {
	return &PGProductRepository{DB: db}
}

// List runs a count and a page query sharing one WHERE clause.
func (r *PGProductRepository) List(ctx context.Context, q models.ProductQuery) ([]models.Product, int, error) {
	where, args := productWhere(q)

	var total int
	if err := r.DB.GetContext(ctx, &total, "SELECT count(*) FROM products"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s", productColumns, where, productOrderBy(q))
	if q.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", q.Limit, q.Offset())
	}

	var rows []productRow
	if err := r.DB.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, row := range rows {
		products = append(products, row.toModel())
	}
	return products, total, nil
}

// productWhere builds the WHERE clause and positional args for q.
func productWhere(q models.ProductQuery) (string, []any) {
	conditions := []string{}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if q.ActiveOnly {
		conditions = append(conditions, "is_active = TRUE")
	}
	if len(q.CategoryIDs) > 0 {
		conditions = append(conditions, "category_id = ANY("+arg(pq.StringArray(q.CategoryIDs))+")")
	}
	if q.BrandID != "" {
		conditions = append(conditions, "brand_id = "+arg(q.BrandID))
	}
	if q.MinPrice != nil {
		conditions = append(conditions, "min_price >= "+arg(*q.MinPrice))
	}
	if q.MaxPrice != nil {
		conditions = append(conditions, "min_price <= "+arg(*q.MaxPrice))
	}
	if len(q.Tags) > 0 {
		conditions = append(conditions, "tags && "+arg(pq.StringArray(q.Tags)))
	}

	keys, groups := q.AttributeGroups()
	for _, key := range keys {
		alternatives := []string{}
		for _, value := range groups[key] {
			attr := []models.Attribute{{Key: key, Value: value}}
			filterDoc, _ := json.Marshal(attr)
			variantDoc, _ := json.Marshal([]map[string]any{{"attributes": attr}})
			alternatives = append(alternatives,
				"filter_attributes @> "+arg(string(filterDoc))+"::jsonb",
				"variants @> "+arg(string(variantDoc))+"::jsonb",
			)
		}
		conditions = append(conditions, "("+strings.Join(alternatives, " OR ")+")")
	}

	if search := strings.TrimSpace(q.Search); search != "" {
		p := arg("%" + search + "%")
		conditions = append(conditions, fmt.Sprintf("(name ILIKE %s OR slug ILIKE %s OR short_description ILIKE %s)", p, p, p))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func productOrderBy(q models.ProductQuery) string {
	// Whitelisted to keep user input out of the SQL text.
	column := "created_at"
	switch q.SortBy {
	case models.SortByPrice:
		column = "min_price"
	case models.SortByName:
		column = "LOWER(name)"
	}
	if strings.EqualFold(q.SortOrder, "asc") {
		return column + " ASC, id ASC"
	}
	return column + " DESC, id DESC"
}

func (r *PGProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return r.getOne(ctx, "id", id)
}

func (r *PGProductRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	return r.getOne(ctx, "slug", slug)
}

func (r *PGProductRepository) getOne(ctx context.Context, column, value string) (*models.Product, error) {
	var row productRow
	query := fmt.Sprintf("SELECT %s FROM products WHERE %s = $1 LIMIT 1", productColumns, column)
	if err := r.DB.GetContext(ctx, &row, query, value); err != nil {
		return nil, mapError(err)
	}
	p := row.toModel()
	return &p, nil
}

func (r *PGProductRepository) Create(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.DB.ExecContext(ctx, query, productArgs(p)...)
	return mapError(err)
}

func (r *PGProductRepository) Update(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET name = $2, slug = $3, short_description = $4, long_description = $5,
			category_id = $6, brand_id = $7, filter_attributes = $8, variants = $9,
			tags = $10, is_active = $11, min_price = $12, created_at = $13, updated_at = $14
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, productArgs(p)...)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

func (r *PGProductRepository) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
	if err != nil {
		return mapError(err)
	}
	return expectOne(res)
}

// AdjustStock locks the product row, edits the variant document and writes
// it back in one transaction.
func (r *PGProductRepository) AdjustStock(ctx context.Context, productID, sku string, delta int) error {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var variants jsonColumn[[]models.Variant]
	if err := tx.GetContext(ctx, &variants, "SELECT variants FROM products WHERE id = $1 FOR UPDATE", productID); err != nil {
		return mapError(err)
	}

	found := false
	for i := range variants.V {
		if variants.V[i].SKU != sku {
			continue
		}
		if variants.V[i].Stock+delta < 0 {
			return ErrInsufficientStock
		}
		variants.V[i].Stock += delta
		found = true
		break
	}
	if !found {
		return ErrNotFound
	}

	if _, err := tx.ExecContext(ctx, "UPDATE products SET variants = $2, updated_at = NOW() WHERE id = $1", productID, variants); err != nil {
		return mapError(err)
	}
	return tx.Commit()
}

func (r *PGProductRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	var n int
	err := r.DB.GetContext(ctx, &n, "SELECT count(*) FROM products WHERE category_id = $1", categoryID)
	return n, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
