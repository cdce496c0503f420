// Package repository persists catalog, account and order data. Every
// interface has an in-memory implementation and a PostgreSQL one.
package repository

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("already exists")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ProductRepository defines product data access.
type ProductRepository interface {
	List(ctx context.Context, q models.ProductQuery) ([]models.Product, int, error)
	GetByID(ctx context.Context, id string) (*models.Product, error)
	GetBySlug(ctx context.Context, slug string) (*models.Product, error)
	Create(ctx context.Context, p *models.Product) error
	Update(ctx context.Context, p *models.Product) error
	Delete(ctx context.Context, id string) error
	// AdjustStock adds delta to the stock of one variant.
	AdjustStock(ctx context.Context, productID, sku string, delta int) error
	CountByCategory(ctx context.Context, categoryID string) (int, error)
}

// CategoryRepository defines category data access.
type CategoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	GetByID(ctx context.Context, id string) (*models.Category, error)
	GetBySlug(ctx context.Context, slug string) (*models.Category, error)
	Create(ctx context.Context, c *models.Category) error
	Update(ctx context.Context, c *models.Category) error
	Delete(ctx context.Context, id string) error
}

// BrandRepository defines brand data access.
type BrandRepository interface {
	List(ctx context.Context) ([]models.Brand, error)
	GetByID(ctx context.Context, id string) (*models.Brand, error)
	GetBySlug(ctx context.Context, slug string) (*models.Brand, error)
	Create(ctx context.Context, b *models.Brand) error
	Update(ctx context.Context, b *models.Brand) error
	Delete(ctx context.Context, id string) error
}

// UserRepository defines account data access.
type UserRepository interface {
	Create(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// OrderRepository defines order data access.
type OrderRepository interface {
	Create(ctx context.Context, o *models.Order) error
	GetByID(ctx context.Context, id string) (*models.Order, error)
}
