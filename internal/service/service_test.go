package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/Lixing-Zhang/storefront-api/internal/auth"
	"github.com/Lixing-Zhang/storefront-api/internal/cart"
	"github.com/Lixing-Zhang/storefront-api/internal/metrics"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
)

type published struct {
	eventType string
	key       string
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{eventType, key})
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := []string{}
	for _, e := range p.events {
		out = append(out, e.eventType)
	}
	return out
}

// env wires every service over in-memory repositories.
type env struct {
	products   *repository.InMemoryProductRepository
	categories *repository.InMemoryCategoryRepository
	brands     *repository.InMemoryBrandRepository
	users      *repository.InMemoryUserRepository
	orders     *repository.InMemoryOrderRepository
	carts      *cart.MemoryStore
	publisher  *recordingPublisher
	metrics    *metrics.Metrics
	tokens     *auth.TokenManager

	categorySvc *CategoryService
	brandSvc    *BrandService
	productSvc  *ProductService
	catalogSvc  *CatalogService
	cartSvc     *CartService
	checkoutSvc *CheckoutService
	authSvc     *AuthService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	log := zap.NewNop()

	e := &env{
		products:   repository.NewInMemoryProductRepository(),
		categories: repository.NewInMemoryCategoryRepository(),
		brands:     repository.NewInMemoryBrandRepository(),
		users:      repository.NewInMemoryUserRepository(),
		orders:     repository.NewInMemoryOrderRepository(),
		carts:      cart.NewMemoryStore(time.Hour),
		publisher:  &recordingPublisher{},
		metrics:    metrics.New(),
		tokens:     auth.NewTokenManager("test-secret", "storefront-test", time.Hour),
	}

	e.categorySvc = NewCategoryService(e.categories, e.products, log)
	e.brandSvc = NewBrandService(e.brands, log)
	e.productSvc = NewProductService(e.products, e.categories, e.brands, e.publisher, log)
	e.catalogSvc = NewCatalogService(e.products, e.categorySvc, e.brands, e.metrics, log)
	e.cartSvc = NewCartService(e.carts, e.products, e.metrics, log)
	e.checkoutSvc = NewCheckoutService(e.carts, e.products, e.orders, e.publisher, e.metrics, log)
	e.authSvc = NewAuthService(e.users, e.tokens, log)
	e.authSvc.cost = bcrypt.MinCost
	return e
}

func apparelAttributes() []models.CategoryAttribute {
	return []models.CategoryAttribute{
		{Name: "Color", Values: []string{"Rojo", "Azul"}, IsVariant: true, IsFilter: true},
		{Name: "Talla", Values: []string{"S", "M", "L"}, IsVariant: true},
		{Name: "Material", IsFilter: true},
	}
}

func (e *env) category(t *testing.T, name string, parent *models.Category, attrs []models.CategoryAttribute) *models.Category {
	t.Helper()
	in := models.CategoryInput{Name: name, Attributes: attrs}
	if parent != nil {
		id := parent.ID
		in.ParentCategory = &id
	}
	c, err := e.categorySvc.Create(context.Background(), in)
	require.NoError(t, err)
	return c
}

func (e *env) brand(t *testing.T, name string) *models.Brand {
	t.Helper()
	b, err := e.brandSvc.Create(context.Background(), models.BrandInput{Name: name})
	require.NoError(t, err)
	return b
}

func variantOf(sku string, price float64, stock int, color, talla string) models.Variant {
	v := models.Variant{SKU: sku, Price: price, Stock: stock, Images: []string{}}
	if color != "" {
		v.Attributes = append(v.Attributes, models.Attribute{Key: "Color", Value: color})
	}
	if talla != "" {
		v.Attributes = append(v.Attributes, models.Attribute{Key: "Talla", Value: talla})
	}
	return v
}

func teeInput(categoryID string) models.ProductInput {
	return models.ProductInput{
		Name:             "Camiseta Básica",
		CategoryID:       categoryID,
		FilterAttributes: []models.Attribute{{Key: "Material", Value: "Algodón"}},
		Tags:             []string{"verano"},
		Variants: []models.Variant{
			variantOf("TEE-R-S", 19.99, 5, "Rojo", "S"),
			variantOf("TEE-R-M", 19.99, 2, "Rojo", "M"),
			variantOf("TEE-A-S", 24.50, 0, "Azul", "S"),
		},
	}
}

func (e *env) product(t *testing.T, in models.ProductInput) *models.Product {
	t.Helper()
	p, err := e.productSvc.Create(context.Background(), in)
	require.NoError(t, err)
	return p
}

func ptr[T any](v T) *T { return &v }

func zapNop() *zap.Logger { return zap.NewNop() }
