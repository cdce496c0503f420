package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/cart"
	"github.com/Lixing-Zhang/storefront-api/internal/metrics"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

// CartService manages session carts.
type CartService struct {
	store    cart.Store
	products repository.ProductRepository
	metrics  *metrics.Metrics
	log      *zap.Logger
}

func NewCartService(store cart.Store, products repository.ProductRepository, m *metrics.Metrics, log *zap.Logger) *CartService {
	return &CartService{store: store, products: products, metrics: m, log: log}
}

func (s *CartService) Get(ctx context.Context, sessionID string) (*models.CartSummary, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return summarize(c), nil
}

// Add puts quantity units of productID/sku in the cart, merging with an
// existing line. The price and attributes are snapshotted on first add.
func (s *CartService) Add(ctx context.Context, sessionID string, req models.AddCartItemRequest) (*models.CartSummary, error) {
	if req.Quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	p, v, err := s.purchasable(ctx, req.ProductID, req.SKU)
	if err != nil {
		return nil, err
	}

	idx := c.Find(req.ProductID, req.SKU)
	current := 0
	if idx >= 0 {
		current = c.Items[idx].Quantity
	}
	if current+req.Quantity > v.Stock {
		return nil, fmt.Errorf("%w: %d available", ErrInsufficientStock, v.Stock)
	}

	if idx >= 0 {
		c.Items[idx].Quantity += req.Quantity
	} else {
		c.Items = append(c.Items, models.CartItem{
			ProductID:     p.ID,
			SKU:           v.SKU,
			Name:          p.Name,
			Quantity:      req.Quantity,
			PriceSnapshot: v.EffectivePrice(),
			Attributes:    append([]models.Attribute{}, v.Attributes...),
			Images:        append([]string{}, v.Images...),
		})
	}

	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	s.metrics.CartItemAdded()
	return summarize(c), nil
}

// UpdateQuantity sets a line's quantity; zero removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, sessionID, productID, sku string, quantity int) (*models.CartSummary, error) {
	if quantity < 0 {
		return nil, ErrInvalidQuantity
	}
	if quantity == 0 {
		return s.Remove(ctx, sessionID, productID, sku)
	}

	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := c.Find(productID, sku)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}

	_, v, err := s.purchasable(ctx, productID, sku)
	if err != nil {
		return nil, err
	}
	if quantity > v.Stock {
		return nil, fmt.Errorf("%w: %d available", ErrInsufficientStock, v.Stock)
	}

	c.Items[idx].Quantity = quantity
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return summarize(c), nil
}

func (s *CartService) Remove(ctx context.Context, sessionID, productID, sku string) (*models.CartSummary, error) {
	c, err := s.load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	idx := c.Find(productID, sku)
	if idx < 0 {
		return nil, repository.ErrNotFound
	}

	c.Items = append(c.Items[:idx], c.Items[idx+1:]...)
	if err := s.store.Save(ctx, c); err != nil {
		return nil, err
	}
	return summarize(c), nil
}

func (s *CartService) Clear(ctx context.Context, sessionID string) (*models.CartSummary, error) {
	if sessionID == "" {
		return nil, cart.ErrNoSession
	}
	if err := s.store.Delete(ctx, sessionID); err != nil {
		return nil, err
	}
	return summarize(&models.Cart{SessionID: sessionID, Items: []models.CartItem{}}), nil
}

func (s *CartService) load(ctx context.Context, sessionID string) (*models.Cart, error) {
	if sessionID == "" {
		return nil, cart.ErrNoSession
	}
	return s.store.Load(ctx, sessionID)
}

// purchasable returns the active product and its variant sku.
func (s *CartService) purchasable(ctx context.Context, productID, sku string) (*models.Product, *models.Variant, error) {
	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, nil, err
	}
	if !p.IsActive {
		return nil, nil, ErrProductUnavailable
	}
	v, ok := p.Variant(sku)
	if !ok {
		return nil, nil, ErrVariantNotFound
	}
	return p, v, nil
}

// summarize totals a cart, summing prices as decimals.
func summarize(c *models.Cart) *models.CartSummary {
	total := decimal.Zero
	items := 0
	for _, item := range c.Items {
		items += item.Quantity
		total = total.Add(lineTotal(item))
	}
	return &models.CartSummary{
		Cart:       *c,
		TotalItems: items,
		TotalPrice: total.Round(2).InexactFloat64(),
	}
}

func lineTotal(item models.CartItem) decimal.Decimal {
	return decimal.NewFromFloat(item.PriceSnapshot).Mul(decimal.NewFromInt(int64(item.Quantity)))
}
