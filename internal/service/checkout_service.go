package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/cart"
	"github.com/Lixing-Zhang/storefront-api/internal/events"
	"github.com/Lixing-Zhang/storefront-api/internal/metrics"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
)

// CheckoutService turns a session cart into an order.
type CheckoutService struct {
	store     cart.Store
	products  repository.ProductRepository
	orders    repository.OrderRepository
	publisher events.Publisher
	metrics   *metrics.Metrics
	log       *zap.Logger
	now       func() time.Time
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	store cart.Store,
	products repository.ProductRepository,
	orders repository.OrderRepository,
	publisher events.Publisher,
	m *metrics.Metrics,
	log *zap.Logger,
) *CheckoutService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &CheckoutService{
		store:     store,
		products:  products,
		orders:    orders,
		publisher: publisher,
		metrics:   m,
		log:       log,
		now:       time.Now,
	}
}

type reservation struct {
	productID string
	sku       string
	quantity  int
}

// Checkout places an order for the session's cart. Every line is checked
// against the current catalog, stock is reserved line by line and released
// again if any line fails. The cart is cleared once the order is stored.
func (s *CheckoutService) Checkout(ctx context.Context, sessionID, userID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, cart.ErrNoSession
	}
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(c.Items) == 0 {
		return nil, ErrEmptyCart
	}

	for _, item := range c.Items {
		if item.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		p, err := s.products.GetByID(ctx, item.ProductID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, item.Name)
		}
		if err != nil {
			return nil, err
		}
		if !p.IsActive {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, p.Name)
		}
		if _, ok := p.Variant(item.SKU); !ok {
			return nil, fmt.Errorf("%w: %s", ErrVariantNotFound, item.SKU)
		}
	}

	reserved := make([]reservation, 0, len(c.Items))
	for _, item := range c.Items {
		err := s.products.AdjustStock(ctx, item.ProductID, item.SKU, -item.Quantity)
		if err != nil {
			s.release(ctx, reserved)
			if errors.Is(err, repository.ErrInsufficientStock) {
				return nil, fmt.Errorf("%w: %s", ErrInsufficientStock, item.SKU)
			}
			return nil, err
		}
		reserved = append(reserved, reservation{item.ProductID, item.SKU, item.Quantity})
	}

	summary := summarize(c)
	order := &models.Order{
		ID:        generateOrderID(),
		SessionID: sessionID,
		UserID:    userID,
		Items:     c.Items,
		Total:     summary.TotalPrice,
		CreatedAt: s.now().UTC(),
	}

	if err := s.orders.Create(ctx, order); err != nil {
		s.release(ctx, reserved)
		return nil, fmt.Errorf("store order: %w", err)
	}

	if err := s.store.Delete(ctx, sessionID); err != nil {
		s.log.Warn("clear cart after checkout failed", zap.String("session", sessionID), zap.Error(err))
	}

	s.log.Info("order placed",
		zap.String("id", order.ID),
		zap.Int("items", summary.TotalItems),
		zap.Float64("total", order.Total),
	)
	s.metrics.OrderPlaced(order.Total)
	if err := s.publisher.Publish(ctx, events.OrderPlaced, order.ID, order); err != nil {
		s.log.Warn("publish event failed", zap.String("type", events.OrderPlaced), zap.Error(err))
	}
	return order, nil
}

// Order returns a placed order. Orders with a user are only visible to that
// user; anonymous orders only to their session.
func (s *CheckoutService) Order(ctx context.Context, id, sessionID, userID string) (*models.Order, error) {
	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.UserID != "" {
		if o.UserID == userID {
			return o, nil
		}
		return nil, repository.ErrNotFound
	}
	if o.SessionID != "" && o.SessionID == sessionID {
		return o, nil
	}
	return nil, repository.ErrNotFound
}

func (s *CheckoutService) release(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		if err := s.products.AdjustStock(ctx, r.productID, r.sku, r.quantity); err != nil {
			s.log.Error("release reserved stock failed",
				zap.String("product", r.productID),
				zap.String("sku", r.sku),
				zap.Error(err),
			)
		}
	}
}

// generateOrderID generates a unique order ID using UUID
func generateOrderID() string {
	return uuid.New().String()
}
