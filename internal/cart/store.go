// Package cart keeps session carts in a key-value store keyed by the
// client's session id.
package cart

import (
	"context"
	"errors"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// ErrNoSession is returned when a request carries no session id.
var ErrNoSession = errors.New("missing session id")

// Store loads and saves carts by session id. Load returns an empty cart for
// an unknown session.
type Store interface {
	Load(ctx context.Context, sessionID string) (*models.Cart, error)
	Save(ctx context.Context, cart *models.Cart) error
	Delete(ctx context.Context, sessionID string) error
}

func emptyCart(sessionID string) *models.Cart {
	return &models.Cart{SessionID: sessionID, Items: []models.CartItem{}}
}

func cloneCart(c *models.Cart) *models.Cart {
	out := *c
	out.Items = make([]models.CartItem, len(c.Items))
	for i, item := range c.Items {
		ci := item
		ci.Attributes = append([]models.Attribute(nil), item.Attributes...)
		ci.Images = append([]string(nil), item.Images...)
		out.Items[i] = ci
	}
	return &out
}
