package models

import "time"

// CartItem is one product+SKU line with price and attribute snapshots taken
// when the line was added.
type CartItem struct {
	ProductID     string      `json:"productId"`
	SKU           string      `json:"sku"`
	Name          string      `json:"name"`
	Quantity      int         `json:"quantity"`
	PriceSnapshot float64     `json:"priceSnapshot"`
	Attributes    []Attribute `json:"attributes"`
	Images        []string    `json:"images"`
}

// Cart is a session-scoped shopping cart.
type Cart struct {
	SessionID string     `json:"sessionId"`
	Items     []CartItem `json:"items"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Find returns the index of the line for productID+sku, or -1.
func (c *Cart) Find(productID, sku string) int {
	for i, item := range c.Items {
		if item.ProductID == productID && item.SKU == sku {
			return i
		}
	}
	return -1
}

// CartSummary is a cart with computed totals.
type CartSummary struct {
	Cart
	TotalItems int     `json:"totalItems"`
	TotalPrice float64 `json:"totalPrice"`
}

// AddCartItemRequest is the payload for POST /cart/add.
type AddCartItemRequest struct {
	ProductID string `json:"productId" validate:"required"`
	SKU       string `json:"sku" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,gt=0"`
}

// UpdateCartItemRequest is the payload for PATCH /cart/{productId}/{sku}.
type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" validate:"gte=0"`
}
