package service

import "errors"

var (
	ErrInvalidQuantity    = errors.New("quantity must be positive")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrProductUnavailable = errors.New("product is not available")
	ErrVariantNotFound    = errors.New("variant not found")
	ErrInsufficientStock  = errors.New("not enough stock")
	ErrCategoryInUse      = errors.New("category has subcategories or products")
	ErrCategoryCycle      = errors.New("category cannot be its own ancestor")
	ErrInvalidCredentials = errors.New("invalid email or password")
)
