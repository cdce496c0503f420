package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront-api/internal/cart"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

func TestCartService_AddMergesLines(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tees := e.category(t, "Camisetas", nil, apparelAttributes())
	p := e.product(t, teeInput(tees.ID))

	_, err := e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-S", Quantity: 1})
	require.NoError(t, err)
	summary, err := e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-S", Quantity: 2})
	require.NoError(t, err)

	require.Len(t, summary.Items, 1)
	item := summary.Items[0]
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, "Camiseta Básica", item.Name)
	assert.Equal(t, 19.99, item.PriceSnapshot)
	assert.Equal(t, []models.Attribute{{Key: "Color", Value: "Rojo"}, {Key: "Talla", Value: "S"}}, item.Attributes)
	assert.Equal(t, 3, summary.TotalItems)
	assert.Equal(t, 59.97, summary.TotalPrice)

	other, err := e.cartSvc.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Empty(t, other.Items, "carts are per session")
}

func TestCartService_TotalsUseSalePrice(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tees := e.category(t, "Camisetas", nil, apparelAttributes())
	in := teeInput(tees.ID)
	in.Variants[1].SalePrice = ptr(0.1)
	p := e.product(t, in)

	_, err := e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-M", Quantity: 2})
	require.NoError(t, err)
	summary, err := e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-S", Quantity: 1})
	require.NoError(t, err)

	assert.Equal(t, 20.19, summary.TotalPrice)
}

func TestCartService_AddErrors(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tees := e.category(t, "Camisetas", nil, apparelAttributes())
	p := e.product(t, teeInput(tees.ID))
	hiddenIn := teeInput(tees.ID)
	hiddenIn.Name = "Oculta"
	hiddenIn.IsActive = ptr(false)
	for i := range hiddenIn.Variants {
		hiddenIn.Variants[i].SKU += "-H"
	}
	hidden := e.product(t, hiddenIn)

	tests := []struct {
		name    string
		session string
		req     models.AddCartItemRequest
		wantErr error
	}{
		{"no session", "", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-S", Quantity: 1}, cart.ErrNoSession},
		{"zero quantity", "s", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-S", Quantity: 0}, ErrInvalidQuantity},
		{"unknown product", "s", models.AddCartItemRequest{ProductID: "nope", SKU: "TEE-R-S", Quantity: 1}, repository.ErrNotFound},
		{"inactive product", "s", models.AddCartItemRequest{ProductID: hidden.ID, SKU: "TEE-R-S-H", Quantity: 1}, ErrProductUnavailable},
		{"unknown sku", "s", models.AddCartItemRequest{ProductID: p.ID, SKU: "NOPE", Quantity: 1}, ErrVariantNotFound},
		{"more than stock", "s", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-M", Quantity: 3}, ErrInsufficientStock},
		{"sold out", "s", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-A-S", Quantity: 1}, ErrInsufficientStock},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.cartSvc.Add(ctx, tt.session, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := e.cartSvc.Add(ctx, "s", models.AddCartItemRequest{Quantity: 1})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
}

func TestCartService_MergedQuantityRespectsStock(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tees := e.category(t, "Camisetas", nil, apparelAttributes())
	p := e.product(t, teeInput(tees.ID))

	_, err := e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-M", Quantity: 2})
	require.NoError(t, err)
	_, err = e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-M", Quantity: 1})
	assert.ErrorIs(t, err, ErrInsufficientStock)

	summary, err := e.cartSvc.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, 2, summary.TotalItems)
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	tees := e.category(t, "Camisetas", nil, apparelAttributes())
	p := e.product(t, teeInput(tees.ID))

	_, err := e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-S", Quantity: 1})
	require.NoError(t, err)
	_, err = e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-M", Quantity: 1})
	require.NoError(t, err)

	summary, err := e.cartSvc.UpdateQuantity(ctx, "s1", p.ID, "TEE-R-S", 4)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.TotalItems)

	_, err = e.cartSvc.UpdateQuantity(ctx, "s1", p.ID, "TEE-R-S", 6)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	_, err = e.cartSvc.UpdateQuantity(ctx, "s1", p.ID, "TEE-R-S", -1)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = e.cartSvc.UpdateQuantity(ctx, "s1", p.ID, "TEE-A-S", 1)
	assert.ErrorIs(t, err, repository.ErrNotFound, "line not in cart")

	summary, err = e.cartSvc.UpdateQuantity(ctx, "s1", p.ID, "TEE-R-M", 0)
	require.NoError(t, err)
	require.Len(t, summary.Items, 1)
	assert.Equal(t, "TEE-R-S", summary.Items[0].SKU)

	summary, err = e.cartSvc.Remove(ctx, "s1", p.ID, "TEE-R-S")
	require.NoError(t, err)
	assert.Empty(t, summary.Items)
	_, err = e.cartSvc.Remove(ctx, "s1", p.ID, "TEE-R-S")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = e.cartSvc.Add(ctx, "s1", models.AddCartItemRequest{ProductID: p.ID, SKU: "TEE-R-S", Quantity: 1})
	require.NoError(t, err)
	summary, err = e.cartSvc.Clear(ctx, "s1")
	require.NoError(t, err)
	assert.Zero(t, summary.TotalItems)
	assert.Zero(t, e.carts.Len())
}
