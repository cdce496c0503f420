package handlers

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/variant"
)

func TestListProducts(t *testing.T) {
	s := newTestServer(t)
	cat, tee := s.seedCatalog(t)

	tests := []struct {
		name       string
		query      url.Values
		wantStatus int
		wantTotal  int
	}{
		{"all active", nil, http.StatusOK, 1},
		{"by category", url.Values{"category": {cat.ID}}, http.StatusOK, 1},
		{"attribute key:value", url.Values{"attributes": {"Material:Algodón"}}, http.StatusOK, 1},
		{"attribute json", url.Values{"attributes": {`{"key":"Color","value":"Azul"}`}}, http.StatusOK, 1},
		{"attribute miss", url.Values{"attributes": {"Material:Lino"}}, http.StatusOK, 0},
		{"price range", url.Values{"minPrice": {"21"}, "maxPrice": {"30"}}, http.StatusOK, 0},
		{"search", url.Values{"search": {"básica"}}, http.StatusOK, 1},
		{"bad sort", url.Values{"sortBy": {"stock"}}, http.StatusBadRequest, 0},
		{"inverted price range", url.Values{"minPrice": {"50"}, "maxPrice": {"10"}}, http.StatusBadRequest, 0},
		{"bad attribute", url.Values{"attributes": {"Material"}}, http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/api/products/search"
			if len(tt.query) > 0 {
				path += "?" + tt.query.Encode()
			}
			w := s.do(t, request{method: http.MethodGet, path: path})
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			page := decode[models.Page[models.Product]](t, w)
			if page.Total != tt.wantTotal {
				t.Errorf("expected total %d, got %d", tt.wantTotal, page.Total)
			}
			if tt.wantTotal == 1 && page.Data[0].ID != tee.ID {
				t.Errorf("expected %s, got %s", tee.ID, page.Data[0].ID)
			}
		})
	}
}

func TestListProducts_HidesInactive(t *testing.T) {
	s := newTestServer(t)
	_, tee := s.seedCatalog(t)
	admin := s.token(t, models.RoleAdmin)

	w := s.do(t, request{method: http.MethodPatch, path: "/api/products/" + tee.ID, token: admin,
		body: models.ProductPatch{IsActive: ptrTo(false)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	public := decode[models.Page[models.Product]](t, s.do(t, request{method: http.MethodGet, path: "/api/products"}))
	assert.Equal(t, 0, public.Total)

	all := decode[models.Page[models.Product]](t, s.do(t, request{method: http.MethodGet, path: "/api/admin/products", token: admin}))
	assert.Equal(t, 1, all.Total)

	w = s.do(t, request{method: http.MethodGet, path: "/api/products/" + tee.ID})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetProduct(t *testing.T) {
	s := newTestServer(t)
	cat, tee := s.seedCatalog(t)

	tests := []struct {
		name       string
		path       string
		wantStatus int
	}{
		{"by id", "/api/products/" + tee.ID, http.StatusOK},
		{"by slug", "/api/products/slug/" + tee.Slug, http.StatusOK},
		{"unknown id", "/api/products/does-not-exist", http.StatusNotFound},
		{"unknown slug", "/api/products/slug/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, request{method: http.MethodGet, path: tt.path})
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, w.Code)
			}
			if tt.wantStatus != http.StatusOK {
				resp := decode[ErrorResponse](t, w)
				if resp.Error != "not found" {
					t.Errorf("expected not found error, got %q", resp.Error)
				}
				return
			}
			detail := decode[models.ProductDetail](t, w)
			if detail.ID != tee.ID {
				t.Errorf("expected product %s, got %s", tee.ID, detail.ID)
			}
			if detail.CategoryRef == nil || detail.CategoryRef.ID != cat.ID {
				t.Errorf("expected category %s to be populated", cat.ID)
			}
		})
	}
}

func TestListByCategory(t *testing.T) {
	s := newTestServer(t)
	cat, _ := s.seedCatalog(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/products/by-category/" + cat.Slug})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[CategoryProductsResponse](t, w)
	assert.Equal(t, 1, resp.Total)
	require.NotNil(t, resp.Category)
	assert.Equal(t, cat.ID, resp.Category.ID)

	w = s.do(t, request{method: http.MethodGet, path: "/api/products/by-category/unknown"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRelatedProducts_Limit(t *testing.T) {
	s := newTestServer(t)
	_, tee := s.seedCatalog(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/products/" + tee.ID + "/related?limit=0"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, request{method: http.MethodGet, path: "/api/products/" + tee.ID + "/related?limit=4"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.Product](t, w), "a product is never related to itself")
}

func TestVariantView(t *testing.T) {
	s := newTestServer(t)
	_, tee := s.seedCatalog(t)

	w := s.do(t, request{method: http.MethodGet, path: "/api/products/" + tee.Slug + "/variants?color=Rojo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	view := decode[variant.View](t, w)
	assert.Equal(t, []string{"Rojo", "Azul"}, view.Colors)
	assert.Equal(t, []variant.SizeOption{{Value: "S", Status: variant.InStock}, {Value: "M", Status: variant.InStock}}, view.Tallas)
	assert.Nil(t, view.Active)
	assert.False(t, view.CanAddToCart)

	w = s.do(t, request{method: http.MethodGet, path: "/api/products/" + tee.ID + "/variants?color=Azul&talla=S"})
	require.Equal(t, http.StatusOK, w.Code)
	view = decode[variant.View](t, w)
	require.NotNil(t, view.Active)
	assert.Equal(t, "TEE-A-S", view.Active.SKU)
	assert.False(t, view.CanAddToCart, "TEE-A-S is sold out")
}

func TestSelectVariant(t *testing.T) {
	s := newTestServer(t)
	_, tee := s.seedCatalog(t)
	path := "/api/products/" + tee.ID + "/variants/select"

	tests := []struct {
		name       string
		body       SelectVariantRequest
		wantStatus int
		wantSKU    string
	}{
		{"color with two tallas", SelectVariantRequest{Event: variant.Event{Axis: "Color", Value: "Rojo"}}, http.StatusOK, ""},
		{"singleton talla auto-selects", SelectVariantRequest{Event: variant.Event{Axis: "Color", Value: "Azul"}}, http.StatusOK, "TEE-A-S"},
		{"talla completes selection", SelectVariantRequest{
			Selection: variant.Selection{Color: "Rojo"},
			Event:     variant.Event{Axis: "Talla", Value: "M"},
		}, http.StatusOK, "TEE-R-M"},
		{"value not offered", SelectVariantRequest{Event: variant.Event{Axis: "Color", Value: "Verde"}}, http.StatusBadRequest, ""},
		{"unknown axis", SelectVariantRequest{Event: variant.Event{Axis: "Fit", Value: "Slim"}}, http.StatusBadRequest, ""},
		{"missing value", SelectVariantRequest{Event: variant.Event{Axis: "Color"}}, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, request{method: http.MethodPost, path: path, body: tt.body})
			if w.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			view := decode[variant.View](t, w)
			if tt.wantSKU == "" {
				assert.Nil(t, view.Active)
				return
			}
			require.NotNil(t, view.Active)
			assert.Equal(t, tt.wantSKU, view.Active.SKU)
		})
	}
}

func TestCreateProduct_ValidationErrors(t *testing.T) {
	s := newTestServer(t)
	cat, _ := s.seedCatalog(t)
	admin := s.token(t, models.RoleAdmin)

	w := s.do(t, request{method: http.MethodPost, path: "/api/products", token: admin, body: models.ProductInput{
		Name:       "Camiseta Verde",
		CategoryID: cat.ID,
		Variants: []models.Variant{
			{SKU: "TEE-V-S", Price: 20, Stock: 1, Attributes: []models.Attribute{{Key: "Color", Value: "Verde"}, {Key: "Talla", Value: "S"}}},
		},
	}})
	require.Equal(t, http.StatusBadRequest, w.Code)

	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "validation failed", resp.Error)
	assert.Contains(t, resp.Fields, "variants[0].attributes[Color]")

	w = s.do(t, request{method: http.MethodPost, path: "/api/products", token: admin})
	assert.Equal(t, http.StatusBadRequest, w.Code, "empty body")
}

func TestDeleteProduct(t *testing.T) {
	s := newTestServer(t)
	_, tee := s.seedCatalog(t)
	admin := s.token(t, models.RoleAdmin)

	w := s.do(t, request{method: http.MethodDelete, path: "/api/products/" + tee.ID, token: admin})
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, request{method: http.MethodDelete, path: "/api/products/" + tee.ID, token: admin})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func ptrTo[T any](v T) *T { return &v }
