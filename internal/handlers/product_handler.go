package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/service"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
	"github.com/Lixing-Zhang/storefront-api/internal/variant"
)

// ProductHandler handles product-related HTTP requests
type ProductHandler struct {
	catalog  *service.CatalogService
	products *service.ProductService
	logger   *zap.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog *service.CatalogService, products *service.ProductService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		catalog:  catalog,
		products: products,
		logger:   logger,
	}
}

// ListProducts handles GET /api/products and GET /api/products/search.
// Only active products are listed.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	page, err := h.catalog.Search(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, page, h.logger)
}

// AdminListProducts handles GET /api/admin/products, inactive included.
func (h *ProductHandler) AdminListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	page, err := h.catalog.ListAll(r.Context(), q)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, page, h.logger)
}

// CategoryProductsResponse is a product page with the category it was
// listed for.
type CategoryProductsResponse struct {
	models.Page[models.Product]
	Category *models.Category `json:"category"`
}

// ListByCategory handles GET /api/products/by-category/{slug}
func (h *ProductHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	q, err := parseProductQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	page, cat, err := h.catalog.ByCategorySlug(r.Context(), chi.URLParam(r, "slug"), q)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, CategoryProductsResponse{Page: page, Category: cat}, h.logger)
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, detail, h.logger)
}

// GetProductBySlug handles GET /api/products/slug/{slug}
func (h *ProductHandler) GetProductBySlug(w http.ResponseWriter, r *http.Request) {
	detail, err := h.catalog.GetBySlug(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, detail, h.logger)
}

// RelatedProducts handles GET /api/products/{id}/related?limit=
func (h *ProductHandler) RelatedProducts(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > service.MaxPageSize {
			WriteError(w, http.StatusBadRequest, "limit must be between 1 and 100", h.logger)
			return
		}
		limit = n
	}

	related, err := h.catalog.Related(r.Context(), chi.URLParam(r, "id"), limit)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, related, h.logger)
}

// VariantView handles GET /api/products/{id}/variants?color=&talla=
// {id} may also be a slug.
func (h *ProductHandler) VariantView(w http.ResponseWriter, r *http.Request) {
	sel := variant.Selection{
		Color: strings.TrimSpace(r.URL.Query().Get("color")),
		Talla: strings.TrimSpace(r.URL.Query().Get("talla")),
	}

	view, err := h.catalog.VariantView(r.Context(), chi.URLParam(r, "id"), sel)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, view, h.logger)
}

// SelectVariantRequest is one click on a variant axis from the current
// selection.
type SelectVariantRequest struct {
	Selection variant.Selection `json:"selection"`
	Event     variant.Event     `json:"event"`
}

// SelectVariant handles POST /api/products/{id}/variants/select
func (h *ProductHandler) SelectVariant(w http.ResponseWriter, r *http.Request) {
	var req SelectVariantRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	if err := validation.Struct(req); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	view, err := h.catalog.SelectVariant(r.Context(), chi.URLParam(r, "id"), req.Selection, req.Event)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, view, h.logger)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var in models.ProductInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	p, err := h.products.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, p, h.logger)
}

// UpdateProduct handles PATCH /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	var patch models.ProductPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	p, err := h.products.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, p, h.logger)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
