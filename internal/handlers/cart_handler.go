package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/middleware"
	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/service"
)

// CartHandler handles the session cart. Every route runs behind
// middleware.Session.
type CartHandler struct {
	service *service.CartService
	logger  *zap.Logger
}

// NewCartHandler creates a new cart handler
func NewCartHandler(service *service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{service: service, logger: logger}
}

// Get handles GET /api/cart
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Get(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// Add handles POST /api/cart/add
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req models.AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	summary, err := h.service.Add(r.Context(), middleware.SessionID(r.Context()), req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// Update handles PATCH /api/cart/{productId}/{sku}. A quantity of zero
// removes the line.
func (h *CartHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	summary, err := h.service.UpdateQuantity(r.Context(), middleware.SessionID(r.Context()),
		chi.URLParam(r, "productId"), chi.URLParam(r, "sku"), req.Quantity)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// Remove handles DELETE /api/cart/{productId}/{sku}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Remove(r.Context(), middleware.SessionID(r.Context()),
		chi.URLParam(r, "productId"), chi.URLParam(r, "sku"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}

// Clear handles DELETE /api/cart/clear
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.Clear(r.Context(), middleware.SessionID(r.Context()))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, summary, h.logger)
}
