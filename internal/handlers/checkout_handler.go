package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/middleware"
	"github.com/Lixing-Zhang/storefront-api/internal/service"
)

// CheckoutHandler turns session carts into orders.
type CheckoutHandler struct {
	service *service.CheckoutService
	logger  *zap.Logger
}

// NewCheckoutHandler creates a new checkout handler
func NewCheckoutHandler(service *service.CheckoutService, logger *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{service: service, logger: logger}
}

// Checkout handles POST /api/checkout. A signed-in caller's user id is
// recorded on the order.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.service.Checkout(ctx, middleware.SessionID(ctx), middleware.UserID(ctx))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, order, h.logger)
}

// GetOrder handles GET /api/orders/{id}
func (h *CheckoutHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	order, err := h.service.Order(ctx, chi.URLParam(r, "id"), middleware.SessionID(ctx), middleware.UserID(ctx))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, order, h.logger)
}
