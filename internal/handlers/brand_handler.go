package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/service"
)

type BrandHandler struct {
	service *service.BrandService
	logger  *zap.Logger
}

func NewBrandHandler(service *service.BrandService, logger *zap.Logger) *BrandHandler {
	return &BrandHandler{service: service, logger: logger}
}

func (h *BrandHandler) List(w http.ResponseWriter, r *http.Request) {
	brands, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, brands, h.logger)
}

func (h *BrandHandler) Get(w http.ResponseWriter, r *http.Request) {
	b, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, b, h.logger)
}

func (h *BrandHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.BrandInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	b, err := h.service.Create(r.Context(), in)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, b, h.logger)
}

func (h *BrandHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in models.BrandInput
	if err := decodeJSON(w, r, &in); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	b, err := h.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, b, h.logger)
}

func (h *BrandHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
