package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/service"
	"github.com/Lixing-Zhang/storefront-api/internal/variant"
)

// ProductFormHandler serves the admin product-authoring form: category
// projection, re-projection and submission.
type ProductFormHandler struct {
	products *service.ProductService
	uploads  *UploadHandler
	logger   *zap.Logger
}

func NewProductFormHandler(products *service.ProductService, uploads *UploadHandler, logger *zap.Logger) *ProductFormHandler {
	return &ProductFormHandler{products: products, uploads: uploads, logger: logger}
}

// OpenFormRequest opens the edit form of ProductID, or a blank form for
// Category when ProductID is empty.
type OpenFormRequest struct {
	ProductID string `json:"productId"`
	Category  string `json:"category"`
}

type ChangeCategoryRequest struct {
	Form     variant.Form `json:"form"`
	Category string       `json:"category"`
}

// SubmitFormRequest is the JSON submission. Uploads maps a variant row
// index to image URLs already returned by the upload endpoint.
type SubmitFormRequest struct {
	Form    variant.Form     `json:"form"`
	Uploads map[int][]string `json:"uploads"`
}

// Open handles POST /api/admin/product-form
func (h *ProductFormHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req OpenFormRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	var (
		form *variant.Form
		err  error
	)
	if req.ProductID != "" {
		form, err = h.products.EditForm(r.Context(), req.ProductID)
	} else {
		form, err = h.products.NewForm(r.Context(), req.Category)
	}
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, form, h.logger)
}

// ChangeCategory handles POST /api/admin/product-form/category
func (h *ProductFormHandler) ChangeCategory(w http.ResponseWriter, r *http.Request) {
	var req ChangeCategoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}

	form, err := h.products.ChangeFormCategory(r.Context(), &req.Form, req.Category)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusOK, form, h.logger)
}

// Submit handles POST /api/admin/product-form/submit. It accepts either a
// JSON SubmitFormRequest or a multipart body with the form as JSON in field
// "form", the per-row image counts as a JSON array in "uploadCounts" and
// the images themselves in "files", in row order.
func (h *ProductFormHandler) Submit(w http.ResponseWriter, r *http.Request) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		form    variant.Form
		uploads map[int][]string
	)
	if mediaType == "multipart/form-data" {
		var ok bool
		if form, uploads, ok = h.readMultipart(w, r); !ok {
			return
		}
	} else {
		var req SubmitFormRequest
		if err := decodeJSON(w, r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
			return
		}
		form, uploads = req.Form, req.Uploads
	}

	status := http.StatusOK
	if form.ProductID == "" {
		status = http.StatusCreated
	}

	p, err := h.products.SubmitForm(r.Context(), &form, uploads)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, status, p, h.logger)
}

func (h *ProductFormHandler) readMultipart(w http.ResponseWriter, r *http.Request) (variant.Form, map[int][]string, bool) {
	var form variant.Form
	if err := h.uploads.parse(w, r); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return form, nil, false
	}
	defer r.MultipartForm.RemoveAll()

	if err := json.Unmarshal([]byte(r.FormValue("form")), &form); err != nil {
		WriteError(w, http.StatusBadRequest, "field form must be a JSON product form", h.logger)
		return form, nil, false
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		return form, nil, true
	}

	var counts []int
	if err := json.Unmarshal([]byte(r.FormValue("uploadCounts")), &counts); err != nil {
		WriteError(w, http.StatusBadRequest, "field uploadCounts must be a JSON array of integers", h.logger)
		return form, nil, false
	}
	total := 0
	for _, n := range counts {
		if n < 0 {
			total = -1
			break
		}
		total += n
	}
	if total != len(files) {
		WriteError(w, http.StatusBadRequest, "uploadCounts does not match the number of files", h.logger)
		return form, nil, false
	}

	urls, err := h.uploads.saveAll(r.Context(), files)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return form, nil, false
	}
	return form, variant.DistributeUploads(counts, urls), true
}
