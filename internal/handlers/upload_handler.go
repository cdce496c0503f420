package handlers

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"go.uber.org/zap"
)

// ImageStore persists one uploaded image and returns its public URL.
type ImageStore interface {
	Save(ctx context.Context, r io.Reader) (string, error)
}

// UploadHandler stores product images sent as multipart field "files".
type UploadHandler struct {
	store    ImageStore
	maxFiles int
	maxBytes int64
	logger   *zap.Logger
}

func NewUploadHandler(store ImageStore, maxFiles int, maxBytes int64, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{store: store, maxFiles: maxFiles, maxBytes: maxBytes, logger: logger}
}

// UploadResponse lists the stored URLs in upload order.
type UploadResponse struct {
	URLs []string `json:"urls"`
}

// UploadImages handles POST /api/products/upload-images
func (h *UploadHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	if err := h.parse(w, r); err != nil {
		WriteError(w, http.StatusBadRequest, err.Error(), h.logger)
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		WriteError(w, http.StatusBadRequest, "no files uploaded", h.logger)
		return
	}

	urls, err := h.saveAll(r.Context(), files)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}
	WriteJSON(w, http.StatusCreated, UploadResponse{URLs: urls}, h.logger)
}

// parse reads a multipart body bounded by the per-file limit times the
// file count.
func (h *UploadHandler) parse(w http.ResponseWriter, r *http.Request) error {
	limit := h.maxBytes*int64(h.maxFiles) + maxJSONBody
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return fmt.Errorf("invalid multipart body: %w", err)
	}
	return nil
}

// saveAll stores files in order. Files stored before a failure are kept;
// their URLs are simply not returned.
func (h *UploadHandler) saveAll(ctx context.Context, files []*multipart.FileHeader) ([]string, error) {
	if len(files) > h.maxFiles {
		return nil, fmt.Errorf("%w: at most %d files per request", errTooManyFiles, h.maxFiles)
	}

	urls := make([]string, 0, len(files))
	for _, fh := range files {
		url, err := h.saveOne(ctx, fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		urls = append(urls, url)
	}
	h.logger.Info("images uploaded", zap.Int("count", len(urls)))
	return urls, nil
}

func (h *UploadHandler) saveOne(ctx context.Context, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.store.Save(ctx, f)
}
