package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Lixing-Zhang/storefront-api/internal/cart"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/service"
	"github.com/Lixing-Zhang/storefront-api/internal/upload"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
	"github.com/Lixing-Zhang/storefront-api/internal/variant"
)

var errTooManyFiles = errors.New("too many files")

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data any, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// WriteError writes an error response in JSON format
func WriteError(w http.ResponseWriter, status int, message string, logger *zap.Logger) {
	WriteJSON(w, status, ErrorResponse{Error: message}, logger)
}

// statusFor maps domain errors to HTTP status codes. Unknown errors are 500.
func statusFor(err error) int {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, service.ErrCategoryInUse),
		errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, service.ErrProductUnavailable):
		return http.StatusConflict
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyCart),
		errors.Is(err, service.ErrVariantNotFound),
		errors.Is(err, service.ErrCategoryCycle),
		errors.Is(err, variant.ErrUnknownAxis),
		errors.Is(err, variant.ErrValueNotOffered),
		errors.Is(err, cart.ErrNoSession):
		return http.StatusBadRequest
	case errors.Is(err, upload.ErrUnsupportedType):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, upload.ErrTooLarge), errors.Is(err, errTooManyFiles):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError translates err into a response. Validation errors carry
// their per-field messages; internal errors are logged and hidden.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, logger *zap.Logger) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		WriteError(w, status, "Internal server error", logger)
		return
	}

	resp := ErrorResponse{Error: err.Error()}
	var verr *validation.Error
	if errors.As(err, &verr) {
		resp.Error = "validation failed"
		resp.Fields = verr.Fields
	}
	if status == http.StatusNotFound {
		resp.Error = "not found"
	}
	WriteJSON(w, status, resp, logger)
}
