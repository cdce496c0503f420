package service

import "github.com/Lixing-Zhang/storefront-api/internal/models"

const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// normalizePage applies paging defaults and caps the page size.
func normalizePage(q *models.ProductQuery) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}
}
