package models

// Page is a paginated response.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// NewPage builds a page, computing the page count from total and limit.
func NewPage[T any](data []T, total, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	totalPages := 0
	if total > 0 && limit > 0 {
		totalPages = (total + limit - 1) / limit
	}
	if page < 1 {
		page = 1
	}
	return Page[T]{Data: data, Total: total, Page: page, TotalPages: totalPages}
}
