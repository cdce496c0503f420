package repository

import (
	"sort"
	"strings"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// matchProduct reports whether p satisfies every filter of q.
func matchProduct(p *models.Product, q models.ProductQuery) bool {
	if q.ActiveOnly && !p.IsActive {
		return false
	}
	if len(q.CategoryIDs) > 0 && !containsString(q.CategoryIDs, p.CategoryID) {
		return false
	}
	if q.BrandID != "" && (p.BrandID == nil || *p.BrandID != q.BrandID) {
		return false
	}
	if q.MinPrice != nil && p.MinPrice < *q.MinPrice {
		return false
	}
	if q.MaxPrice != nil && p.MinPrice > *q.MaxPrice {
		return false
	}
	if len(q.Tags) > 0 && !anyTag(p.Tags, q.Tags) {
		return false
	}

	keys, groups := q.AttributeGroups()
	for _, key := range keys {
		if !hasAttribute(p, key, groups[key]) {
			return false
		}
	}

	if search := strings.ToLower(strings.TrimSpace(q.Search)); search != "" {
		haystack := strings.ToLower(p.Name + "\n" + p.Slug + "\n" + p.ShortDescription)
		if !strings.Contains(haystack, search) {
			return false
		}
	}
	return true
}

func hasAttribute(p *models.Product, key string, values []string) bool {
	for _, a := range p.FilterAttributes {
		if a.Key == key && containsString(values, a.Value) {
			return true
		}
	}
	for _, v := range p.Variants {
		if value, ok := v.Attr(key); ok && containsString(values, value) {
			return true
		}
	}
	return false
}

func anyTag(have, want []string) bool {
	for _, t := range want {
		if containsString(have, t) {
			return true
		}
	}
	return false
}

func containsString(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}

// sortProducts orders products by q's sort field, newest first by default.
func sortProducts(products []models.Product, q models.ProductQuery) {
	asc := strings.EqualFold(q.SortOrder, "asc")

	less := func(a, b *models.Product) bool {
		switch q.SortBy {
		case models.SortByPrice:
			return a.MinPrice < b.MinPrice
		case models.SortByName:
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(products, func(i, j int) bool {
		if asc {
			return less(&products[i], &products[j])
		}
		return less(&products[j], &products[i])
	})
}

// paginate slices out q's page.
func paginate[T any](items []T, q models.ProductQuery) []T {
	if q.Limit <= 0 {
		return items
	}
	start := q.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + q.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
