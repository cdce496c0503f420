package models

import (
	"sort"
	"strings"
	"time"
)

// Attribute is a key/value pair attached to a product or a variant.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Variant is one purchasable SKU of a product.
type Variant struct {
	SKU        string      `json:"sku"`
	Price      float64     `json:"price"`
	SalePrice  *float64    `json:"salePrice,omitempty"`
	Stock      int         `json:"stock"`
	Attributes []Attribute `json:"attributes"`
	Images     []string    `json:"images"`
}

// Attr returns the value of the attribute with the given key.
func (v Variant) Attr(key string) (string, bool) {
	for _, a := range v.Attributes {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// EffectivePrice is the sale price when set, the list price otherwise.
func (v Variant) EffectivePrice() float64 {
	if v.SalePrice != nil {
		return *v.SalePrice
	}
	return v.Price
}

// CombinationKey identifies a variant by its attribute values, independent
// of attribute order. Empty values are ignored.
func (v Variant) CombinationKey() string {
	parts := make([]string, 0, len(v.Attributes))
	for _, a := range v.Attributes {
		if strings.TrimSpace(a.Value) == "" {
			continue
		}
		parts = append(parts, a.Key+"="+a.Value)
	}
	sort.Strings(parts)
	return strings.Join(parts, ";")
}

// Product is a catalog entry. Its variant shape is derived from its
// category's attribute list.
type Product struct {
	ID               string      `json:"id"`
	Name             string      `json:"name"`
	Slug             string      `json:"slug"`
	ShortDescription string      `json:"shortDescription,omitempty"`
	LongDescription  string      `json:"longDescription,omitempty"`
	CategoryID       string      `json:"category"`
	BrandID          *string     `json:"brand,omitempty"`
	FilterAttributes []Attribute `json:"filterAttributes"`
	Variants         []Variant   `json:"variants"`
	Tags             []string    `json:"tags"`
	IsActive         bool        `json:"isActive"`
	MinPrice         float64     `json:"minPrice"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// Variant returns the variant with the given SKU.
func (p *Product) Variant(sku string) (*Variant, bool) {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i], true
		}
	}
	return nil, false
}

// ComputeMinPrice returns the lowest effective price across variants,
// or zero when the product has none.
func (p *Product) ComputeMinPrice() float64 {
	minPrice := 0.0
	for i, v := range p.Variants {
		price := v.EffectivePrice()
		if i == 0 || price < minPrice {
			minPrice = price
		}
	}
	return minPrice
}

// ProductDetail is a product enriched with its category and brand.
type ProductDetail struct {
	Product
	CategoryRef *Category `json:"categoryRef,omitempty"`
	BrandRef    *Brand    `json:"brandRef,omitempty"`
}

// ProductInput is the payload accepted by the admin product endpoints.
type ProductInput struct {
	Name             string      `json:"name" validate:"required,max=200"`
	Slug             string      `json:"slug,omitempty" validate:"omitempty,max=200"`
	ShortDescription string      `json:"shortDescription,omitempty"`
	LongDescription  string      `json:"longDescription,omitempty"`
	CategoryID       string      `json:"category" validate:"required"`
	BrandID          string      `json:"brand,omitempty"`
	FilterAttributes []Attribute `json:"filterAttributes"`
	Variants         []Variant   `json:"variants" validate:"required,min=1,dive"`
	Tags             []string    `json:"tags"`
	IsActive         *bool       `json:"isActive,omitempty"`
}

// ProductPatch is a partial update; nil fields are left untouched.
type ProductPatch struct {
	Name             *string      `json:"name,omitempty" validate:"omitempty,min=1,max=200"`
	Slug             *string      `json:"slug,omitempty"`
	ShortDescription *string      `json:"shortDescription,omitempty"`
	LongDescription  *string      `json:"longDescription,omitempty"`
	CategoryID       *string      `json:"category,omitempty"`
	BrandID          *string      `json:"brand,omitempty"`
	FilterAttributes *[]Attribute `json:"filterAttributes,omitempty"`
	Variants         *[]Variant   `json:"variants,omitempty"`
	Tags             *[]string    `json:"tags,omitempty"`
	IsActive         *bool        `json:"isActive,omitempty"`
}

// Sort fields accepted by product queries.
const (
	SortByCreatedAt = "createdAt"
	SortByPrice     = "price"
	SortByName      = "name"
)

// ProductQuery describes a filtered, sorted, paginated product listing.
type ProductQuery struct {
	ActiveOnly  bool
	CategoryIDs []string
	BrandID     string
	MinPrice    *float64
	MaxPrice    *float64
	Tags        []string
	// Attributes are ORed within a key and ANDed across keys.
	Attributes []Attribute
	Search     string
	SortBy     string
	SortOrder  string
	Page       int
	Limit      int
}

// AttributeGroups groups the query's attribute filters by key, preserving
// first-seen key order.
func (q ProductQuery) AttributeGroups() ([]string, map[string][]string) {
	keys := []string{}
	groups := map[string][]string{}
	for _, a := range q.Attributes {
		if _, ok := groups[a.Key]; !ok {
			keys = append(keys, a.Key)
		}
		groups[a.Key] = append(groups[a.Key], a.Value)
	}
	return keys, groups
}

// Offset returns the number of rows to skip for the query's page.
func (q ProductQuery) Offset() int {
	if q.Page <= 1 {
		return 0
	}
	return (q.Page - 1) * q.Limit
}
