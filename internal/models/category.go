package models

import "time"

// CategoryAttribute is a named axis of variation scoped to a category.
type CategoryAttribute struct {
	Name      string   `json:"name" validate:"required"`
	Values    []string `json:"values"`
	IsVariant bool     `json:"isVariant"`
	IsFilter  bool     `json:"isFilter"`
}

// Allows reports whether value belongs to the attribute's closed value set.
// An attribute without enumerated values accepts anything.
func (a CategoryAttribute) Allows(value string) bool {
	if len(a.Values) == 0 {
		return true
	}
	for _, v := range a.Values {
		if v == value {
			return true
		}
	}
	return false
}

// Category is a node of the catalog tree. Its attribute list is the schema
// products in it are authored against.
type Category struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Slug           string              `json:"slug"`
	Description    string              `json:"description,omitempty"`
	ParentCategory *string             `json:"parentCategory"`
	Ancestors      []string            `json:"ancestors"`
	Path           string              `json:"path"`
	Attributes     []CategoryAttribute `json:"attributes"`
	CreatedAt      time.Time           `json:"createdAt"`
	UpdatedAt      time.Time           `json:"updatedAt"`
	Children       []*Category         `json:"children,omitempty"`
}

// Attribute returns the category attribute with the given name.
func (c *Category) Attribute(name string) (CategoryAttribute, bool) {
	for _, a := range c.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return CategoryAttribute{}, false
}

// CategoryInput is the payload accepted by the admin category endpoints.
type CategoryInput struct {
	Name           string              `json:"name" validate:"required,max=120"`
	Slug           string              `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description    string              `json:"description,omitempty"`
	ParentCategory *string             `json:"parentCategory"`
	Attributes     []CategoryAttribute `json:"attributes" validate:"dive"`
}
