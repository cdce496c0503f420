package models

import "time"

// Brand is a product manufacturer or label.
type Brand struct {
	ID          string    `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description,omitempty" db:"description"`
	LogoURL     string    `json:"logoUrl,omitempty" db:"logo_url"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// BrandInput is the payload accepted by the admin brand endpoints.
type BrandInput struct {
	Name        string `json:"name" validate:"required,max=120"`
	Slug        string `json:"slug,omitempty" validate:"omitempty,max=120"`
	Description string `json:"description,omitempty"`
	LogoURL     string `json:"logoUrl,omitempty" validate:"omitempty,url"`
	IsActive    *bool  `json:"isActive,omitempty"`
}
