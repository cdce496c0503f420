// Package variant derives variant state from a product's variants and its
// category's attribute schema.
//
// Storefront side: a Resolver turns a (color, talla) selection into the set of
// offered values and at most one active variant. Admin side: a Form projects
// a category's attributes onto editable variant rows.
//
// Everything here is pure: callers hold the state and feed it back in.
package variant

import (
	"errors"
	"fmt"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// Attribute keys of the two selection axes.
const (
	ColorKey = "Color"
	TallaKey = "Talla"
)

var (
	ErrUnknownAxis     = errors.New("unknown selection axis")
	ErrValueNotOffered = errors.New("value is not offered for the current selection")
)

// Selection is the shopper's current choice. Empty means not selected.
type Selection struct {
	Color string `json:"color,omitempty"`
	Talla string `json:"talla,omitempty"`
}

// Event is a click on one value of one axis.
type Event struct {
	Axis  string `json:"axis" validate:"required,oneof=Color Talla"`
	Value string `json:"value" validate:"required"`
}

// SizeStatus is the availability of one talla under the current color.
type SizeStatus string

const (
	InStock     SizeStatus = "in_stock"
	OutOfStock  SizeStatus = "out_of_stock"
	Unavailable SizeStatus = "unavailable"
)

// SizeOption is one offered talla with its availability.
type SizeOption struct {
	Value  string     `json:"value"`
	Status SizeStatus `json:"status"`
}

// View is the state derived from a Selection.
type View struct {
	Selection     Selection       `json:"selection"`
	Colors        []string        `json:"colors"`
	Tallas        []SizeOption    `json:"tallas"`
	Active        *models.Variant `json:"activeVariant,omitempty"`
	Price         *float64        `json:"price,omitempty"`
	Images        []string        `json:"images"`
	SelectedImage string          `json:"selectedImage,omitempty"`
	CanAddToCart  bool            `json:"canAddToCart"`
}

// Resolver answers selection queries for one product's variants.
type Resolver struct {
	variants []models.Variant
	colors   []string
}

// NewResolver builds a resolver over the given variants. The slice is not
// copied and must not be mutated while the resolver is in use.
func NewResolver(variants []models.Variant) *Resolver {
	r := &Resolver{variants: variants}
	r.colors = distinct(variants, ColorKey, func(models.Variant) bool { return true })
	return r
}

// Colors returns the distinct color values across all variants, in
// first-seen order.
func (r *Resolver) Colors() []string {
	return append([]string(nil), r.colors...)
}

// Tallas returns the tallas offered under the selection's color context:
// variants of the selected color, or variants without a color when none is
// selected.
func (r *Resolver) Tallas(sel Selection) []string {
	return distinct(r.variants, TallaKey, func(v models.Variant) bool {
		return colorMatches(v, sel.Color)
	})
}

// SelectColor applies a click on a color. Clicking the selected color clears
// both axes. Picking a new color clears the talla, then auto-selects it when
// exactly one talla is offered for that color.
func (r *Resolver) SelectColor(sel Selection, color string) Selection {
	if sel.Color == color {
		return Selection{}
	}

	next := Selection{Color: color}
	if tallas := r.Tallas(next); len(tallas) == 1 {
		next = r.SelectTalla(next, tallas[0])
	}
	return next
}

// SelectTalla applies a click on a talla; clicking the selected one clears it.
func (r *Resolver) SelectTalla(sel Selection, talla string) Selection {
	if sel.Talla == talla {
		sel.Talla = ""
		return sel
	}
	sel.Talla = talla
	return sel
}

// Apply is the reducer: it validates that the clicked value is offered and
// returns the next selection. Toggling off an already selected value is
// always allowed.
func (r *Resolver) Apply(sel Selection, ev Event) (Selection, error) {
	switch ev.Axis {
	case ColorKey:
		if ev.Value != sel.Color && !contains(r.colors, ev.Value) {
			return sel, fmt.Errorf("%w: %s=%q", ErrValueNotOffered, ev.Axis, ev.Value)
		}
		return r.SelectColor(sel, ev.Value), nil
	case TallaKey:
		if ev.Value != sel.Talla && !contains(r.Tallas(sel), ev.Value) {
			return sel, fmt.Errorf("%w: %s=%q", ErrValueNotOffered, ev.Axis, ev.Value)
		}
		return r.SelectTalla(sel, ev.Value), nil
	default:
		return sel, fmt.Errorf("%w: %q", ErrUnknownAxis, ev.Axis)
	}
}

// MissingAxes reports, per variant index, the attribute keys that other
// variants of the same product set but that variant leaves out. A variant
// missing an axis its siblings use can never become the active one.
func MissingAxes(variants []models.Variant) map[int][]string {
	axes := []string{}
	seen := map[string]bool{}
	for _, v := range variants {
		for _, a := range v.Attributes {
			if !seen[a.Key] {
				seen[a.Key] = true
				axes = append(axes, a.Key)
			}
		}
	}

	missing := map[int][]string{}
	for i, v := range variants {
		for _, key := range axes {
			if _, ok := v.Attr(key); !ok {
				missing[i] = append(missing[i], key)
			}
		}
	}
	return missing
}

// Active resolves the selection to at most one variant.
//
// Without tallas in the current color context, the color match alone
// decides. Without any color on the product, the talla match alone decides.
// Otherwise both must match.
func (r *Resolver) Active(sel Selection) *models.Variant {
	noTallas := len(r.Tallas(sel)) == 0
	noColors := len(r.colors) == 0

	for i := range r.variants {
		v := &r.variants[i]
		colorMatch := colorMatches(*v, sel.Color)
		tallaMatch := false
		if sel.Talla != "" {
			t, ok := v.Attr(TallaKey)
			tallaMatch = ok && t == sel.Talla
		}

		var match bool
		switch {
		case noTallas:
			match = colorMatch
		case noColors:
			match = tallaMatch
		default:
			match = colorMatch && tallaMatch
		}
		if match {
			return v
		}
	}
	return nil
}

// SizeStatus reports the availability of talla under the selection's color
// context, using the same color predicate as Active. A combination that does
// not resolve to a variant is unavailable, never in stock.
func (r *Resolver) SizeStatus(sel Selection, talla string) SizeStatus {
	for _, v := range r.variants {
		if !colorMatches(v, sel.Color) {
			continue
		}
		if t, ok := v.Attr(TallaKey); !ok || t != talla {
			continue
		}
		if v.Stock <= 0 {
			return OutOfStock
		}
		return InStock
	}
	return Unavailable
}

// Images returns the images to display: the active variant's when it has
// any, otherwise the distinct union of every variant's images.
func (r *Resolver) Images(sel Selection) []string {
	if active := r.Active(sel); active != nil && len(active.Images) > 0 {
		return append([]string(nil), active.Images...)
	}

	seen := map[string]bool{}
	images := []string{}
	for _, v := range r.variants {
		for _, img := range v.Images {
			if !seen[img] {
				seen[img] = true
				images = append(images, img)
			}
		}
	}
	return images
}

// View derives the full display state for a selection.
func (r *Resolver) View(sel Selection) View {
	view := View{
		Selection: sel,
		Colors:    r.Colors(),
		Tallas:    []SizeOption{},
		Images:    r.Images(sel),
	}

	for _, t := range r.Tallas(sel) {
		view.Tallas = append(view.Tallas, SizeOption{Value: t, Status: r.SizeStatus(sel, t)})
	}

	if active := r.Active(sel); active != nil {
		v := *active
		price := v.EffectivePrice()
		view.Active = &v
		view.Price = &price
		view.CanAddToCart = v.Stock > 0
		if len(v.Images) > 0 {
			view.SelectedImage = v.Images[0]
		}
	}
	if view.SelectedImage == "" && len(r.variants) > 0 && len(r.variants[0].Images) > 0 {
		view.SelectedImage = r.variants[0].Images[0]
	}

	return view
}

func colorMatches(v models.Variant, selected string) bool {
	c, ok := v.Attr(ColorKey)
	if selected == "" {
		return !ok
	}
	return ok && c == selected
}

func distinct(variants []models.Variant, key string, keep func(models.Variant) bool) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, v := range variants {
		if !keep(v) {
			continue
		}
		value, ok := v.Attr(key)
		if !ok || value == "" || seen[value] {
			continue
		}
		seen[value] = true
		out = append(out, value)
	}
	return out
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
