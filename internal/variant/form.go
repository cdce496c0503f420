package variant

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

// storedImage matches absolute http(s) URLs and server-relative paths such as
// those returned by the upload endpoint. Local previews (blob:, data:) never match.
var storedImage = regexp.MustCompile(`^(https?://|/[^/])`)

// AttributeControl is one editable attribute of a variant row or of the
// product's filter attributes. The key is fixed by the category; only the
// value is editable, and only to one of PossibleValues when that list is set.
type AttributeControl struct {
	Key            string   `json:"key"`
	Value          string   `json:"value"`
	PossibleValues []string `json:"possibleValues"`
}

// VariantRow is the authoring shape of one SKU.
type VariantRow struct {
	SKU        string             `json:"sku" validate:"required"`
	Price      float64            `json:"price" validate:"gte=0"`
	SalePrice  *float64           `json:"salePrice,omitempty" validate:"omitempty,gte=0"`
	Stock      int                `json:"stock" validate:"gte=0"`
	Images     []string           `json:"images"`
	Attributes []AttributeControl `json:"attributes"`
}

// Form is the admin product-authoring state.
type Form struct {
	ProductID        string             `json:"productId,omitempty"`
	Name             string             `json:"name" validate:"required"`
	ShortDescription string             `json:"shortDescription,omitempty"`
	LongDescription  string             `json:"longDescription,omitempty"`
	CategoryID       string             `json:"category" validate:"required"`
	BrandID          string             `json:"brand,omitempty"`
	IsActive         bool               `json:"isActive"`
	Tags             []string           `json:"tags"`
	FilterAttributes []AttributeControl `json:"filterAttributes"`
	Variants         []VariantRow       `json:"variants" validate:"min=1,dive"`

	// VariantAxes shapes rows added with AddVariant.
	VariantAxes []models.CategoryAttribute `json:"variantAxes"`
}

// Partition splits category attributes into variant axes and filter axes.
// An attribute flagged both ways lands in both.
func Partition(attrs []models.CategoryAttribute) (variantAxes, filterAxes []models.CategoryAttribute) {
	for _, a := range attrs {
		if a.IsVariant {
			variantAxes = append(variantAxes, a)
		}
		if a.IsFilter {
			filterAxes = append(filterAxes, a)
		}
	}
	return variantAxes, filterAxes
}

// NewForm returns a blank form for category with one empty variant row.
// category may be nil when none is chosen yet.
func NewForm(category *models.Category) *Form {
	f := &Form{IsActive: true, Tags: []string{}}
	f.ChangeCategory(category)
	f.AddVariant()
	return f
}

// FormFromProduct returns the edit form of an existing product. Attribute
// values survive only where they are valid under category.
func FormFromProduct(p *models.Product, category *models.Category) *Form {
	f := &Form{
		ProductID:        p.ID,
		Name:             p.Name,
		ShortDescription: p.ShortDescription,
		LongDescription:  p.LongDescription,
		CategoryID:       p.CategoryID,
		IsActive:         p.IsActive,
		Tags:             append([]string{}, p.Tags...),
	}
	if p.BrandID != nil {
		f.BrandID = *p.BrandID
	}

	var variantAxes, filterAxes []models.CategoryAttribute
	if category != nil {
		variantAxes, filterAxes = Partition(category.Attributes)
	}

	f.VariantAxes = variantAxes
	f.FilterAttributes = project(controlsOf(p.FilterAttributes), filterAxes)
	f.Variants = make([]VariantRow, 0, len(p.Variants))
	for _, v := range p.Variants {
		row := VariantRow{
			SKU:        v.SKU,
			Price:      v.Price,
			SalePrice:  v.SalePrice,
			Stock:      v.Stock,
			Images:     append([]string{}, v.Images...),
			Attributes: project(controlsOf(v.Attributes), variantAxes),
		}
		f.Variants = append(f.Variants, row)
	}
	return f
}

// ChangeCategory re-derives every row's attribute controls and the filter
// controls from category. Values whose key is not an axis of the new
// category, or that fall outside its allowed values, are discarded.
func (f *Form) ChangeCategory(category *models.Category) {
	var variantAxes, filterAxes []models.CategoryAttribute
	f.CategoryID = ""
	if category != nil {
		f.CategoryID = category.ID
		variantAxes, filterAxes = Partition(category.Attributes)
	}

	f.VariantAxes = variantAxes
	for i := range f.Variants {
		f.Variants[i].Attributes = project(f.Variants[i].Attributes, variantAxes)
	}
	f.FilterAttributes = project(f.FilterAttributes, filterAxes)
}

// AddVariant appends an empty row with one control per variant axis.
func (f *Form) AddVariant() {
	f.Variants = append(f.Variants, VariantRow{
		Images:     []string{},
		Attributes: project(nil, f.VariantAxes),
	})
}

// RemoveVariant drops the row at index i.
func (f *Form) RemoveVariant(i int) error {
	if i < 0 || i >= len(f.Variants) {
		return fmt.Errorf("variant index %d out of range", i)
	}
	f.Variants = append(f.Variants[:i], f.Variants[i+1:]...)
	return nil
}

// Validate checks the form and returns a *validation.Error keyed by field
// path, or nil.
func (f *Form) Validate() error {
	verr := validation.New()
	if err := verr.Merge(validation.Struct(f)); err != nil {
		return err
	}

	checkControls := func(prefix string, controls []AttributeControl) {
		for _, c := range controls {
			value := strings.TrimSpace(c.Value)
			if value == "" || len(c.PossibleValues) == 0 {
				continue
			}
			if !contains(c.PossibleValues, value) {
				verr.Add(fmt.Sprintf("%s[%s]", prefix, c.Key), fmt.Sprintf("%q is not an allowed value", value))
			}
		}
	}

	checkControls("filterAttributes", f.FilterAttributes)

	rows := make([]models.Variant, len(f.Variants))
	for i, row := range f.Variants {
		rows[i] = models.Variant{Attributes: compact(row.Attributes)}
	}
	for i, keys := range MissingAxes(rows) {
		for _, key := range keys {
			verr.Add(fmt.Sprintf("variants[%d].attributes[%s]", i, key), "is required when other variants set it")
		}
	}

	skus := map[string]int{}
	combos := map[string]int{}
	for i, row := range f.Variants {
		checkControls(fmt.Sprintf("variants[%d].attributes", i), row.Attributes)

		if sku := strings.TrimSpace(row.SKU); sku != "" {
			if first, dup := skus[sku]; dup {
				verr.Add(fmt.Sprintf("variants[%d].sku", i), fmt.Sprintf("duplicates variants[%d]", first))
			} else {
				skus[sku] = i
			}
		}

		key := rows[i].CombinationKey()
		if first, dup := combos[key]; dup {
			verr.Add(fmt.Sprintf("variants[%d].attributes", i), fmt.Sprintf("same attribute combination as variants[%d]", first))
		} else {
			combos[key] = i
		}
	}

	return verr.OrNil()
}

// Payload serializes the form into the product write payload. uploads maps a
// row index to image URLs uploaded for it; they are appended after the row's
// existing stored images. Blank attribute values are dropped.
func (f *Form) Payload(uploads map[int][]string) models.ProductInput {
	active := f.IsActive
	input := models.ProductInput{
		Name:             strings.TrimSpace(f.Name),
		ShortDescription: f.ShortDescription,
		LongDescription:  f.LongDescription,
		CategoryID:       f.CategoryID,
		BrandID:          f.BrandID,
		FilterAttributes: compact(f.FilterAttributes),
		Tags:             append([]string{}, f.Tags...),
		IsActive:         &active,
		Variants:         make([]models.Variant, 0, len(f.Variants)),
	}

	for i, row := range f.Variants {
		images := []string{}
		for _, img := range row.Images {
			if storedImage.MatchString(img) {
				images = append(images, img)
			}
		}
		images = append(images, uploads[i]...)

		input.Variants = append(input.Variants, models.Variant{
			SKU:        strings.TrimSpace(row.SKU),
			Price:      row.Price,
			SalePrice:  row.SalePrice,
			Stock:      row.Stock,
			Attributes: compact(row.Attributes),
			Images:     images,
		})
	}
	return input
}

// DistributeUploads splits a flat list of uploaded URLs across rows, in row
// order, taking counts[i] URLs for row i.
func DistributeUploads(counts []int, urls []string) map[int][]string {
	out := map[int][]string{}
	idx := 0
	for row, n := range counts {
		if n <= 0 {
			continue
		}
		end := idx + n
		if end > len(urls) {
			end = len(urls)
		}
		if idx < end {
			out[row] = append([]string{}, urls[idx:end]...)
		}
		idx = end
	}
	return out
}

// project builds one control per axis, carrying over prior values that are
// still valid for that axis.
func project(prior []AttributeControl, axes []models.CategoryAttribute) []AttributeControl {
	values := make(map[string]string, len(prior))
	for _, c := range prior {
		values[c.Key] = c.Value
	}

	out := make([]AttributeControl, 0, len(axes))
	for _, axis := range axes {
		value := strings.TrimSpace(values[axis.Name])
		if value != "" && !axis.Allows(value) {
			value = ""
		}
		out = append(out, AttributeControl{
			Key:            axis.Name,
			Value:          value,
			PossibleValues: append([]string{}, axis.Values...),
		})
	}
	return out
}

func controlsOf(attrs []models.Attribute) []AttributeControl {
	out := make([]AttributeControl, 0, len(attrs))
	for _, a := range attrs {
		out = append(out, AttributeControl{Key: a.Key, Value: a.Value})
	}
	return out
}

func compact(controls []AttributeControl) []models.Attribute {
	out := []models.Attribute{}
	for _, c := range controls {
		value := strings.TrimSpace(c.Value)
		if value == "" {
			continue
		}
		out = append(out, models.Attribute{Key: c.Key, Value: value})
	}
	return out
}
