package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/repository"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

func TestCategoryService_CreatePlacesUnderParent(t *testing.T) {
	e := newEnv(t)
	ropa := e.category(t, "Ropa", nil, nil)
	tees := e.category(t, "Camisetas", ropa, apparelAttributes())

	assert.Equal(t, "ropa", ropa.Slug)
	assert.Equal(t, "Ropa", ropa.Path)
	assert.Empty(t, ropa.Ancestors)

	require.NotNil(t, tees.ParentCategory)
	assert.Equal(t, ropa.ID, *tees.ParentCategory)
	assert.Equal(t, []string{ropa.ID}, tees.Ancestors)
	assert.Equal(t, "Ropa > Camisetas", tees.Path)
	assert.Len(t, tees.Attributes, 3)
}

func TestCategoryService_CreateValidation(t *testing.T) {
	tests := []struct {
		name      string
		in        models.CategoryInput
		wantField string
	}{
		{"missing name", models.CategoryInput{Name: "  "}, "name"},
		{"unknown parent", models.CategoryInput{Name: "Zapatos", ParentCategory: ptr("nope")}, "parentCategory"},
		{"duplicate attribute", models.CategoryInput{Name: "Zapatos", Attributes: []models.CategoryAttribute{
			{Name: "Color"}, {Name: "color "},
		}}, "attributes[1].name"},
		{"blank attribute", models.CategoryInput{Name: "Zapatos", Attributes: []models.CategoryAttribute{
			{Name: " "},
		}}, "attributes[0].name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			_, err := e.categorySvc.Create(context.Background(), tt.in)

			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}

func TestCategoryService_NormalizesAttributeValues(t *testing.T) {
	e := newEnv(t)
	c := e.category(t, "Zapatos", nil, []models.CategoryAttribute{
		{Name: " Talla ", Values: []string{"40", " 41", "40", ""}, IsVariant: true},
	})

	require.Len(t, c.Attributes, 1)
	assert.Equal(t, "Talla", c.Attributes[0].Name)
	assert.Equal(t, []string{"40", "41"}, c.Attributes[0].Values)
}

func TestCategoryService_UniqueSlugs(t *testing.T) {
	e := newEnv(t)
	hombre := e.category(t, "Hombre", nil, nil)
	mujer := e.category(t, "Mujer", nil, nil)

	a := e.category(t, "Camisetas", hombre, nil)
	b := e.category(t, "Camisetas", mujer, nil)

	assert.Equal(t, "camisetas", a.Slug)
	assert.Equal(t, "camisetas-2", b.Slug)
}

func TestCategoryService_UpdateRewritesSubtree(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ropa := e.category(t, "Ropa", nil, nil)
	tees := e.category(t, "Camisetas", ropa, nil)
	manga := e.category(t, "Manga Larga", tees, nil)

	_, err := e.categorySvc.Update(ctx, ropa.ID, models.CategoryInput{Name: "Moda"})
	require.NoError(t, err)

	got, err := e.categorySvc.Get(ctx, manga.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moda > Camisetas > Manga Larga", got.Path)
	assert.Equal(t, []string{ropa.ID, tees.ID}, got.Ancestors)

	accesorios := e.category(t, "Accesorios", nil, nil)
	_, err = e.categorySvc.Update(ctx, tees.ID, models.CategoryInput{Name: "Camisetas", ParentCategory: &accesorios.ID})
	require.NoError(t, err)

	got, err = e.categorySvc.Get(ctx, manga.ID)
	require.NoError(t, err)
	assert.Equal(t, "Accesorios > Camisetas > Manga Larga", got.Path)
	assert.Equal(t, []string{accesorios.ID, tees.ID}, got.Ancestors)
}

func TestCategoryService_MoveBetweenSameNamedParents(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	modaA := e.category(t, "Moda", nil, nil)
	modaB := e.category(t, "Moda", nil, nil)
	require.Equal(t, "moda-2", modaB.Slug)
	tees := e.category(t, "Camisetas", modaA, nil)
	manga := e.category(t, "Manga Larga", tees, nil)

	_, err := e.categorySvc.Update(ctx, tees.ID, models.CategoryInput{Name: "Camisetas", ParentCategory: &modaB.ID})
	require.NoError(t, err)

	got, err := e.categorySvc.Get(ctx, manga.ID)
	require.NoError(t, err)
	assert.Equal(t, "Moda > Camisetas > Manga Larga", got.Path)
	assert.Equal(t, []string{modaB.ID, tees.ID}, got.Ancestors)

	under, err := e.categorySvc.Descendants(ctx, "moda-2")
	require.NoError(t, err)
	assert.Len(t, under, 3)

	under, err = e.categorySvc.Descendants(ctx, "moda")
	require.NoError(t, err)
	assert.Len(t, under, 1)
}

type failingCategories struct {
	repository.CategoryRepository
	err error
}

func (f failingCategories) GetByID(ctx context.Context, id string) (*models.Category, error) {
	return nil, f.err
}

func TestCategoryService_ParentLookupFailure(t *testing.T) {
	e := newEnv(t)
	boom := errors.New("connection refused")
	svc := NewCategoryService(failingCategories{CategoryRepository: e.categories, err: boom}, e.products, zapNop())

	_, err := svc.Create(context.Background(), models.CategoryInput{Name: "Camisetas", ParentCategory: ptr("ropa")})

	assert.ErrorIs(t, err, boom)
	var verr *validation.Error
	assert.False(t, errors.As(err, &verr), "storage failures are not validation errors")
}

func TestCategoryService_UpdateRejectsCycles(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ropa := e.category(t, "Ropa", nil, nil)
	tees := e.category(t, "Camisetas", ropa, nil)

	_, err := e.categorySvc.Update(ctx, ropa.ID, models.CategoryInput{Name: "Ropa", ParentCategory: &tees.ID})
	assert.ErrorIs(t, err, ErrCategoryCycle)

	_, err = e.categorySvc.Update(ctx, ropa.ID, models.CategoryInput{Name: "Ropa", ParentCategory: &ropa.ID})
	assert.ErrorIs(t, err, ErrCategoryCycle)
}

func TestCategoryService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	ropa := e.category(t, "Ropa", nil, nil)
	tees := e.category(t, "Camisetas", ropa, apparelAttributes())
	empty := e.category(t, "Vacía", nil, nil)
	e.product(t, teeInput(tees.ID))

	assert.ErrorIs(t, e.categorySvc.Delete(ctx, ropa.ID), ErrCategoryInUse, "has children")
	assert.ErrorIs(t, e.categorySvc.Delete(ctx, tees.ID), ErrCategoryInUse, "has products")
	assert.ErrorIs(t, e.categorySvc.Delete(ctx, "missing"), repository.ErrNotFound)

	require.NoError(t, e.categorySvc.Delete(ctx, empty.ID))
	_, err := e.categorySvc.Get(ctx, empty.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCategoryService_Tree(t *testing.T) {
	e := newEnv(t)
	ropa := e.category(t, "Ropa", nil, nil)
	e.category(t, "Pantalones", ropa, nil)
	e.category(t, "Camisetas", ropa, nil)
	e.category(t, "Accesorios", nil, nil)

	roots, err := e.categorySvc.Tree(context.Background())
	require.NoError(t, err)

	require.Len(t, roots, 2)
	assert.Equal(t, "Accesorios", roots[0].Name)
	assert.Equal(t, "Ropa", roots[1].Name)
	require.Len(t, roots[1].Children, 2)
	assert.Equal(t, "Camisetas", roots[1].Children[0].Name)
	assert.Equal(t, "Pantalones", roots[1].Children[1].Name)
}

func TestCategoryService_Descendants(t *testing.T) {
	e := newEnv(t)
	ropa := e.category(t, "Ropa", nil, nil)
	tees := e.category(t, "Camisetas", ropa, nil)
	e.category(t, "Manga Larga", tees, nil)
	e.category(t, "Accesorios", nil, nil)

	got, err := e.categorySvc.Descendants(context.Background(), "camisetas")
	require.NoError(t, err)

	names := []string{}
	for _, c := range got {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"Camisetas", "Manga Larga"}, names)

	_, err = e.categorySvc.Descendants(context.Background(), "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
