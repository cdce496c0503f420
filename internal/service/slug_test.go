package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront-api/internal/repository"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Camiseta Básica", "camiseta-basica"},
		{"  Niños & Niñas  ", "ninos-ninas"},
		{"Ropa > Camisetas", "ropa-camisetas"},
		{"T-Shirt 2.0!", "t-shirt-2-0"},
		{"¡¡¡", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Slugify(tt.in))
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	owners := map[string]string{"tee": "p1", "tee-2": "p2"}
	lookup := func(ctx context.Context, slug string) (string, error) {
		if id, ok := owners[slug]; ok {
			return id, nil
		}
		return "", repository.ErrNotFound
	}
	ctx := context.Background()

	got, err := uniqueSlug(ctx, "tee", "p9", lookup)
	require.NoError(t, err)
	assert.Equal(t, "tee-3", got)

	got, err = uniqueSlug(ctx, "tee", "p1", lookup)
	require.NoError(t, err)
	assert.Equal(t, "tee", got, "a record keeps its own slug")

	got, err = uniqueSlug(ctx, "", "p9", lookup)
	require.NoError(t, err)
	assert.Equal(t, "item", got)
}
