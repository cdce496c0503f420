package handlers

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

func TestParseProductQuery(t *testing.T) {
	q, err := parseProductQuery(url.Values{
		"category":   {"c1,c2", "c3"},
		"tags":       {"verano", " oferta "},
		"attributes": {"Color:Rojo", `{"key":"Talla","value":"M"}`},
		"brand":      {"acme"},
		"page":       {"2"},
		"limit":      {"5"},
		"minPrice":   {"10"},
		"maxPrice":   {"10"},
		"sortBy":     {"price"},
		"sortOrder":  {"DESC"},
		"search":     {" camiseta "},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"c1", "c2", "c3"}, q.CategoryIDs)
	assert.Equal(t, []string{"verano", "oferta"}, q.Tags)
	assert.Equal(t, []models.Attribute{{Key: "Color", Value: "Rojo"}, {Key: "Talla", Value: "M"}}, q.Attributes)
	assert.Equal(t, "acme", q.BrandID)
	assert.Equal(t, 2, q.Page)
	assert.Equal(t, 5, q.Limit)
	require.NotNil(t, q.MinPrice)
	assert.Equal(t, 10.0, *q.MinPrice)
	assert.Equal(t, models.SortByPrice, q.SortBy)
	assert.Equal(t, "desc", q.SortOrder)
	assert.Equal(t, "camiseta", q.Search)
}

func TestParseProductQuery_Errors(t *testing.T) {
	tests := []struct {
		name      string
		values    url.Values
		wantField string
	}{
		{"negative page", url.Values{"page": {"-1"}}, "page"},
		{"page not a number", url.Values{"page": {"two"}}, "page"},
		{"bad min price", url.Values{"minPrice": {"cheap"}}, "minPrice"},
		{"unknown sort", url.Values{"sortBy": {"stock"}}, "sortBy"},
		{"unknown order", url.Values{"sortOrder": {"up"}}, "sortOrder"},
		{"attribute without value", url.Values{"attributes": {"Color:"}}, "attributes[0]"},
		{"attribute bad json", url.Values{"attributes": {`{"key":`}}, "attributes[0]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProductQuery(tt.values)
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)
		})
	}
}
