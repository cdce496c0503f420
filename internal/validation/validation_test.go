package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type row struct {
	SKU   string  `json:"sku" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

type payload struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"omitempty,email"`
	Rows  []row  `json:"rows" validate:"min=1,dive"`
}

func TestStruct_ReportsJSONFieldPaths(t *testing.T) {
	err := Struct(payload{Email: "nope", Rows: []row{{SKU: "A"}, {Price: -1}}})
	require.Error(t, err)

	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "is required", verr.Fields["name"])
	assert.Equal(t, "must be a valid email", verr.Fields["email"])
	assert.Equal(t, "is required", verr.Fields["rows[1].sku"])
	assert.Equal(t, "must be greater than or equal to 0", verr.Fields["rows[1].price"])
}

func TestStruct_Valid(t *testing.T) {
	assert.NoError(t, Struct(payload{Name: "x", Rows: []row{{SKU: "A"}}}))
}

func TestError_MergeAndOrNil(t *testing.T) {
	e := New()
	assert.NoError(t, e.OrNil())

	assert.NoError(t, e.Merge(Struct(payload{Rows: []row{{SKU: "A"}}})))
	assert.Contains(t, e.Fields, "name")

	other := errors.New("boom")
	assert.Equal(t, other, e.Merge(other))

	e.Add("name", "second message is ignored")
	assert.Equal(t, "is required", e.Fields["name"])
	assert.Error(t, e.OrNil())
}
