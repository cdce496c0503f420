package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument_LabelsByRoutePattern(t *testing.T) {
	m := New()
	r := chi.NewRouter()
	r.Use(m.Instrument)
	r.Get("/api/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/products/"+id, nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/products/{id}", "404"))
	assert.Equal(t, 2.0, got)
}

func TestDomainCounters(t *testing.T) {
	m := New()

	m.OrderPlaced(19.5)
	m.OrderPlaced(0.5)
	m.CartItemAdded()
	m.VariantSelected(true)
	m.VariantSelected(false)
	m.VariantSelected(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ordersPlaced))
	assert.Equal(t, 20.0, testutil.ToFloat64(m.orderValue))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cartAdds))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.variantSelections.WithLabelValues("unresolved")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.OrderPlaced(1)
	m.CartItemAdded()
	m.VariantSelected(true)
	m.RateLimited()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	assert.NotNil(t, m.Instrument(next))
}

func TestHandler_ExposesMetrics(t *testing.T) {
	m := New()
	m.CartItemAdded()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "storefront_cart_items_added_total 1"))
}
