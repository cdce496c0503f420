package seed

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

const docA = `{
  "categories": [
    {"id": "c2", "name": "Hombre", "slug": "hombre", "parentCategory": "c1"},
    {"id": "c1", "name": "Moda", "slug": "moda", "parentCategory": null,
     "attributes": [{"name": "Color", "values": ["Rojo"], "isVariant": true}]}
  ],
  "brands": [{"id": "b1", "name": "Acme", "slug": "acme"}]
}`

const docB = `{
  "products": [
    {"id": "p1", "name": "Camiseta", "slug": "camiseta", "category": "c2",
     "variants": [{"sku": "CAM-R", "price": 10, "stock": 1,
       "attributes": [{"key": "Color", "value": "Rojo"}], "images": []}]}
  ]
}`

// setupTestFiles writes a plain and a gzipped seed document
func setupTestFiles(t *testing.T) (string, string) {
	t.Helper()

	tmpDir := t.TempDir()
	plain := filepath.Join(tmpDir, "catalog.json")
	zipped := filepath.Join(tmpDir, "products.json.gz")

	if err := os.WriteFile(plain, []byte(docA), 0644); err != nil {
		t.Fatalf("failed to create plain file: %v", err)
	}
	if err := os.WriteFile(zipped, gzipBytes(t, docB), 0644); err != nil {
		t.Fatalf("failed to create gzip file: %v", err)
	}
	return plain, zipped
}

func gzipBytes(t *testing.T, s string) []byte {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(s)); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := gz.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestLoader_Load(t *testing.T) {
	t.Run("files keep source order", func(t *testing.T) {
		plain, zipped := setupTestFiles(t)

		catalog, err := NewLoader(time.Second).Load(context.Background(), []string{zipped, plain})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		stats := catalog.Stats()
		if stats != (Stats{Categories: 2, Brands: 1, Products: 1}) {
			t.Errorf("unexpected stats: %+v", stats)
		}
		if catalog.Products[0].Variants[0].SKU != "CAM-R" {
			t.Errorf("expected gzipped product to decode, got %+v", catalog.Products[0])
		}
	})

	t.Run("url source", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(gzipBytes(t, docB))
		}))
		defer server.Close()

		catalog, err := NewLoader(time.Second).Load(context.Background(), []string{server.URL})
		if err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}
		if len(catalog.Products) != 1 {
			t.Errorf("expected 1 product, got %d", len(catalog.Products))
		}
	})

	t.Run("empty sources", func(t *testing.T) {
		if _, err := NewLoader(time.Second).Load(context.Background(), nil); err == nil {
			t.Error("expected error for empty sources, got nil")
		}
	})

	t.Run("any failing source fails the load", func(t *testing.T) {
		plain, _ := setupTestFiles(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewLoader(time.Second).Load(context.Background(), []string{plain, server.URL})
		if err == nil {
			t.Error("expected error for failing url, got nil")
		}

		_, err = NewLoader(time.Second).Load(context.Background(), []string{"/non/existent/catalog.json"})
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("expected not-exist error, got %v", err)
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
			t.Fatal(err)
		}
		if _, err := NewLoader(time.Second).Load(context.Background(), []string{path}); err == nil {
			t.Error("expected decode error, got nil")
		}
	})
}

type recordingImporter struct {
	calls []string
	fail  string
}

func (r *recordingImporter) ImportCategory(ctx context.Context, c models.Category) error {
	r.calls = append(r.calls, "category:"+c.ID)
	return r.err(c.ID)
}

func (r *recordingImporter) ImportBrand(ctx context.Context, b models.Brand) error {
	r.calls = append(r.calls, "brand:"+b.ID)
	return r.err(b.ID)
}

func (r *recordingImporter) ImportProduct(ctx context.Context, p models.Product) error {
	r.calls = append(r.calls, "product:"+p.ID)
	return r.err(p.ID)
}

func (r *recordingImporter) err(id string) error {
	if id == r.fail {
		return errors.New("boom")
	}
	return nil
}

func TestApply(t *testing.T) {
	plain, zipped := setupTestFiles(t)
	catalog, err := NewLoader(time.Second).Load(context.Background(), []string{plain, zipped})
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	t.Run("parents first then brands then products", func(t *testing.T) {
		imp := &recordingImporter{}
		if err := Apply(context.Background(), catalog, imp); err != nil {
			t.Fatalf("expected no error, got: %v", err)
		}

		want := []string{"category:c1", "category:c2", "brand:b1", "product:p1"}
		if len(imp.calls) != len(want) {
			t.Fatalf("expected %v, got %v", want, imp.calls)
		}
		for i := range want {
			if imp.calls[i] != want[i] {
				t.Errorf("call %d: expected %s, got %s", i, want[i], imp.calls[i])
			}
		}
	})

	t.Run("stops on first failure", func(t *testing.T) {
		imp := &recordingImporter{fail: "b1"}
		if err := Apply(context.Background(), catalog, imp); err == nil {
			t.Fatal("expected error, got nil")
		}
		if imp.calls[len(imp.calls)-1] != "brand:b1" {
			t.Errorf("expected to stop at brand, got %v", imp.calls)
		}
	})

	t.Run("cycle", func(t *testing.T) {
		a, b := "a", "b"
		cyclic := &Catalog{Categories: []models.Category{
			{ID: "a", ParentCategory: &b},
			{ID: "b", ParentCategory: &a},
		}}
		if err := Apply(context.Background(), cyclic, &recordingImporter{}); err == nil {
			t.Error("expected cycle error, got nil")
		}
	})
}
