// Package seed loads catalog documents from files and URLs and imports them
// at start-up.
package seed

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
)

// Catalog is one seed document.
type Catalog struct {
	Categories []models.Category `json:"categories"`
	Brands     []models.Brand    `json:"brands"`
	Products   []models.Product  `json:"products"`
}

// Stats summarizes a catalog for logging.
type Stats struct {
	Categories int `json:"categories"`
	Brands     int `json:"brands"`
	Products   int `json:"products"`
}

func (c *Catalog) Stats() Stats {
	return Stats{Categories: len(c.Categories), Brands: len(c.Brands), Products: len(c.Products)}
}

// merge appends other's documents after c's.
func (c *Catalog) merge(other *Catalog) {
	c.Categories = append(c.Categories, other.Categories...)
	c.Brands = append(c.Brands, other.Brands...)
	c.Products = append(c.Products, other.Products...)
}

// sourceResult holds the result of loading a single source
type sourceResult struct {
	index   int
	catalog *Catalog
	err     error
}

// Loader reads catalog documents from local paths and http(s) URLs.
type Loader struct {
	client *http.Client
}

// NewLoader creates a loader whose downloads time out after timeout.
func NewLoader(timeout time.Duration) *Loader {
	return &Loader{client: &http.Client{Timeout: timeout}}
}

// Load reads every source concurrently and merges them in source order.
// It fails if any source fails.
func (l *Loader) Load(ctx context.Context, sources []string) (*Catalog, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no seed sources provided")
	}

	resultChan := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()

			catalog, err := l.loadSource(ctx, source)
			resultChan <- sourceResult{index: index, catalog: catalog, err: err}
		}(i, src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining order
	results := make([]sourceResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	merged := &Catalog{}
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("failed to load seed source %d (%s): %w", i+1, sources[i], result.err)
		}
		merged.merge(result.catalog)
	}
	return merged, nil
}

func (l *Loader) loadSource(ctx context.Context, source string) (*Catalog, error) {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return l.loadURL(ctx, source)
	}
	return loadFile(source)
}

func (l *Loader) loadURL(ctx context.Context, url string) (*Catalog, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return decode(resp.Body)
}

func loadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return decode(f)
}

// decode parses a JSON document, gunzipping it first when it starts with
// the gzip magic bytes.
func decode(r io.Reader) (*Catalog, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("read document: %w", err)
	}

	var body io.Reader = br
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		body = gz
	}

	var c Catalog
	if err := json.NewDecoder(body).Decode(&c); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	return &c, nil
}
