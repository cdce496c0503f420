package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/Lixing-Zhang/storefront-api/internal/models"
	"github.com/Lixing-Zhang/storefront-api/internal/validation"
)

const maxJSONBody = 1 << 20

var errEmptyBody = errors.New("request body is empty")

// decodeJSON reads a single JSON document of at most 1 MiB into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// parseProductQuery reads the listing parameters shared by the product
// endpoints. Repeated and comma-separated values are both accepted for
// category, tags and attributes.
func parseProductQuery(values url.Values) (models.ProductQuery, error) {
	verr := validation.New()
	q := models.ProductQuery{
		CategoryIDs: splitValues(values["category"]),
		BrandID:     strings.TrimSpace(values.Get("brand")),
		Tags:        splitValues(values["tags"]),
		Search:      strings.TrimSpace(values.Get("search")),
		SortBy:      values.Get("sortBy"),
		SortOrder:   strings.ToLower(values.Get("sortOrder")),
	}

	q.Page = queryInt(verr, values, "page")
	q.Limit = queryInt(verr, values, "limit")
	q.MinPrice = queryFloat(verr, values, "minPrice")
	q.MaxPrice = queryFloat(verr, values, "maxPrice")
	if q.MinPrice != nil && q.MaxPrice != nil && *q.MinPrice > *q.MaxPrice {
		verr.Add("maxPrice", "must be greater than or equal to minPrice")
	}

	switch q.SortBy {
	case "", models.SortByCreatedAt, models.SortByPrice, models.SortByName:
	default:
		verr.Add("sortBy", "must be one of createdAt, price, name")
	}
	switch q.SortOrder {
	case "", "asc", "desc":
	default:
		verr.Add("sortOrder", "must be asc or desc")
	}

	for i, raw := range values["attributes"] {
		attr, err := parseAttribute(raw)
		if err != nil {
			verr.Add(fmt.Sprintf("attributes[%d]", i), err.Error())
			continue
		}
		q.Attributes = append(q.Attributes, attr)
	}

	return q, verr.OrNil()
}

// parseAttribute accepts {"key":"Color","value":"Red"} or Color:Red.
func parseAttribute(raw string) (models.Attribute, error) {
	raw = strings.TrimSpace(raw)
	var attr models.Attribute
	if strings.HasPrefix(raw, "{") {
		if err := json.Unmarshal([]byte(raw), &attr); err != nil {
			return attr, fmt.Errorf("must be a JSON object with key and value")
		}
	} else {
		key, value, ok := strings.Cut(raw, ":")
		if !ok {
			return attr, fmt.Errorf("must be key:value")
		}
		attr = models.Attribute{Key: key, Value: value}
	}

	attr.Key, attr.Value = strings.TrimSpace(attr.Key), strings.TrimSpace(attr.Value)
	if attr.Key == "" || attr.Value == "" {
		return attr, fmt.Errorf("key and value are required")
	}
	return attr, nil
}

func splitValues(raw []string) []string {
	out := []string{}
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func queryInt(verr *validation.Error, values url.Values, key string) int {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		verr.Add(key, "must be a non-negative integer")
		return 0
	}
	return n
}

func queryFloat(verr *validation.Error, values url.Values, key string) *float64 {
	raw := strings.TrimSpace(values.Get(key))
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f < 0 {
		verr.Add(key, "must be a non-negative number")
		return nil
	}
	return &f
}
