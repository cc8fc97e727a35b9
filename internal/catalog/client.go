// Package catalog talks to the external product catalog API (DummyJSON
// shape) and owns the browse-side rules: query building, pagination math and
// the search debounce policy.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"vestia-backend/internal/models"
)

// ErrUnavailable wraps transport-level failures so callers can show a single
// "store unreachable" message instead of a raw transport error.
var ErrUnavailable = errors.New("catalog: service unavailable")

type QueryKind int

const (
	QueryAll QueryKind = iota
	QueryCategory
	QuerySearch
)

// Query selects which product listing to load. Exactly one of Category or
// Term is meaningful, depending on Kind.
type Query struct {
	Kind     QueryKind
	Category string
	Term     string
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// LoadProducts fetches one page of products for the given query.
func (c *Client) LoadProducts(ctx context.Context, q Query, page, pageSize int) (*models.ProductPage, error) {
	if page < 1 {
		page = 1
	}

	endpoint, err := c.buildURL(q, page, pageSize)
	if err != nil {
		return nil, err
	}

	var result models.ProductPage
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetProduct fetches full details for a single product.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	endpoint := fmt.Sprintf("%s/products/%s", c.baseURL, url.PathEscape(id))

	var product models.Product
	if err := c.getJSON(ctx, endpoint, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) buildURL(q Query, page, pageSize int) (string, error) {
	skip := (page - 1) * pageSize

	params := url.Values{}
	params.Set("limit", fmt.Sprintf("%d", pageSize))
	params.Set("skip", fmt.Sprintf("%d", skip))

	switch q.Kind {
	case QueryAll:
		return fmt.Sprintf("%s/products?%s", c.baseURL, params.Encode()), nil
	case QueryCategory:
		if q.Category == "" {
			return "", fmt.Errorf("catalog: category query requires a category name")
		}
		return fmt.Sprintf("%s/products/category/%s?%s", c.baseURL, url.PathEscape(q.Category), params.Encode()), nil
	case QuerySearch:
		params.Set("q", q.Term)
		return fmt.Sprintf("%s/products/search?%s", c.baseURL, params.Encode()), nil
	default:
		return "", fmt.Errorf("catalog: unknown query kind %d", q.Kind)
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("catalog: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}
