// Package commerce is a minimal client for the commerce platform's REST API.
// List endpoints return {data, pagination} envelopes; writes are wrapped in a
// singular {entity: {...}} envelope.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const pageSize = 100

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 60 * time.Second},
	}
}

type Product struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Variant struct {
	ID       string            `json:"id"`
	SKU      string            `json:"sku,omitempty"`
	Product  string            `json:"product,omitempty"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type Collection struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type Price struct {
	ID      string `json:"id"`
	Product string `json:"product"`
	Amount  int    `json:"amount"`
}

// VariantOptionInput names one option axis ("Color", "Size").
type VariantOptionInput struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type VariantInput struct {
	SKU           string            `json:"sku,omitempty"`
	Position      int               `json:"position"`
	Amount        int               `json:"amount,omitempty"`
	Option1       string            `json:"option_1,omitempty"`
	Option2       string            `json:"option_2,omitempty"`
	Option3       string            `json:"option_3,omitempty"`
	StockEnabled  bool              `json:"stock_enabled,omitempty"`
	StockQuantity *int              `json:"stock_quantity,omitempty"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// ProductInput is the create shape. Simple and variant products are not
// represented identically on the wire: simple products carry sku/stock
// directly and no variant arrays, variant products carry option axes plus one
// VariantInput per combination.
type ProductInput struct {
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`

	Collections []string `json:"product_collections,omitempty"`

	SKU           string `json:"sku,omitempty"`
	StockEnabled  bool   `json:"stock_enabled,omitempty"`
	StockQuantity *int   `json:"stock_quantity,omitempty"`

	VariantOptions []VariantOptionInput `json:"variant_options,omitempty"`
	Variants       []VariantInput       `json:"variants,omitempty"`
}

type CollectionInput struct {
	Name        string            `json:"name"`
	Slug        string            `json:"slug"`
	Description string            `json:"description,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type PriceInput struct {
	Product  string `json:"product"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency,omitempty"`
}

type pagination struct {
	Count int `json:"count"`
	Limit int `json:"limit"`
	Page  int `json:"page"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s %s: encode body: %w", method, path, err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Method: method, Path: path, Status: resp.StatusCode, Body: string(raw)}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("%s %s: decode response: %w", method, path, err)
		}
	}
	return nil
}

type APIError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Body)
}

func listQuery(page int) url.Values {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(page))
	return q
}

// ---------- products ----------

func (c *Client) ListProducts(ctx context.Context) ([]Product, error) {
	var all []Product
	for page := 1; ; page++ {
		var env struct {
			Data       []Product  `json:"data"`
			Pagination pagination `json:"pagination"`
		}
		if err := c.do(ctx, http.MethodGet, "/products", listQuery(page), nil, &env); err != nil {
			return nil, err
		}
		all = append(all, env.Data...)
		if len(env.Data) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (*Product, error) {
	var out Product
	if err := c.do(ctx, http.MethodPost, "/products", nil, map[string]any{"product": in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/products/"+id, nil, nil, nil)
}

// ---------- variants ----------

func (c *Client) ListVariants(ctx context.Context) ([]Variant, error) {
	var all []Variant
	for page := 1; ; page++ {
		var env struct {
			Data       []Variant  `json:"data"`
			Pagination pagination `json:"pagination"`
		}
		if err := c.do(ctx, http.MethodGet, "/variants", listQuery(page), nil, &env); err != nil {
			return nil, err
		}
		all = append(all, env.Data...)
		if len(env.Data) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) DeleteVariant(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/variants/"+id, nil, nil, nil)
}

// ---------- prices ----------

func (c *Client) CreatePrice(ctx context.Context, in PriceInput) (*Price, error) {
	var out Price
	if err := c.do(ctx, http.MethodPost, "/prices", nil, map[string]any{"price": in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ---------- collections ----------

func (c *Client) ListCollections(ctx context.Context) ([]Collection, error) {
	var all []Collection
	for page := 1; ; page++ {
		var env struct {
			Data       []Collection `json:"data"`
			Pagination pagination   `json:"pagination"`
		}
		if err := c.do(ctx, http.MethodGet, "/product_collections", listQuery(page), nil, &env); err != nil {
			return nil, err
		}
		all = append(all, env.Data...)
		if len(env.Data) < pageSize {
			return all, nil
		}
	}
}

func (c *Client) CreateCollection(ctx context.Context, in CollectionInput) (*Collection, error) {
	var out Collection
	if err := c.do(ctx, http.MethodPost, "/product_collections", nil, map[string]any{"product_collection": in}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteCollection(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/product_collections/"+id, nil, nil, nil)
}

// SearchCollectionsByName does a remote query and returns matches.
func (c *Client) SearchCollectionsByName(ctx context.Context, name string) ([]Collection, error) {
	q := listQuery(1)
	q.Set("query", name)
	var env struct {
		Data []Collection `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/product_collections", q, nil, &env); err != nil {
		return nil, err
	}
	return env.Data, nil
}
