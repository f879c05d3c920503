package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"pricetrack/internal/model"
)

// Client is an HTTP-backed Oracle talking to a price data API
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// NewClient creates an oracle client for the given API base URL
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: userAgent,
	}
}

// getJSON performs a GET and decodes the JSON response into out
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: create request: %v", model.ErrOracle, err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", model.ErrOracle, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", model.ErrNotFound, path)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: unexpected status %d: %s", model.ErrOracle, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", model.ErrOracle, err)
	}
	return nil
}

// Search looks up products matching a free-text query
func (c *Client) Search(ctx context.Context, query string, limit int) ([]*model.Product, error) {
	q := url.Values{"q": {query}}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var result struct {
		Products []*model.Product `json:"products"`
	}
	if err := c.getJSON(ctx, "/v1/products/search", q, &result); err != nil {
		return nil, err
	}
	return result.Products, nil
}

// ScanIdentifier resolves a barcode or QR payload to a product, or (nil, nil)
// when the code is unknown
func (c *Client) ScanIdentifier(ctx context.Context, code string) (*model.Product, error) {
	var product model.Product
	err := c.getJSON(ctx, "/v1/products/scan/"+url.PathEscape(code), nil, &product)
	if errors.Is(err, model.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FetchPrices returns current prices for the given product ids. Ids unknown
// to the oracle are simply absent from the result map.
func (c *Client) FetchPrices(ctx context.Context, ids []string) (map[string]float64, error) {
	if len(ids) == 0 {
		return map[string]float64{}, nil
	}

	q := url.Values{"ids": {strings.Join(ids, ",")}}
	var result struct {
		Prices map[string]float64 `json:"prices"`
	}
	if err := c.getJSON(ctx, "/v1/prices", q, &result); err != nil {
		return nil, err
	}
	if result.Prices == nil {
		result.Prices = map[string]float64{}
	}
	return result.Prices, nil
}

// FetchHistory returns the price observations for a product over the last
// days, oldest first
func (c *Client) FetchHistory(ctx context.Context, id string, days int) ([]model.PriceObservation, error) {
	q := url.Values{}
	if days > 0 {
		q.Set("days", strconv.Itoa(days))
	}

	var result struct {
		Observations []model.PriceObservation `json:"observations"`
	}
	if err := c.getJSON(ctx, "/v1/products/"+url.PathEscape(id)+"/history", q, &result); err != nil {
		return nil, err
	}
	return result.Observations, nil
}

// FetchRetailerQuotes returns current cross-retailer offers for a product
func (c *Client) FetchRetailerQuotes(ctx context.Context, id string) ([]model.RetailerQuote, error) {
	var result struct {
		Quotes []model.RetailerQuote `json:"quotes"`
	}
	if err := c.getJSON(ctx, "/v1/products/"+url.PathEscape(id)+"/quotes", nil, &result); err != nil {
		return nil, err
	}
	return result.Quotes, nil
}
