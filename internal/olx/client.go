// Package olx is the HTTP client for the external marketplace taxonomy
// API. Fetches return the raw JSON payload so responses can be cached
// verbatim; parsing into source records happens separately.
package olx

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// DefaultBaseURL is the production taxonomy API root.
const DefaultBaseURL = "https://www.olx.com.lb/api"

// Client fetches the category tree and per-category field definitions
// from the taxonomy source.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient creates a taxonomy client. An empty baseURL selects the
// production API.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchCategories retrieves the full category list. The optional "data"
// envelope is unwrapped so callers always see the bare array.
func (c *Client) FetchCategories(ctx context.Context) ([]byte, error) {
	return c.get(ctx, c.baseURL+"/categories")
}

// FetchCategoryFields retrieves the field definitions for one category,
// identified by its external ID. The response is keyed by the category's
// internal source ID.
func (c *Client) FetchCategoryFields(ctx context.Context, externalID string) ([]byte, error) {
	q := url.Values{
		"categoryExternalIDs":    {externalID},
		"includeWithoutCategory": {"true"},
		"splitByCategoryIDs":     {"true"},
		"flatChoices":            {"true"},
		"groupChoicesBySection":  {"true"},
		"flat":                   {"true"},
	}
	return c.get(ctx, c.baseURL+"/categoryFields?"+q.Encode())
}

// Health reports whether the taxonomy API is reachable.
func (c *Client) Health(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/categories", nil)
	if err != nil {
		return false
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	return resp.StatusCode == http.StatusOK
}

// get performs the HTTP call, checks the status, and unwraps an optional
// {"data": ...} envelope.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("olx request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("olx http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("olx read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("olx API error (status %d): %s", resp.StatusCode, string(body))
	}

	return unwrapEnvelope(body), nil
}

// unwrapEnvelope strips a {"data": ...} wrapper when present, returning
// the payload untouched otherwise.
func unwrapEnvelope(body []byte) []byte {
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Data) > 0 {
		return envelope.Data
	}
	return body
}
