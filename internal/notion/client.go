// Package notion is a minimal client for the Notion REST API covering the
// database query and page upsert calls used by the sync relay.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Version is the Notion-Version header sent with every request.
const Version = "2022-06-28"

// DefaultBaseURL is the public Notion API endpoint.
const DefaultBaseURL = "https://api.notion.com/v1"

// APIError is a non-2xx response from the API.
type APIError struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion api returned %d %s: %s", e.Status, e.Code, e.Message)
}

// Page is a database row.
type Page struct {
	ID string `json:"id"`
}

// Properties maps property names to Notion property values.
type Properties map[string]any

// Filter is a database query filter on a single property.
type Filter struct {
	Property string `json:"property"`
	Title    *Equals `json:"title,omitempty"`
	Email    *Equals `json:"email,omitempty"`
}

// Equals is an exact-match condition.
type Equals struct {
	Equals string `json:"equals"`
}

// TitleEquals filters on a title property.
func TitleEquals(property, value string) Filter {
	return Filter{Property: property, Title: &Equals{Equals: value}}
}

// EmailEquals filters on an email property.
func EmailEquals(property, value string) Filter {
	return Filter{Property: property, Email: &Equals{Equals: value}}
}

// Client calls the Notion API with a bearer integration token.
type Client struct {
	baseURL string
	apiKey  string
	timeout time.Duration
	client  *http.Client
}

// NewClient creates a Client. Each call runs under its own timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{},
	}
}

// QueryDatabase returns the pages of databaseID matching filter.
func (c *Client) QueryDatabase(ctx context.Context, databaseID string, filter Filter) ([]Page, error) {
	var out struct {
		Results []Page `json:"results"`
	}
	body := map[string]any{"filter": filter}
	if err := c.do(ctx, http.MethodPost, "/databases/"+databaseID+"/query", body, &out); err != nil {
		return nil, err
	}
	return out.Results, nil
}

// CreatePage adds a row to databaseID.
func (c *Client) CreatePage(ctx context.Context, databaseID string, props Properties) (*Page, error) {
	body := map[string]any{
		"parent":     map[string]string{"database_id": databaseID},
		"properties": props,
	}
	var p Page
	if err := c.do(ctx, http.MethodPost, "/pages", body, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePage overwrites the given properties of pageID.
func (c *Client) UpdatePage(ctx context.Context, pageID string, props Properties) (*Page, error) {
	var p Page
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, map[string]any{"properties": props}, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, in, out any) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Notion-Version", Version)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling notion: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		if json.Unmarshal(respBody, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = string(respBody)
		}
		apiErr.Status = resp.StatusCode
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
