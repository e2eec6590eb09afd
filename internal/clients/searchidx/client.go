package searchidx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/customHttpClient"
	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// Client talks to the keyword search index service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	logger  *logger_i.Logger
}

func NewClient(baseURL string, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    customHttpClient.NewPooledClient(config.BackendTimeout),
		logger:  logger_i.NewLogger("SearchIdx"),
	}
}

// IndexChunks submits a batch of chunks for indexing.
func (c *Client) IndexChunks(ctx context.Context, chunks []docModel.Chunk) (map[string]any, error) {
	resp, err := c.postJSON(ctx, "/index", map[string]any{"chunks": chunks})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("search index returned status %d", resp.StatusCode)
	}
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search index response decode: %w", err)
	}
	return decoded, nil
}

// Search runs a keyword query and returns the raw hit list.
func (c *Client) Search(ctx context.Context, query string, filters map[string]any, limit int) ([]map[string]any, error) {
	payload := map[string]any{
		"query": query,
		"limit": limit,
	}
	if len(filters) > 0 {
		payload["filters"] = filters
	}

	resp, err := c.postJSON(ctx, "/search", payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("search index returned status %d", resp.StatusCode)
	}
	var decoded struct {
		Results []map[string]any `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("search response decode: %w", err)
	}
	return decoded.Results, nil
}

func (c *Client) postJSON(ctx context.Context, route string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("search index payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search index request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search index call failed: %w", err)
	}
	return resp, nil
}
