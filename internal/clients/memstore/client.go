package memstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/customHttpClient"
	"github.com/docharvest/gateway/internal/domain/docModel"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// Client talks to the session memory service.
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
		logger:  logger_i.NewLogger("Memstore"),
	}
}

// StoreMemory writes a batch of chunks under one session.
func (c *Client) StoreMemory(ctx context.Context, sessionId string, chunks []docModel.Chunk) (map[string]any, error) {
	payload := map[string]any{
		"session_id": sessionId,
		"chunks":     chunks,
		"metadata":   map[string]any{"chunk_count": len(chunks)},
	}
	return c.postJSON(ctx, "/memory", payload)
}

// GetMemory reads back the stored entries for a session.
func (c *Client) GetMemory(ctx context.Context, sessionId string, limit int) (map[string]any, error) {
	endpoint := c.baseURL + "/memory/" + url.PathEscape(sessionId)
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("memstore request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("memstore get failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp)
}

func (c *Client) postJSON(ctx context.Context, route string, payload any) (map[string]any, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("memstore payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+route, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("memstore request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("memstore post failed: %w", err)
	}
	defer resp.Body.Close()
	return decodeResponse(resp)
}

func (c *Client) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}

func decodeResponse(resp *http.Response) (map[string]any, error) {
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("memstore returned status %d", resp.StatusCode)
	}
	var decoded map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("memstore response decode: %w", err)
	}
	return decoded, nil
}
