package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"golang.org/x/time/rate"

	"github.com/docharvest/gateway/internal/config"
	"github.com/docharvest/gateway/internal/customHttpClient"
	"github.com/docharvest/gateway/pkg/logger_i"
)

// Client downloads documents for ingestion. Outbound requests go through a
// process-wide throttle so a burst of jobs cannot hammer origin servers.
type Client struct {
	http    *http.Client
	limiter *rate.Limiter
	logger  *logger_i.Logger
}

func NewClient() *Client {
	return &Client{
		http:    customHttpClient.NewPooledClient(config.FetchTimeout),
		limiter: rate.NewLimiter(rate.Limit(config.FetchRatePerSecond), config.FetchBurst),
		logger:  logger_i.NewLogger("Fetcher"),
	}
}

// Fetch downloads the document and returns its plain-text content. PDF, DOCX,
// ODT and RTF payloads are run through text extraction; everything else is
// treated as text.
func (c *Client) Fetch(ctx context.Context, url string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("fetch throttle: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("invalid document url %q: %w", url, err)
	}

	c.logger.Debug("Fetching document", "url", url)
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch %q: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("fetch of %q returned status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed reading body of %q: %w", url, err)
	}

	content, err := extractContent(url, resp.Header.Get("Content-Type"), body)
	if err != nil {
		return "", fmt.Errorf("failed extracting content of %q: %w", url, err)
	}
	return content, nil
}
