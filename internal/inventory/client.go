package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	inventoryPath  = "/api/inventory"
	defaultTimeout = 10 * time.Second
)

// Client fetches the inventory endpoint on the same origin as the incoming
// request, so every environment checks against its own stock.
type Client struct {
	httpClient *http.Client
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Response is the JSON envelope of GET /api/inventory.
type Response struct {
	Success bool      `json:"success"`
	Data    *Snapshot `json:"data,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Fetch reads a fresh snapshot. Results are never cached.
func (c *Client) Fetch(ctx context.Context, origin string) (*Snapshot, error) {
	url := strings.TrimRight(origin, "/") + inventoryPath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build inventory request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inventory request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("inventory endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var result Response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode inventory response: %w", err)
	}
	if !result.Success || result.Data == nil {
		return nil, fmt.Errorf("inventory endpoint reported failure: %s", result.Error)
	}

	return result.Data, nil
}
