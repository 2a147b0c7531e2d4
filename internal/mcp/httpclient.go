package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/claude/trainsync/internal/models"
)

// HTTPClient implements DataSource by calling the trainsync REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the session store lives in a running trainsync server.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUnknownSession
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	return body, nil
}

func (c *HTTPClient) ListSessions(ctx context.Context) ([]models.TrainingSession, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/sessions")
	if err != nil {
		return nil, err
	}

	var sessions []models.TrainingSession
	if err := json.Unmarshal(body, &sessions); err != nil {
		return nil, fmt.Errorf("httpclient: decode sessions: %w", err)
	}
	return sessions, nil
}

func (c *HTTPClient) GetStats(ctx context.Context) (*models.UserStats, error) {
	body, err := c.do(ctx, http.MethodGet, "/api/v1/stats")
	if err != nil {
		return nil, err
	}

	var stats models.UserStats
	if err := json.Unmarshal(body, &stats); err != nil {
		return nil, fmt.Errorf("httpclient: decode stats: %w", err)
	}
	return &stats, nil
}

func (c *HTTPClient) CompleteSession(ctx context.Context, id string) (*models.UserStats, error) {
	body, err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+url.PathEscape(id)+"/complete")
	if err != nil {
		return nil, err
	}

	var state struct {
		Stats models.UserStats `json:"user_stats"`
	}
	if err := json.Unmarshal(body, &state); err != nil {
		return nil, fmt.Errorf("httpclient: decode state: %w", err)
	}
	return &state.Stats, nil
}
