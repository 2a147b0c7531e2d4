package syncer

import (
	"bytes"
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

// Remote is the cloud key-value endpoint.
type Remote interface {
	// Get returns nil, nil when nothing is stored under key.
	Get(ctx context.Context, key string) (*models.Snapshot, error)
	Put(ctx context.Context, key string, snap models.Snapshot) error
}

// HTTPRemote talks to the trainsync-cloud API.
type HTTPRemote struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Compile-time check: HTTPRemote satisfies Remote.
var _ Remote = (*HTTPRemote)(nil)

// NewHTTPRemote creates a client for the endpoint at baseURL.
func NewHTTPRemote(baseURL, apiKey string) *HTTPRemote {
	return &HTTPRemote{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (r *HTTPRemote) url(key string) string {
	return r.baseURL + "/api/v1/kv/" + url.PathEscape(key)
}

func (r *HTTPRemote) do(ctx context.Context, method, key string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, r.url(key), body)
	if err != nil {
		return nil, fmt.Errorf("remote: create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.apiKey != "" {
		req.Header.Set("X-API-Key", r.apiKey)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("remote: %s %s: %w", method, key, err)
	}
	return resp, nil
}

// Get fetches the snapshot stored under key.
func (r *HTTPRemote) Get(ctx context.Context, key string) (*models.Snapshot, error) {
	resp, err := r.do(ctx, http.MethodGet, key, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("remote: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("remote: GET %s returned %d: %s", key, resp.StatusCode, body)
	}

	var snap models.Snapshot
	if err := json.Unmarshal(body, &snap); err != nil {
		return nil, fmt.Errorf("remote: decode snapshot: %w", err)
	}
	return &snap, nil
}

// Put replaces the snapshot stored under key.
func (r *HTTPRemote) Put(ctx context.Context, key string, snap models.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("remote: encode snapshot: %w", err)
	}
	resp, err := r.do(ctx, http.MethodPut, key, bytes.NewReader(data))
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("remote: PUT %s returned %d: %s", key, resp.StatusCode, body)
	}
	return nil
}
