package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the Strava v3 API root.
const DefaultBaseURL = "https://www.strava.com/api/v3"

// Activity is the summary representation returned by /athlete/activities.
type Activity struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Type        string    `json:"type"`
	SportType   string    `json:"sport_type"`
	Distance    float64   `json:"distance"`
	MovingTime  int       `json:"moving_time"`
	ElapsedTime int       `json:"elapsed_time"`
	StartDate   time.Time `json:"start_date"`
	Calories    *float64  `json:"calories,omitempty"`
	Kilojoules  *float64  `json:"kilojoules,omitempty"`
	Description string    `json:"description,omitempty"`
}

// ClientSource yields an authorized HTTP client. *Auth satisfies it.
type ClientSource interface {
	HTTPClient(ctx context.Context) (*http.Client, error)
}

// Client calls the Strava REST API.
type Client struct {
	baseURL string
	source  ClientSource
}

// NewClient creates a Client. An empty baseURL means DefaultBaseURL.
func NewClient(source ClientSource, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), source: source}
}

// ListActivities fetches one page of activities that started after since.
// Pages are 1-based.
func (c *Client) ListActivities(ctx context.Context, since time.Time, page, perPage int) ([]Activity, error) {
	httpClient, err := c.source.HTTPClient(ctx)
	if err != nil {
		return nil, err
	}

	params := url.Values{}
	if !since.IsZero() {
		params.Set("after", strconv.FormatInt(since.Unix(), 10))
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("per_page", strconv.Itoa(perPage))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/athlete/activities?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("strava: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("strava: list activities: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("strava: read body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("strava: list activities returned %d: %s", resp.StatusCode, body)
	}

	var activities []Activity
	if err := json.Unmarshal(body, &activities); err != nil {
		return nil, fmt.Errorf("strava: decode activities: %w", err)
	}
	return activities, nil
}
