package twitter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const apiBaseURL = "https://api.twitter.com/2"

// Client is a thin wrapper around the Twitter API v2 recent-search endpoint,
// authenticated with an app bearer token
type Client struct {
	BearerToken string
	BaseURL     string
	HTTPClient  *http.Client
}

// NewClient creates a search client
func NewClient(bearerToken string) *Client {
	return &Client{
		BearerToken: bearerToken,
		BaseURL:     apiBaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SearchRecent runs a recent-search query with the media/user expansions the
// ingestion worker needs. sinceID may be empty on the first poll.
func (c *Client) SearchRecent(ctx context.Context, query, sinceID string) (*SearchResult, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("max_results", "25")
	params.Set("tweet.fields", "created_at,author_id,attachments")
	params.Set("expansions", "attachments.media_keys,author_id")
	params.Set("media.fields", "url,type")
	params.Set("user.fields", "username,public_metrics,profile_image_url,name")
	if sinceID != "" {
		params.Set("since_id", sinceID)
	}

	endpoint := fmt.Sprintf("%s/tweets/search/recent?%s", c.BaseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.BearerToken)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var result SearchResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return &result, nil
}
