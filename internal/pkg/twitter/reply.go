package twitter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ReplyClient posts a reply tweet under one user context
type ReplyClient struct {
	creds      oauth1Credentials
	BaseURL    string
	HTTPClient *http.Client
}

// NewReplyClient creates a posting client for one account in the rotation pool
func NewReplyClient(consumerKey, consumerSecret, accessToken, accessTokenSecret string) *ReplyClient {
	return &ReplyClient{
		creds: oauth1Credentials{
			ConsumerKey:    consumerKey,
			ConsumerSecret: consumerSecret,
			Token:          accessToken,
			TokenSecret:    accessTokenSecret,
		},
		BaseURL: apiBaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type createTweetRequest struct {
	Text  string `json:"text"`
	Reply *struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	} `json:"reply,omitempty"`
}

type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
}

// CreateReply posts text as a reply to the given tweet and returns the new
// tweet's ID
func (c *ReplyClient) CreateReply(ctx context.Context, text, inReplyToTweetID string) (string, error) {
	payload := createTweetRequest{Text: text}
	payload.Reply = &struct {
		InReplyToTweetID string `json:"in_reply_to_tweet_id"`
	}{InReplyToTweetID: inReplyToTweetID}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	endpoint := c.BaseURL + "/tweets"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	auth, err := c.creds.authorizationHeader(http.MethodPost, endpoint)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("create tweet request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("create tweet returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var result createTweetResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return "", fmt.Errorf("decode create tweet response: %w", err)
	}
	if result.Data.ID == "" {
		return "", fmt.Errorf("no response data from Twitter API")
	}
	return result.Data.ID, nil
}
