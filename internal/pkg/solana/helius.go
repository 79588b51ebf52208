package solana

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

const heliusMetadataURL = "https://api.helius.xyz/v0/token-metadata"

// MetadataClient resolves token symbols through the Helius token-metadata API.
// It reuses the API key embedded in the RPC URL; without one every lookup
// returns empty.
type MetadataClient struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// NewMetadataClient creates a metadata client from a Helius RPC URL
func NewMetadataClient(rpcURL string) *MetadataClient {
	return &MetadataClient{
		APIKey:  apiKeyFromRPCURL(rpcURL),
		BaseURL: heliusMetadataURL,
		HTTPClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func apiKeyFromRPCURL(rpcURL string) string {
	const marker = "api-key="
	idx := strings.Index(rpcURL, marker)
	if idx < 0 {
		return ""
	}
	key := rpcURL[idx+len(marker):]
	if amp := strings.IndexByte(key, '&'); amp >= 0 {
		key = key[:amp]
	}
	return key
}

type metadataEntry struct {
	OnChainMetadata struct {
		Metadata struct {
			Data struct {
				Symbol string `json:"symbol"`
			} `json:"data"`
		} `json:"metadata"`
	} `json:"onChainMetadata"`
	OffChainMetadata struct {
		Metadata struct {
			Symbol string `json:"symbol"`
		} `json:"metadata"`
	} `json:"offChainMetadata"`
}

// TokenSymbol returns the symbol for a mint, preferring on-chain metadata.
// An empty string means the symbol could not be resolved.
func (c *MetadataClient) TokenSymbol(ctx context.Context, mint string) (string, error) {
	if c.APIKey == "" {
		return "", nil
	}

	payload, err := json.Marshal(map[string]any{
		"mintAccounts":    []string{mint},
		"includeOffChain": true,
		"disableCache":    false,
	})
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s?api-key=%s", c.BaseURL, c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("metadata request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("metadata returned status %d: %s", resp.StatusCode, string(body))
	}

	var entries []metadataEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return "", fmt.Errorf("decode metadata response: %w", err)
	}
	if len(entries) == 0 {
		return "", nil
	}

	if symbol := strings.TrimSpace(entries[0].OnChainMetadata.Metadata.Data.Symbol); symbol != "" {
		return symbol, nil
	}
	return strings.TrimSpace(entries[0].OffChainMetadata.Metadata.Symbol), nil
}
