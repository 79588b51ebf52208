package photosync

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Downloader fetches the remote image bytes for a coin
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// HTTPDownloader implements Downloader over plain HTTP
type HTTPDownloader struct {
	HTTPClient *http.Client
}

// NewHTTPDownloader creates a downloader with a 30 second timeout
func NewHTTPDownloader() *HTTPDownloader {
	return &HTTPDownloader{
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Download fetches the URL and returns the body bytes
func (d *HTTPDownloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
