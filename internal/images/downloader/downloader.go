// Package downloader retrieves product images over HTTP.
package downloader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single image download when none is configured.
const DefaultTimeout = 30 * time.Second

// MaxImageBytes caps a single download to guard against runaway responses.
const MaxImageBytes = 32 << 20

// Downloader fetches image bytes with a plain HTTP client. The crawl page
// fetcher handles retries; image downloads are single-shot, and any failure
// aborts the run.
type Downloader struct {
	client    *http.Client
	userAgent string
}

// New builds a Downloader with its own HTTP client.
func New(timeout time.Duration, userAgent string) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Downloader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// NewWithClient builds a Downloader over an existing client (used in tests).
func NewWithClient(client *http.Client, userAgent string) *Downloader {
	return &Downloader{client: client, userAgent: userAgent}
}

// Download fetches the image at url and returns its bytes.
func (d *Downloader) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build image request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image request returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("read image body: %w", err)
	}
	return data, nil
}
