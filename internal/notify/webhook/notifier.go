// Package webhook posts run notifications to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a notification delivery when none is configured.
const DefaultTimeout = 10 * time.Second

// Notifier delivers completion messages as JSON POST requests.
type Notifier struct {
	url    string
	client *http.Client
}

type payload struct {
	Message string `json:"message"`
}

// New builds a Notifier posting to url.
func New(url string, timeout time.Duration) (*Notifier, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook url is required")
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Notifier{
		url:    url,
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Notify posts the message, treating any non-2xx response as failure.
func (n *Notifier) Notify(ctx context.Context, message string) error {
	body, err := json.Marshal(payload{Message: message})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
