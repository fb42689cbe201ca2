// Package fetcher retrieves catalog pages using gocolly with a fixed retry budget.
package fetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/metrics"
)

// Config controls fetch behavior. Every failure is retried identically up to
// MaxAttempts; there is no retryable/permanent distinction.
type Config struct {
	UserAgent   string
	MaxAttempts int
	RetryDelay  time.Duration
	Timeout     time.Duration
	Proxy       string
}

// Fetcher implements catalog.Fetcher using a Colly collector.
type Fetcher struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
}

// New builds a Fetcher.
func New(cfg Config, logger *zap.Logger) (*Fetcher, error) {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	c := colly.NewCollector(colly.Async(false))
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.IgnoreRobotsTxt = true
	// Clones share the visited-URL store; retries revisit the same URL.
	c.AllowURLRevisit = true
	c.SetRequestTimeout(cfg.Timeout)
	c.WithTransport(newHTTPTransport())

	if cfg.Proxy != "" {
		if err := c.SetProxy(cfg.Proxy); err != nil {
			return nil, fmt.Errorf("set proxy %s: %w", cfg.Proxy, err)
		}
	}

	return &Fetcher{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}, nil
}

// Fetch retrieves one page, retrying after a fixed delay until the attempt
// budget is spent. The final failure is returned as *catalog.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= f.cfg.MaxAttempts; attempt++ {
		body, err := f.fetchOnce(ctx, url)
		if err == nil {
			metrics.ObservePageFetch("success")
			return body, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
		}
		if attempt == f.cfg.MaxAttempts {
			break
		}

		f.logger.Warn("page fetch failed, retrying",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", f.cfg.MaxAttempts),
			zap.Error(err),
		)
		metrics.ObserveFetchRetry()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("fetch canceled: %w", ctx.Err())
		case <-time.After(f.cfg.RetryDelay):
		}
	}

	metrics.ObservePageFetch("failure")
	return nil, &catalog.FetchError{URL: url, Attempts: f.cfg.MaxAttempts, Err: lastErr}
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, error) {
	var (
		body     []byte
		fetchErr error
	)

	collector := f.baseCollector.Clone()
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
	})
	collector.OnError(func(_ *colly.Response, err error) {
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return nil, fmt.Errorf("colly visit failed: %w", err)
		}
		if fetchErr != nil {
			return nil, fmt.Errorf("colly response failed: %w", fetchErr)
		}
		return body, nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
