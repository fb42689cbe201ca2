// Package filter decides which candidates are new or price-changed.
package filter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/metrics"
)

// ChangeFilter implements catalog.Filter against a price cache. Accepting a
// candidate updates the cache and stores the product image.
//
// The cache lookup-then-update is not atomic; running two crawls against the
// same cache concurrently is an unsupported precondition, not a handled case.
type ChangeFilter struct {
	cache      catalog.PriceCache
	downloader catalog.Downloader
	sink       catalog.ImageSink
	logger     *zap.Logger
}

// New constructs a ChangeFilter.
func New(
	cache catalog.PriceCache,
	downloader catalog.Downloader,
	sink catalog.ImageSink,
	logger *zap.Logger,
) *ChangeFilter {
	return &ChangeFilter{
		cache:      cache,
		downloader: downloader,
		sink:       sink,
		logger:     logger,
	}
}

// Accept compares the candidate's price against the cached one. Unseen titles
// and changed prices are accepted; equal prices are rejected with no side
// effects. Acceptance updates the cache and downloads the image into a path
// derived from the title; a failed download surfaces as *catalog.DownloadError.
func (f *ChangeFilter) Accept(ctx context.Context, c catalog.Candidate) (catalog.Record, bool, error) {
	cached, found, err := f.cache.Get(ctx, c.Title)
	if err != nil {
		return catalog.Record{}, false, fmt.Errorf("price lookup for %q: %w", c.Title, err)
	}
	if found && cached == c.Price {
		return catalog.Record{}, false, nil
	}

	path := ImagePath(c.Title)

	if err := f.cache.Set(ctx, c.Title, c.Price); err != nil {
		return catalog.Record{}, false, fmt.Errorf("price update for %q: %w", c.Title, err)
	}

	start := time.Now()
	data, err := f.downloader.Download(ctx, c.ImageURL)
	if err != nil {
		return catalog.Record{}, false, &catalog.DownloadError{URL: c.ImageURL, Path: path, Err: err}
	}
	if err := f.sink.Write(ctx, path, data); err != nil {
		return catalog.Record{}, false, &catalog.DownloadError{URL: c.ImageURL, Path: path, Err: err}
	}
	metrics.ObserveImageDownload(time.Since(start))
	metrics.ObserveRecordAccepted()

	f.logger.Debug("candidate accepted",
		zap.String("title", c.Title),
		zap.Float64("price", c.Price),
		zap.Bool("previously_seen", found),
	)

	return catalog.Record{
		Title:     c.Title,
		Price:     c.Price,
		ImagePath: path,
	}, true, nil
}

// ImagePath derives the deterministic local image path for a product title:
// lowercased, spaces replaced with underscores, under images/ with a fixed
// .jpg extension.
func ImagePath(title string) string {
	name := strings.ReplaceAll(strings.ToLower(title), " ", "_")
	return "images/" + name + ".jpg"
}
