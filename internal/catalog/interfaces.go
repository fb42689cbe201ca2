package catalog

import (
	"context"
	"time"
)

// Fetcher retrieves the raw content of a single catalog page. Implementations
// own their retry policy; an error means the page is unrecoverable.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Parser extracts product candidates from raw page content. Malformed items
// are skipped, never surfaced; an empty slice signals catalog exhaustion.
type Parser interface {
	Parse(page []byte) []Candidate
}

// Filter decides whether a candidate is new or changed. On acceptance it
// updates the price cache and stores the product image as a side effect.
type Filter interface {
	Accept(ctx context.Context, c Candidate) (Record, bool, error)
}

// PriceCache maps a product title to its last persisted price. Entries
// survive across runs.
type PriceCache interface {
	Get(ctx context.Context, title string) (float64, bool, error)
	Set(ctx context.Context, title string, price float64) error
}

// ProductStore persists the full record set of a run. SaveAll replaces any
// previous contents and must tolerate an empty slice.
type ProductStore interface {
	SaveAll(ctx context.Context, records []Record) error
	LoadAll(ctx context.Context) ([]Record, error)
}

// Notifier delivers a best-effort completion message.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ImageSink writes downloaded image bytes under a relative path.
type ImageSink interface {
	Write(ctx context.Context, path string, data []byte) error
}

// Downloader fetches image bytes from a URL.
type Downloader interface {
	Download(ctx context.Context, url string) ([]byte, error)
}

// Clock returns the current time (useful for testing).
type Clock interface {
	Now() time.Time
}

// SystemClock implements Clock with the real time.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }
