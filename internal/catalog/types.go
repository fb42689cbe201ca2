// Package catalog defines core types shared across subsystems.
package catalog

import "time"

// Target describes one catalog crawl. It is immutable for the duration of a run.
type Target struct {
	// BaseURL is the catalog listing URL; the page number is appended as a
	// query parameter per request.
	BaseURL string `json:"base_url"`
	// PageLimit caps the number of pages visited. Zero means no limit.
	PageLimit int `json:"page_limit,omitempty"`
	// Proxy optionally routes page fetches through an HTTP proxy.
	Proxy string `json:"proxy,omitempty"`
}

// Candidate is a product observation parsed from one catalog page. It has not
// yet been checked against the price cache.
type Candidate struct {
	Title    string
	Price    float64
	ImageURL string
}

// Record is a product whose price was new or changed, the unit of persistence.
// The JSON field names match the legacy products.json layout.
type Record struct {
	Title     string  `json:"product_title"`
	Price     float64 `json:"product_price"`
	ImagePath string  `json:"path_to_image"`
}

// Result is the outcome of one completed crawl run.
type Result struct {
	// Records holds accepted records in page order.
	Records []Record
	// PagesVisited counts pages fetched, including a final empty page.
	PagesVisited int
	// RunID identifies the run in logs and notifications.
	RunID string
	// Started and Finished bound the run wall-clock time.
	Started  time.Time
	Finished time.Time
}

// RunStatus is the terminal state reported for a crawl run.
type RunStatus string

// Run statuses reported via metrics and the API.
const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
	RunCanceled  RunStatus = "canceled"
)
