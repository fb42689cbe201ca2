package catalog

import (
	"errors"
	"fmt"
)

// ErrorKind classifies run failures so callers can tell transient network
// trouble from persistence or configuration problems.
type ErrorKind string

// Error kinds carried by CrawlError.
const (
	KindFetch    ErrorKind = "fetch"
	KindDownload ErrorKind = "download"
	KindCache    ErrorKind = "cache"
	KindStore    ErrorKind = "store"
	KindNotify   ErrorKind = "notify"
)

// FetchError reports a page fetch that failed after the full retry budget.
type FetchError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// DownloadError reports a failed image download or sink write.
type DownloadError struct {
	URL  string
	Path string
	Err  error
}

func (e *DownloadError) Error() string {
	return fmt.Sprintf("download image %s to %s: %v", e.URL, e.Path, e.Err)
}

func (e *DownloadError) Unwrap() error { return e.Err }

// CrawlError wraps any unrecovered failure at the run boundary.
type CrawlError struct {
	Kind ErrorKind
	Page int
	Err  error
}

func (e *CrawlError) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("crawl failed on page %d (%s): %v", e.Page, e.Kind, e.Err)
	}
	return fmt.Sprintf("crawl failed (%s): %v", e.Kind, e.Err)
}

func (e *CrawlError) Unwrap() error { return e.Err }

// KindOf extracts the error kind from err, or empty if it is not a CrawlError.
func KindOf(err error) ErrorKind {
	var ce *CrawlError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return ""
}
