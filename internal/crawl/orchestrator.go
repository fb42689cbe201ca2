// Package crawl drives the pagination loop over a catalog target.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/metrics"
)

// Orchestrator runs one crawl: fetch page N, parse it, filter candidates,
// advance to N+1, and stop on an empty page or the configured page limit.
// Persistence and notification happen only after the loop completes.
type Orchestrator struct {
	fetcher  catalog.Fetcher
	parser   catalog.Parser
	filter   catalog.Filter
	store    catalog.ProductStore
	notifier catalog.Notifier
	clock    catalog.Clock
	logger   *zap.Logger
}

// New constructs an Orchestrator.
func New(
	fetcher catalog.Fetcher,
	parser catalog.Parser,
	filter catalog.Filter,
	store catalog.ProductStore,
	notifier catalog.Notifier,
	clock catalog.Clock,
	logger *zap.Logger,
) *Orchestrator {
	if clock == nil {
		clock = catalog.SystemClock{}
	}
	return &Orchestrator{
		fetcher:  fetcher,
		parser:   parser,
		filter:   filter,
		store:    store,
		notifier: notifier,
		clock:    clock,
		logger:   logger,
	}
}

// Run crawls the target from page 1 until exhaustion or the page limit. Any
// unrecovered fetch or filter failure aborts the whole run with
// *catalog.CrawlError and nothing is persisted. A re-run over an unchanged
// catalog with a warm cache accepts zero candidates but still walks every page.
func (o *Orchestrator) Run(ctx context.Context, target catalog.Target) (catalog.Result, error) {
	runID := uuid.NewString()
	logger := o.logger.With(zap.String("run_id", runID))

	result := catalog.Result{
		RunID:   runID,
		Started: o.clock.Now(),
	}

	logger.Info("crawl starting",
		zap.String("base_url", target.BaseURL),
		zap.Int("page_limit", target.PageLimit),
	)

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			metrics.ObserveRun(string(catalog.RunCanceled))
			return catalog.Result{}, fmt.Errorf("crawl canceled: %w", err)
		}
		if target.PageLimit > 0 && page > target.PageLimit {
			logger.Info("page limit reached", zap.Int("page_limit", target.PageLimit))
			break
		}

		pageURL, err := buildPageURL(target.BaseURL, page)
		if err != nil {
			metrics.ObserveRun(string(catalog.RunFailed))
			return catalog.Result{}, &catalog.CrawlError{Kind: catalog.KindFetch, Page: page, Err: err}
		}

		raw, err := o.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			if ctx.Err() != nil {
				metrics.ObserveRun(string(catalog.RunCanceled))
				return catalog.Result{}, fmt.Errorf("crawl canceled: %w", ctx.Err())
			}
			metrics.ObserveRun(string(catalog.RunFailed))
			return catalog.Result{}, &catalog.CrawlError{Kind: catalog.KindFetch, Page: page, Err: err}
		}
		result.PagesVisited++

		candidates := o.parser.Parse(raw)
		if len(candidates) == 0 {
			// Zero raw candidates means the catalog is exhausted. A page of
			// all-unchanged prices still advances to the next page.
			logger.Info("catalog exhausted", zap.Int("page", page))
			break
		}

		for _, c := range candidates {
			record, accepted, err := o.filter.Accept(ctx, c)
			if err != nil {
				if ctx.Err() != nil {
					metrics.ObserveRun(string(catalog.RunCanceled))
					return catalog.Result{}, fmt.Errorf("crawl canceled: %w", ctx.Err())
				}
				metrics.ObserveRun(string(catalog.RunFailed))
				return catalog.Result{}, &catalog.CrawlError{Kind: filterErrorKind(err), Page: page, Err: err}
			}
			if accepted {
				result.Records = append(result.Records, record)
			}
		}

		logger.Debug("page processed",
			zap.Int("page", page),
			zap.Int("candidates", len(candidates)),
			zap.Int("accepted_so_far", len(result.Records)),
		)
	}

	if err := o.store.SaveAll(ctx, result.Records); err != nil {
		metrics.ObserveRun(string(catalog.RunFailed))
		return catalog.Result{}, &catalog.CrawlError{Kind: catalog.KindStore, Err: err}
	}

	message := fmt.Sprintf("crawl completed: %d records processed", len(result.Records))
	if err := o.notifier.Notify(ctx, message); err != nil {
		// Persistence already happened; a notification failure must not turn
		// a successful run into a failed one.
		logger.Warn("completion notification failed", zap.Error(err))
	}

	result.Finished = o.clock.Now()
	metrics.ObserveRun(string(catalog.RunSucceeded))
	logger.Info("crawl finished",
		zap.Int("pages_visited", result.PagesVisited),
		zap.Int("records", len(result.Records)),
		zap.Duration("elapsed", result.Finished.Sub(result.Started)),
	)

	return result, nil
}

// buildPageURL appends the page number as a query parameter, preserving any
// query already present on the base URL.
func buildPageURL(base string, page int) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	q := u.Query()
	q.Set("page", strconv.Itoa(page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func filterErrorKind(err error) catalog.ErrorKind {
	var de *catalog.DownloadError
	if errors.As(err, &de) {
		return catalog.KindDownload
	}
	return catalog.KindCache
}
