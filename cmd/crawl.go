package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
)

func newCrawlCmd() *cobra.Command {
	var (
		targetURL string
		pageLimit int
		proxy     string
	)

	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Runs one catalog crawl and exits",
		Long: `Walks the configured catalog from page 1 until it is exhausted or the
page limit is reached, persists the accepted products, and exits. Flags
override the corresponding configuration values for this run only.`,

		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := resolveRuntime(cmd.Context())
			if err != nil {
				return err
			}

			target := catalog.Target{
				BaseURL:   rt.cfg.Crawler.TargetURL,
				PageLimit: rt.cfg.Crawler.PageLimit,
				Proxy:     rt.cfg.Crawler.Proxy,
			}
			if targetURL != "" {
				target.BaseURL = targetURL
			}
			if cmd.Flags().Changed("page-limit") {
				target.PageLimit = pageLimit
			}
			if proxy != "" {
				target.Proxy = proxy
			}
			if target.BaseURL == "" {
				return errors.New("no target url configured; set crawler.target_url or pass --url")
			}

			result, err := rt.app.Crawl(cmd.Context(), target)
			if err != nil {
				if errors.Is(err, context.Canceled) {
					rt.logger.Info("crawl interrupted")
					return nil
				}
				return fmt.Errorf("run crawl: %w", err)
			}

			rt.logger.Info("crawl command finished",
				zap.String("run_id", result.RunID),
				zap.Int("pages_visited", result.PagesVisited),
				zap.Int("products_processed", len(result.Records)),
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetURL, "url", "", "catalog base URL to crawl")
	cmd.Flags().IntVar(&pageLimit, "page-limit", 0, "maximum pages to visit (0 means unlimited)")
	cmd.Flags().StringVar(&proxy, "proxy", "", "proxy URL for page fetches")

	return cmd
}
