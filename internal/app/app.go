// Package app wires configuration into concrete crawl components.
package app

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/cache/memory"
	rediscache "github.com/pricewatch/pricewatch/internal/cache/redis"
	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/config"
	"github.com/pricewatch/pricewatch/internal/crawl"
	"github.com/pricewatch/pricewatch/internal/fetcher"
	"github.com/pricewatch/pricewatch/internal/filter"
	"github.com/pricewatch/pricewatch/internal/images/downloader"
	gcssink "github.com/pricewatch/pricewatch/internal/images/gcs"
	localsink "github.com/pricewatch/pricewatch/internal/images/local"
	consolenotify "github.com/pricewatch/pricewatch/internal/notify/console"
	pubsubnotify "github.com/pricewatch/pricewatch/internal/notify/pubsub"
	webhooknotify "github.com/pricewatch/pricewatch/internal/notify/webhook"
	"github.com/pricewatch/pricewatch/internal/parser"
	filestore "github.com/pricewatch/pricewatch/internal/store/file"
	memstore "github.com/pricewatch/pricewatch/internal/store/memory"
	pgstore "github.com/pricewatch/pricewatch/internal/store/postgres"
)

// App owns the long-lived crawl dependencies selected by configuration. The
// page fetcher is built per run so request-level options like the proxy can
// differ between runs.
type App struct {
	cfg    config.Config
	logger *zap.Logger

	cache      catalog.PriceCache
	store      catalog.ProductStore
	notifier   catalog.Notifier
	sink       catalog.ImageSink
	downloader catalog.Downloader
	parser     catalog.Parser

	redisCache *rediscache.Cache
	pgStore    *pgstore.Store
	pubsubNtf  *pubsubnotify.Notifier
	gcsClient  *storage.Client
}

// New builds an App from config, connecting to the selected backends.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, logger: logger}

	if err := a.buildCache(); err != nil {
		return nil, err
	}
	if err := a.buildStore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.buildNotifier(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.buildImages(ctx); err != nil {
		a.Close()
		return nil, err
	}

	a.downloader = downloader.New(cfg.FetchTimeout(), cfg.Crawler.UserAgent)
	a.parser = parser.New(parser.Selectors{
		Item:      cfg.Crawler.Selectors.Item,
		Title:     cfg.Crawler.Selectors.Title,
		Price:     cfg.Crawler.Selectors.Price,
		Image:     cfg.Crawler.Selectors.Image,
		ImageAttr: cfg.Crawler.Selectors.ImageAttr,
	}, logger)

	return a, nil
}

func (a *App) buildCache() error {
	switch a.cfg.Cache.Backend {
	case "redis":
		c := rediscache.New(rediscache.Config{
			Addr:      a.cfg.Cache.Redis.Addr,
			Password:  a.cfg.Cache.Redis.Password,
			DB:        a.cfg.Cache.Redis.DB,
			KeyPrefix: a.cfg.Cache.Redis.KeyPrefix,
		})
		a.redisCache = c
		a.cache = c
	case "memory":
		c, err := memory.New(a.cfg.Cache.Memory.Size)
		if err != nil {
			return fmt.Errorf("build memory cache: %w", err)
		}
		a.cache = c
	default:
		return fmt.Errorf("unknown cache backend: %s", a.cfg.Cache.Backend)
	}
	return nil
}

func (a *App) buildStore(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case "file":
		a.store = filestore.New(a.cfg.Store.File.Path)
	case "memory":
		a.store = memstore.NewStore()
	case "postgres":
		s, err := pgstore.New(ctx, pgstore.Config{
			DSN:   a.cfg.Store.Postgres.DSN,
			Table: a.cfg.Store.Postgres.Table,
		}, a.logger)
		if err != nil {
			return fmt.Errorf("build postgres store: %w", err)
		}
		a.pgStore = s
		a.store = s
	default:
		return fmt.Errorf("unknown store backend: %s", a.cfg.Store.Backend)
	}
	return nil
}

func (a *App) buildNotifier(ctx context.Context) error {
	switch a.cfg.Notify.Backend {
	case "console":
		a.notifier = consolenotify.New(a.logger)
	case "webhook":
		n, err := webhooknotify.New(
			a.cfg.Notify.Webhook.URL,
			secondsToDuration(a.cfg.Notify.Webhook.TimeoutSeconds),
		)
		if err != nil {
			return fmt.Errorf("build webhook notifier: %w", err)
		}
		a.notifier = n
	case "pubsub":
		n, err := pubsubnotify.New(ctx, pubsubnotify.Config{
			ProjectID: a.cfg.Notify.PubSub.ProjectID,
			TopicID:   a.cfg.Notify.PubSub.TopicID,
		})
		if err != nil {
			return fmt.Errorf("build pubsub notifier: %w", err)
		}
		a.pubsubNtf = n
		a.notifier = n
	default:
		return fmt.Errorf("unknown notify backend: %s", a.cfg.Notify.Backend)
	}
	return nil
}

func (a *App) buildImages(ctx context.Context) error {
	switch a.cfg.Images.Backend {
	case "local":
		s, err := localsink.New(a.cfg.Images.Dir)
		if err != nil {
			return fmt.Errorf("build local image sink: %w", err)
		}
		a.sink = s
	case "gcs":
		client, err := storage.NewClient(ctx)
		if err != nil {
			return fmt.Errorf("create storage client: %w", err)
		}
		s, err := gcssink.New(client, a.cfg.Images.GCSBucket)
		if err != nil {
			_ = client.Close()
			return fmt.Errorf("build gcs image sink: %w", err)
		}
		a.gcsClient = client
		a.sink = s
	default:
		return fmt.Errorf("unknown images backend: %s", a.cfg.Images.Backend)
	}
	return nil
}

// Crawl runs one crawl against the target, assembling a fresh fetcher and
// orchestrator around the long-lived backends.
func (a *App) Crawl(ctx context.Context, target catalog.Target) (catalog.Result, error) {
	f, err := fetcher.New(fetcher.Config{
		UserAgent:   a.cfg.Crawler.UserAgent,
		MaxAttempts: a.cfg.Crawler.MaxAttempts,
		RetryDelay:  a.cfg.RetryDelay(),
		Timeout:     a.cfg.FetchTimeout(),
		Proxy:       target.Proxy,
	}, a.logger)
	if err != nil {
		return catalog.Result{}, fmt.Errorf("build fetcher: %w", err)
	}

	changes := filter.New(a.cache, a.downloader, a.sink, a.logger)
	orch := crawl.New(f, a.parser, changes, a.store, a.notifier, nil, a.logger)
	return orch.Run(ctx, target)
}

// Products returns the persisted product store.
func (a *App) Products() catalog.ProductStore {
	return a.store
}

// Ready probes the connected backends.
func (a *App) Ready(ctx context.Context) error {
	if a.redisCache != nil {
		if err := a.redisCache.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases all backend connections. Safe to call on a partially built App.
func (a *App) Close() {
	if a.redisCache != nil {
		if err := a.redisCache.Close(); err != nil {
			a.logger.Warn("close redis cache", zap.Error(err))
		}
	}
	if a.pgStore != nil {
		a.pgStore.Close()
	}
	if a.pubsubNtf != nil {
		if err := a.pubsubNtf.Close(); err != nil {
			a.logger.Warn("close pubsub notifier", zap.Error(err))
		}
	}
	if a.gcsClient != nil {
		if err := a.gcsClient.Close(); err != nil {
			a.logger.Warn("close storage client", zap.Error(err))
		}
	}
}

func secondsToDuration(s int) time.Duration {
	return time.Duration(s) * time.Second
}
