package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/config"
	"github.com/pricewatch/pricewatch/internal/store/memory"
)

type fakeCrawlService struct {
	result  catalog.Result
	err     error
	targets []catalog.Target
}

func (s *fakeCrawlService) Crawl(_ context.Context, target catalog.Target) (catalog.Result, error) {
	s.targets = append(s.targets, target)
	if s.err != nil {
		return catalog.Result{}, s.err
	}
	return s.result, nil
}

func testConfig() config.Config {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}
	cfg.Crawler.TargetURL = "https://shop.example.com/catalog"
	return cfg
}

func newTestServer(t *testing.T, crawls *fakeCrawlService, cfg config.Config) *Server {
	t.Helper()
	return NewServer(crawls, memory.NewStore(), nil, cfg, zap.NewNop())
}

func TestRunCrawlSuccess(t *testing.T) {
	t.Parallel()

	crawls := &fakeCrawlService{result: catalog.Result{
		RunID:        "run-1",
		PagesVisited: 4,
		Records: []catalog.Record{
			{Title: "Blue Widget", Price: 19.99, ImagePath: "images/blue_widget.jpg"},
			{Title: "Red Widget", Price: 24.50, ImagePath: "images/red_widget.jpg"},
		},
	}}
	srv := newTestServer(t, crawls, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/v1/crawl", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp crawlResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "success", resp.Status)
	require.Equal(t, 2, resp.ProductsProcessed)
	require.Equal(t, 4, resp.PagesVisited)
	require.Equal(t, "run-1", resp.RunID)

	require.Len(t, crawls.targets, 1)
	require.Equal(t, "https://shop.example.com/catalog", crawls.targets[0].BaseURL)
}

func TestRunCrawlRequestOverrides(t *testing.T) {
	t.Parallel()

	crawls := &fakeCrawlService{}
	srv := newTestServer(t, crawls, testConfig())

	body := `{"url":"https://other.example.com/items","page_limit":2,"proxy":"http://proxy:3128"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, crawls.targets, 1)
	require.Equal(t, catalog.Target{
		BaseURL:   "https://other.example.com/items",
		PageLimit: 2,
		Proxy:     "http://proxy:3128",
	}, crawls.targets[0])
}

func TestRunCrawlNoTargetConfigured(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Crawler.TargetURL = ""
	srv := newTestServer(t, &fakeCrawlService{}, cfg)

	req := httptest.NewRequest(http.MethodPost, "/v1/crawl", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunCrawlErrorStatusMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{
			name: "fetch failure is a gateway error",
			err:  &catalog.CrawlError{Kind: catalog.KindFetch, Page: 2, Err: errors.New("status 503")},
			want: http.StatusBadGateway,
		},
		{
			name: "download failure is a gateway error",
			err:  &catalog.CrawlError{Kind: catalog.KindDownload, Page: 1, Err: errors.New("status 404")},
			want: http.StatusBadGateway,
		},
		{
			name: "store failure is internal",
			err:  &catalog.CrawlError{Kind: catalog.KindStore, Err: errors.New("disk full")},
			want: http.StatusInternalServerError,
		},
		{
			name: "cache failure is internal",
			err:  &catalog.CrawlError{Kind: catalog.KindCache, Page: 3, Err: errors.New("redis down")},
			want: http.StatusInternalServerError,
		},
		{
			name: "deadline maps to gateway timeout",
			err:  context.DeadlineExceeded,
			want: http.StatusGatewayTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newTestServer(t, &fakeCrawlService{err: tt.err}, testConfig())
			req := httptest.NewRequest(http.MethodPost, "/v1/crawl", nil)
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestListProducts(t *testing.T) {
	t.Parallel()

	products := memory.NewStore()
	require.NoError(t, products.SaveAll(context.Background(), []catalog.Record{
		{Title: "Blue Widget", Price: 19.99, ImagePath: "images/blue_widget.jpg"},
	}))
	srv := NewServer(&fakeCrawlService{}, products, nil, testConfig(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/v1/products", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Products []catalog.Record `json:"products"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	require.Equal(t, "Blue Widget", resp.Products[0].Title)
}

func TestBearerAuth(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Token = "secret-token"
	srv := newTestServer(t, &fakeCrawlService{}, cfg)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic secret-token", http.StatusUnauthorized},
		{"wrong token", "Bearer nope", http.StatusUnauthorized},
		{"valid token", "Bearer secret-token", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			req := httptest.NewRequest(http.MethodPost, "/v1/crawl", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rec, req)

			require.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestAuthDoesNotGateHealthEndpoints(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Token = "secret-token"
	srv := newTestServer(t, &fakeCrawlService{}, cfg)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestReadyzReportsFailure(t *testing.T) {
	t.Parallel()

	ready := func(context.Context) error { return errors.New("redis unreachable") }
	srv := NewServer(&fakeCrawlService{}, memory.NewStore(), ready, testConfig(), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeCrawlService{}, testConfig())
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestRunCrawlInvalidJSON(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, &fakeCrawlService{}, testConfig())
	req := httptest.NewRequest(http.MethodPost, "/v1/crawl", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
