// Package api exposes the HTTP interface for the crawl service.
package api

import (
	"bufio"
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pricewatch/pricewatch/internal/catalog"
	"github.com/pricewatch/pricewatch/internal/config"
	"github.com/pricewatch/pricewatch/internal/metrics"
)

// CrawlService runs a catalog crawl on demand.
type CrawlService interface {
	Crawl(ctx context.Context, target catalog.Target) (catalog.Result, error)
}

// Server wires HTTP handlers to the crawl service and product store.
type Server struct {
	router   chi.Router
	crawls   CrawlService
	products catalog.ProductStore
	ready    func(ctx context.Context) error
	cfg      config.Config
	logger   *zap.Logger
}

// NewServer constructs a Server with middleware and routes. The ready func
// probes downstream dependencies for /readyz and may be nil.
func NewServer(
	crawls CrawlService,
	products catalog.ProductStore,
	ready func(ctx context.Context) error,
	cfg config.Config,
	logger *zap.Logger,
) *Server {
	s := &Server{
		crawls:   crawls,
		products: products,
		ready:    ready,
		cfg:      cfg,
		logger:   logger,
	}
	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(loggingMiddleware(logger))
	r.Use(recoverMiddleware(logger))
	if cfg.Server.RequestTimeout > 0 {
		r.Use(timeoutMiddleware(time.Duration(cfg.Server.RequestTimeout) * time.Second))
	}

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		if cfg.Auth.Enabled {
			r.Use(bearerAuthMiddleware(cfg.Auth.Token, logger))
		}
		r.Post("/crawl", s.runCrawl)
		r.Get("/products", s.listProducts)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

type crawlRequest struct {
	URL       string `json:"url"`
	PageLimit *int   `json:"page_limit"`
	Proxy     string `json:"proxy"`
}

type crawlResponse struct {
	Status            string `json:"status"`
	ProductsProcessed int    `json:"products_processed"`
	PagesVisited      int    `json:"pages_visited"`
	RunID             string `json:"run_id"`
}

func (s *Server) runCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON")
			return
		}
	}

	target := catalog.Target{
		BaseURL:   req.URL,
		PageLimit: s.cfg.Crawler.PageLimit,
		Proxy:     req.Proxy,
	}
	if target.BaseURL == "" {
		target.BaseURL = s.cfg.Crawler.TargetURL
	}
	if target.BaseURL == "" {
		writeError(w, http.StatusBadRequest, "no target url configured or provided")
		return
	}
	if req.PageLimit != nil {
		target.PageLimit = *req.PageLimit
	}
	if target.Proxy == "" {
		target.Proxy = s.cfg.Crawler.Proxy
	}

	result, err := s.crawls.Crawl(r.Context(), target)
	if err != nil {
		s.logger.Error("crawl run failed", zap.Error(err))
		writeError(w, crawlErrorStatus(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, crawlResponse{
		Status:            "success",
		ProductsProcessed: len(result.Records),
		PagesVisited:      result.PagesVisited,
		RunID:             result.RunID,
	})
}

func (s *Server) listProducts(w http.ResponseWriter, r *http.Request) {
	records, err := s.products.LoadAll(r.Context())
	if err != nil {
		s.logger.Error("load products failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to load products")
		return
	}
	if records == nil {
		records = []catalog.Record{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": records, "count": len(records)})
}

// crawlErrorStatus maps run failures to HTTP statuses. Upstream failures
// (page fetches, image downloads) are gateway errors; everything else is
// internal.
func crawlErrorStatus(err error) int {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return http.StatusRequestTimeout
	}
	switch catalog.KindOf(err) {
	case catalog.KindFetch, catalog.KindDownload:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		w.Header().Set("X-Request-ID", reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func loggingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(ww, r)
			elapsed := time.Since(start)
			metrics.ObserveHTTPRequest(r.Method, routePattern(r), ww.status, elapsed)
			logger.Info("request completed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.status),
				zap.Int64("duration_ms", elapsed.Milliseconds()),
			)
		})
	}
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

func recoverMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rec := recover(); rec != nil {
					logger.Error("panic recovered", zap.Any("error", rec))
					writeError(w, http.StatusInternalServerError, "internal server error")
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

func timeoutMiddleware(d time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

func bearerAuthMiddleware(token string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			got, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.Warn("rejected request with invalid token",
					zap.String("path", r.URL.Path))
				writeError(w, http.StatusUnauthorized, "invalid or missing token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("write response: %w", err)
	}
	return n, nil
}

func (rw *responseWriter) Flush() {
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := rw.ResponseWriter.(http.Hijacker); ok {
		conn, buf, err := h.Hijack()
		if err != nil {
			return nil, nil, fmt.Errorf("hijack connection: %w", err)
		}
		return conn, buf, nil
	}
	return nil, nil, errors.New("hijacker not supported")
}

type requestIDKey struct{}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
