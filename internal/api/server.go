// Package api serves viewing-distance analyses over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/camreach/internal/analysis"
	"github.com/banshee-data/camreach/internal/monitoring"
	"github.com/banshee-data/camreach/internal/store"
	"github.com/banshee-data/camreach/internal/units"
)

// ANSI escape codes for status colouring in request logs.
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

var logf = monitoring.Component("http")

// Server holds the handlers' shared dependencies.
type Server struct {
	analyzer *analysis.Analyzer
	store    *store.Store
	units    string
	workers  int
}

// Option configures a Server.
type Option func(*Server)

// WithStore persists every batch request to st.
func WithStore(st *store.Store) Option {
	return func(s *Server) { s.store = st }
}

// WithUnits sets the default distance unit for tables and charts.
func WithUnits(unit string) Option {
	return func(s *Server) { s.units = unit }
}

// WithWorkers bounds the batch worker pool.
func WithWorkers(n int) Option {
	return func(s *Server) { s.workers = n }
}

// NewServer returns a Server for analyzer.
func NewServer(analyzer *analysis.Analyzer, opts ...Option) *Server {
	s := &Server{analyzer: analyzer, units: units.Meters}
	for _, o := range opts {
		o(s)
	}
	return s
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		logf("[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the route table.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/analyze", s.handleAnalyze)
	mux.HandleFunc("/api/batch", s.handleBatch)
	mux.HandleFunc("/api/runs", s.handleListRuns)
	mux.HandleFunc("/api/runs/{id}", s.handleGetRun)
	mux.HandleFunc("/api/version", s.handleVersion)
	mux.HandleFunc("/charts/reach", s.handleReachChart)
	mux.HandleFunc("/strip.svg", s.handleStrip)
	return mux
}

// Handler is ServeMux wrapped in LoggingMiddleware.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.ServeMux())
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logf("listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logf("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logf("HTTP server shutdown error: %v", err)
		if err := server.Close(); err != nil {
			logf("HTTP server force close error: %v", err)
		}
	}
	return nil
}
