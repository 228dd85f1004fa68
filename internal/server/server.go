// Package server exposes the article service over HTTP.
package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/crossref"
	"github.com/matsen/artman/internal/ingest"
	"github.com/matsen/artman/internal/logging"
)

// DefaultMaxUploadBytes bounds request bodies when no limit is configured.
const DefaultMaxUploadBytes = 20 << 20

// multipartMemory is how much of a multipart body is buffered in memory
// before spilling to temp files.
const multipartMemory = 8 << 20

// Articles is the ingestion surface the handlers call.
type Articles interface {
	ListArticles(ctx context.Context, search string) ([]article.Article, error)
	GetArticle(ctx context.Context, id string) (article.Article, error)
	CreateArticle(ctx context.Context, f article.Fields, up *ingest.Upload) (article.Article, error)
	ExtractSummary(ctx context.Context, up *ingest.Upload) (ingest.ExtractResult, error)
	LookupDOI(ctx context.Context, doi string) (crossref.Metadata, error)
	OpenFile(ctx context.Context, ref string) (io.ReadCloser, error)
	DeleteArticle(ctx context.Context, id string) (ingest.DeleteResult, error)
}

// Options configures the HTTP surface.
type Options struct {
	MaxUploadBytes int64
	CORSOrigin     string // "*" allows any origin, "" sends no CORS headers
}

// Server routes HTTP requests to the ingestion coordinator.
type Server struct {
	articles Articles
	opts     Options
	logger   *slog.Logger
	router   *mux.Router
}

// New creates a Server with all routes registered.
func New(articles Articles, opts Options, logger *slog.Logger) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if logger == nil {
		logger = logging.Discard()
	}

	s := &Server{
		articles: articles,
		opts:     opts,
		logger:   logger.With("component", "http"),
		router:   mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(s.recoverPanics, s.logRequests, s.cors, s.limitBody)

	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api/articles").Subrouter()
	api.HandleFunc("", s.listHandler).Methods(http.MethodGet)
	api.HandleFunc("", s.createHandler).Methods(http.MethodPost)
	api.HandleFunc("/extract-summary", s.extractSummaryHandler).Methods(http.MethodPost)
	api.HandleFunc("/fetch-doi", s.fetchDOIHandler).Methods(http.MethodPost)
	api.HandleFunc("/download/{ref}", s.downloadHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.getHandler).Methods(http.MethodGet)
	api.HandleFunc("/{id}", s.deleteHandler).Methods(http.MethodDelete)

	// Inline view of uploads, as served statically before downloads existed.
	r.HandleFunc("/uploads/{ref}", s.viewHandler).Methods(http.MethodGet)

	// Preflight requests for any route
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
