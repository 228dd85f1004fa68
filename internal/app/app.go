// Package app wires configuration to stores, enrichment clients and the
// ingestion coordinator.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/matsen/artman/internal/blob"
	"github.com/matsen/artman/internal/config"
	"github.com/matsen/artman/internal/crossref"
	"github.com/matsen/artman/internal/extract"
	"github.com/matsen/artman/internal/ingest"
	"github.com/matsen/artman/internal/logging"
	"github.com/matsen/artman/internal/server"
	"github.com/matsen/artman/internal/snapshot"
	"github.com/matsen/artman/internal/storage"
	"github.com/matsen/artman/internal/summarize"
)

// Application holds the wired components of a running service.
type Application struct {
	Config      *config.Config
	Logger      *slog.Logger
	Store       storage.Store
	Blobs       blob.Store
	Coordinator *ingest.Coordinator
	Snapshots   *snapshot.Snapshotter

	closeOnce sync.Once
	closeErr  error
}

// New builds an application from cfg. The caller must Close it.
func New(ctx context.Context, cfg *config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
	}

	store, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	blobs, err := OpenBlobs(ctx, cfg.Blobs)
	if err != nil {
		store.Close()
		return nil, err
	}

	summarizer := NewSummarizer(cfg.Summarizer, baseLogger.With("component", "summarize"))

	works := crossref.NewClient(
		crossref.WithBaseURL(cfg.Crossref.BaseURL),
		crossref.WithMailto(cfg.Crossref.Mailto),
		crossref.WithTimeout(cfg.Crossref.Timeout),
		crossref.WithRateLimit(cfg.Crossref.RateLimit),
	)
	resolver := crossref.NewResolver(works, summarizer, baseLogger.With("component", "crossref"))

	coord := ingest.New(ingest.Deps{
		Store:      store,
		Blobs:      blobs,
		Extractor:  extract.New(extract.WithLogger(baseLogger.With("component", "extract"))),
		Summarizer: summarizer,
		Resolver:   resolver,
		Logger:     baseLogger,
	})

	return &Application{
		Config:      cfg,
		Logger:      baseLogger,
		Store:       store,
		Blobs:       blobs,
		Coordinator: coord,
		Snapshots:   snapshot.New(store, cfg.Snapshot.Path, baseLogger),
	}, nil
}

// OpenStore opens the record store selected by cfg.Driver.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case storage.DriverSQLite, storage.DriverPostgres:
		if cfg.Driver == storage.DriverSQLite {
			if err := os.MkdirAll(filepath.Dir(cfg.DSN), 0755); err != nil {
				return nil, fmt.Errorf("creating database directory: %w", err)
			}
		}
		s, err := storage.OpenSQL(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening %s store: %w", cfg.Driver, err)
		}
		return s, nil
	case "mongo":
		s, err := storage.OpenMongo(ctx, cfg.DSN, cfg.Database, cfg.Collection)
		if err != nil {
			return nil, fmt.Errorf("opening mongo store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// OpenBlobs opens the blob store selected by cfg.Backend.
func OpenBlobs(ctx context.Context, cfg config.BlobConfig) (blob.Store, error) {
	switch cfg.Backend {
	case "fs":
		s, err := blob.NewFSStore(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("opening uploads directory: %w", err)
		}
		return s, nil
	case "gcs":
		s, err := blob.NewGCSStore(ctx, blob.GCSConfig{
			Bucket:          cfg.Bucket,
			Prefix:          cfg.Prefix,
			CredentialsFile: cfg.CredentialsFile,
			Endpoint:        cfg.Endpoint,
		})
		if err != nil {
			return nil, fmt.Errorf("opening gcs bucket: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Backend)
	}
}

// NewSummarizer selects the remote strategy only when an API key is configured.
func NewSummarizer(cfg config.SummarizerConfig, logger *slog.Logger) *summarize.Summarizer {
	opts := summarize.Options{
		HasCredential: cfg.HasCredential(),
		MaxInputChars: cfg.MaxInputChars,
		MaxTokens:     cfg.MaxTokens,
		Timeout:       cfg.Timeout,
	}
	if !opts.HasCredential {
		return summarize.New(opts, nil, logger)
	}

	chatOpts := []summarize.ChatOption{
		summarize.WithReferer(cfg.Referer),
		summarize.WithTitle(cfg.Title),
	}
	if cfg.BaseURL != "" {
		chatOpts = append(chatOpts, summarize.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Model != "" {
		chatOpts = append(chatOpts, summarize.WithModel(cfg.Model))
	}
	if cfg.RateLimit > 0 {
		chatOpts = append(chatOpts, summarize.WithRateLimit(cfg.RateLimit))
	}
	return summarize.New(opts, summarize.NewChatClient(cfg.APIKey, chatOpts...), logger)
}

// Handler returns the HTTP surface of the application.
func (a *Application) Handler() http.Handler {
	return server.New(a.Coordinator, server.Options{
		MaxUploadBytes: int64(a.Config.Server.MaxUploadMB) << 20,
		CORSOrigin:     a.Config.Server.CORSOrigin,
	}, a.Logger)
}

// Close releases the store and blob clients. Calls after the first return
// the first result.
func (a *Application) Close() error {
	a.closeOnce.Do(func() {
		a.closeErr = errors.Join(a.Blobs.Close(), a.Store.Close())
	})
	return a.closeErr
}
