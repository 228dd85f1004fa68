package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/matsen/artman/internal/snapshot"
)

const (
	readTimeout     = 60 * time.Second // Uploads of up to max_upload_mb
	writeTimeout    = 90 * time.Second // Remote summaries can take most of a minute
	idleTimeout     = 120 * time.Second
	shutdownTimeout = 30 * time.Second
)

var serveAddr string

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default server.addr from config)")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the HTTP API. When snapshot.schedule is configured, JSONL snapshots are
written on that cron schedule while the server runs. SIGINT or SIGTERM shuts
the server down gracefully.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	application := mustOpenApp(ctx)
	defer application.Close()

	cfg := application.Config
	logger := application.Logger

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	if cfg.Snapshot.Schedule != "" {
		sched, err := snapshot.NewScheduler(ctx, cfg.Snapshot.Schedule, application.Snapshots, logger)
		if err != nil {
			exitWithError(ExitConfigError, "%v", err)
		}
		sched.Start()
		defer sched.Stop()
	}

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      application.Handler(),
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", addr,
			"store", cfg.Store.Driver,
			"blobs", cfg.Blobs.Backend,
			"remote_summaries", cfg.Summarizer.HasCredential())
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			exitWithError(ExitError, "server failed: %v", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	logger.Info("server stopped")
	return nil
}
