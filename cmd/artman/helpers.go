package main

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/matsen/artman/internal/app"
	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/blob"
	"github.com/matsen/artman/internal/config"
	"github.com/matsen/artman/internal/logging"
)

// mustLoadConfig loads the configuration or exits with ExitConfigError.
func mustLoadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

// newLogger returns a logger on stderr so stdout stays machine-readable.
func newLogger(cfg *config.Config) *slog.Logger {
	return logging.New(cfg.Log.Level, cfg.Log.Format, os.Stderr)
}

// exitHooks run before exitWithError terminates the process, since os.Exit
// skips deferred calls.
var exitHooks []func()

// onExit registers fn to run on exitWithError.
func onExit(fn func()) {
	exitHooks = append(exitHooks, fn)
}

// runExitHooks runs registered hooks in reverse order and clears them.
func runExitHooks() {
	hooks := exitHooks
	exitHooks = nil
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}

// mustOpenApp loads the configuration and wires the application, or exits.
// The application is closed if the command later exits with an error.
func mustOpenApp(ctx context.Context) *app.Application {
	cfg := mustLoadConfig()
	application, err := app.New(ctx, cfg, newLogger(cfg))
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	onExit(func() { application.Close() })
	return application
}

// exitCodeFor classifies an operation error.
func exitCodeFor(err error) int {
	switch {
	case article.IsValidation(err):
		return ExitDataError
	case article.IsNotFound(err), article.IsDOINotFound(err), errors.Is(err, blob.ErrNotFound):
		return ExitNotFound
	case errors.Is(err, blob.ErrInvalidRef):
		return ExitDataError
	default:
		return ExitError
	}
}

// exitOnError exits with the classified code when err is non-nil.
func exitOnError(err error, what string) {
	if err != nil {
		exitWithError(exitCodeFor(err), "%s: %v", what, err)
	}
}
