// Package artman is the Cloud Functions entry point. It serves the same HTTP
// surface as "artman serve", configured from the environment.
package artman

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/matsen/artman/internal/app"
	"github.com/matsen/artman/internal/config"
	"github.com/matsen/artman/internal/logging"
)

// FunctionName is the target name the function is registered under.
const FunctionName = "Articles"

func init() {
	functions.HTTP(FunctionName, HandleRequest)
}

var (
	buildOnce  sync.Once
	handler    http.Handler
	errBuild   error
	baseLogger *slog.Logger
)

// build creates the application once per instance. Config comes from the
// file named by ARTMAN_CONFIG (if set) plus environment overrides.
func build() {
	cfg, err := config.Load(os.Getenv("ARTMAN_CONFIG"))
	if err != nil {
		errBuild = err
		baseLogger = logging.New("info", "json", os.Stderr)
		return
	}

	// Cloud logging parses JSON lines from stderr.
	baseLogger = logging.New(cfg.Log.Level, "json", os.Stderr)

	application, err := app.New(context.Background(), cfg, baseLogger)
	if err != nil {
		errBuild = err
		return
	}
	handler = application.Handler()
}

// HandleRequest serves one request, building the application on first use.
func HandleRequest(w http.ResponseWriter, r *http.Request) {
	buildOnce.Do(build)
	if errBuild != nil {
		baseLogger.Error("failed to create handler", "error", errBuild)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	handler.ServeHTTP(w, r)
}
