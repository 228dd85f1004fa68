package app

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/config"
	"github.com/matsen/artman/internal/logging"
	"github.com/matsen/artman/internal/summarize"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Store.DSN = filepath.Join(dir, "articles.db")
	cfg.Blobs.Dir = filepath.Join(dir, "uploads")
	cfg.Snapshot.Path = filepath.Join(dir, "articles.jsonl")
	return cfg
}

func TestNew_Defaults(t *testing.T) {
	ctx := context.Background()
	application, err := New(ctx, testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer application.Close()

	a, err := application.Coordinator.CreateArticle(ctx, article.Fields{Title: "Wired"}, nil)
	if err != nil {
		t.Fatalf("CreateArticle() error = %v", err)
	}

	n, err := application.Snapshots.Run(ctx)
	if err != nil || n != 1 {
		t.Fatalf("snapshot Run() = %d, %v", n, err)
	}

	srv := httptest.NewServer(application.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/articles/" + a.ID)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET article status = %d", resp.StatusCode)
	}
}

func TestOpenStore_UnknownDriver(t *testing.T) {
	if _, err := OpenStore(context.Background(), config.StoreConfig{Driver: "redis", DSN: "x"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

func TestOpenBlobs_UnknownBackend(t *testing.T) {
	if _, err := OpenBlobs(context.Background(), config.BlobConfig{Backend: "s3"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestNewSummarizer(t *testing.T) {
	ctx := context.Background()
	text := "One. Two. Three. Four. Five. Six."

	t.Run("no key is local", func(t *testing.T) {
		res := NewSummarizer(config.Default().Summarizer, nil).Summarize(ctx, text)
		if res.Outcome != summarize.OutcomeLocal {
			t.Errorf("Outcome = %q, want local", res.Outcome)
		}
	})

	t.Run("key is remote", func(t *testing.T) {
		auth := make(chan string, 1)
		chat := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth <- r.Header.Get("Authorization")
			w.Header().Set("Content-Type", "application/json")
			io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"Six numbers."}}]}`)
		}))
		defer chat.Close()

		cfg := config.Default().Summarizer
		cfg.APIKey = "sk-test"
		cfg.BaseURL = chat.URL

		res := NewSummarizer(cfg, nil).Summarize(ctx, text)
		if res.Outcome != summarize.OutcomeRemote || res.Text != "Six numbers." {
			t.Errorf("Summarize() = %+v", res)
		}
		if got := <-auth; got != "Bearer sk-test" {
			t.Errorf("Authorization = %q", got)
		}
	})
}

func TestOpenStore_CreatesSQLiteDirectory(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "deeper", "articles.db")
	s, err := OpenStore(context.Background(), config.StoreConfig{Driver: "sqlite", DSN: dsn})
	if err != nil {
		t.Fatalf("OpenStore() error = %v", err)
	}
	s.Close()
}

func TestClose_Idempotent(t *testing.T) {
	ctx := context.Background()
	application, err := New(ctx, testConfig(t), logging.Discard())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := application.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := application.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := application.Store.Count(ctx); err == nil {
		t.Error("store should be closed")
	}
}
