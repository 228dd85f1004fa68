package snapshot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/storage"
)

func openStore(t *testing.T) *storage.SQLStore {
	t.Helper()
	s, err := storage.OpenSQL(storage.DriverSQLite, filepath.Join(t.TempDir(), "articles.db"))
	if err != nil {
		t.Fatalf("OpenSQL: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seed(t *testing.T, s storage.Store, titles ...string) []article.Article {
	t.Helper()
	var out []article.Article
	for _, title := range titles {
		a, err := s.Insert(context.Background(), article.Article{Title: title, Author: "Jane Doe"})
		if err != nil {
			t.Fatalf("Insert: %v", err)
		}
		out = append(out, a)
	}
	return out
}

func TestSnapshotter_Run(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seeded := seed(t, store, "First", "Second", "Third")

	path := filepath.Join(t.TempDir(), "nested", "articles.jsonl")
	n, err := New(store, path, nil).Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if n != 3 {
		t.Errorf("Run() = %d, want 3", n)
	}

	got, err := storage.ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("snapshot has %d records, want 3", len(got))
	}
	for i := range got {
		if got[i].ID != seeded[i].ID || got[i].Title != seeded[i].Title {
			t.Errorf("record %d = %+v, want %+v", i, got[i], seeded[i])
		}
	}

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("snapshot dir has %d entries, want 1", len(entries))
	}
}

func TestSnapshotter_RunReplaces(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seed(t, store, "Only")

	path := filepath.Join(t.TempDir(), "articles.jsonl")
	if err := os.WriteFile(path, []byte("stale\n"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := New(store, path, nil).Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(data), "stale") || strings.Count(string(data), "\n") != 1 {
		t.Errorf("snapshot = %q", data)
	}
}

func TestRestore(t *testing.T) {
	ctx := context.Background()
	src := openStore(t)
	seeded := seed(t, src, "Alpha", "Beta")

	path := filepath.Join(t.TempDir(), "articles.jsonl")
	if _, err := New(src, path, nil).Run(ctx); err != nil {
		t.Fatal(err)
	}

	dst := openStore(t)
	n, err := Restore(ctx, dst, path)
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Restore() = %d, want 2", n)
	}

	for _, want := range seeded {
		got, err := dst.FindByID(ctx, want.ID)
		if err != nil {
			t.Fatalf("FindByID(%s): %v", want.ID, err)
		}
		if got.Title != want.Title || !got.CreatedAt.Equal(want.CreatedAt) {
			t.Errorf("restored %+v, want %+v", got, want)
		}
	}
}

func TestRestore_NonEmptyStore(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)
	seed(t, store, "Existing")

	path := filepath.Join(t.TempDir(), "articles.jsonl")
	if err := storage.WriteAll(path, []article.Article{{ID: "x", Title: "New"}}); err != nil {
		t.Fatal(err)
	}

	_, err := Restore(ctx, store, path)
	if !errors.Is(err, ErrStoreNotEmpty) {
		t.Fatalf("Restore() error = %v, want ErrStoreNotEmpty", err)
	}
	if n, _ := store.Count(ctx); n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestRestore_Errors(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	if _, err := Restore(ctx, openStore(t), filepath.Join(dir, "missing.jsonl")); err == nil {
		t.Error("missing file should fail")
	}

	untitled := filepath.Join(dir, "untitled.jsonl")
	if err := storage.WriteAll(untitled, []article.Article{{ID: "a", Title: "Fine"}, {ID: "b", Title: "  "}}); err != nil {
		t.Fatal(err)
	}
	n, err := Restore(ctx, openStore(t), untitled)
	if !article.IsValidation(err) {
		t.Errorf("Restore() error = %v, want validation error", err)
	}
	if n != 1 {
		t.Errorf("Restore() = %d, want 1 inserted before the failure", n)
	}
}

func TestNewScheduler_InvalidSpec(t *testing.T) {
	snap := New(openStore(t), filepath.Join(t.TempDir(), "a.jsonl"), nil)
	if _, err := NewScheduler(context.Background(), "every tuesday", snap, nil); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestScheduler_Runs(t *testing.T) {
	store := openStore(t)
	seed(t, store, "Scheduled")

	path := filepath.Join(t.TempDir(), "articles.jsonl")
	sched, err := NewScheduler(context.Background(), "@every 1s", New(store, path, nil), nil)
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	sched.Start()
	defer sched.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if got, _ := storage.ReadAll(path); len(got) == 1 {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("scheduled snapshot was not written")
}
