package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/blob"
	"github.com/matsen/artman/internal/crossref"
	"github.com/matsen/artman/internal/extract"
	"github.com/matsen/artman/internal/extract/fixture"
	"github.com/matsen/artman/internal/storage"
	"github.com/matsen/artman/internal/summarize"
)

// newPipeline wires real components: SQLite records, filesystem blobs,
// extraction and a summarizer without a credential.
func newPipeline(t *testing.T, resolver DOIResolver) (*Coordinator, storage.Store) {
	t.Helper()
	dir := t.TempDir()

	store, err := storage.OpenSQL(storage.DriverSQLite, filepath.Join(dir, "articles.db"))
	if err != nil {
		t.Fatalf("OpenSQL() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })

	blobs, err := blob.NewFSStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}

	return New(Deps{
		Store:      store,
		Blobs:      blobs,
		Extractor:  extract.New(),
		Summarizer: summarize.New(summarize.Options{HasCredential: false}, nil, nil),
		Resolver:   resolver,
	}), store
}

func TestPipeline_PDFUploadWithoutCredential(t *testing.T) {
	coord, store := newPipeline(t, nil)
	ctx := context.Background()

	pdf := fixture.PDF("Alpha one. Beta two. Gamma three. Delta four. Epsilon five. Zeta six. Eta seven. Theta eight.")

	a, err := coord.CreateArticle(ctx, article.Fields{Title: "Greek letters"}, &Upload{Name: "letters.pdf", Data: pdf})
	if err != nil {
		t.Fatalf("CreateArticle() error = %v", err)
	}

	want := "Alpha one. Beta two. Gamma three. [...] Eta seven. Theta eight."
	stored, err := store.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if stored.Summary != want {
		t.Errorf("stored Summary = %q, want %q", stored.Summary, want)
	}
	if !stored.HasFile() {
		t.Fatal("stored article should reference the upload")
	}

	res, err := coord.DeleteArticle(ctx, a.ID)
	if err != nil {
		t.Fatalf("DeleteArticle() error = %v", err)
	}
	if !res.FileRemoved {
		t.Errorf("DeleteArticle() = %+v, want file removed", res)
	}
	if _, err := coord.OpenFile(ctx, stored.FileRef()); err == nil {
		t.Error("blob should be gone after delete")
	}
}

func TestPipeline_DOIAbstractMarkupIsStripped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","message":{
			"title":["Thermometry <i>in vivo</i>"],
			"author":[{"given":"G.","family":"Kucsko"}],
			"abstract":"<jats:title>Abstract</jats:title><jats:p>Sensitive probing of <jats:italic>temperature</jats:italic>.</jats:p>"
		}}`))
	}))
	defer server.Close()

	summarizer := summarize.New(summarize.Options{}, nil, nil)
	resolver := crossref.NewResolver(
		crossref.NewClient(crossref.WithBaseURL(server.URL), crossref.WithRateLimit(100)),
		summarizer, nil)
	coord, store := newPipeline(t, resolver)
	ctx := context.Background()

	meta, err := coord.LookupDOI(ctx, "10.1038/nature12373")
	if err != nil {
		t.Fatalf("LookupDOI() error = %v", err)
	}

	a, err := coord.CreateArticle(ctx, article.Fields{
		Title:   meta.Title,
		Author:  meta.Authors,
		Summary: meta.Summary,
		DOI:     meta.DOI,
	}, nil)
	if err != nil {
		t.Fatalf("CreateArticle() error = %v", err)
	}

	stored, err := store.FindByID(ctx, a.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if strings.ContainsAny(stored.Summary, "<>") || strings.ContainsAny(stored.Title, "<>") {
		t.Errorf("markup survived: title %q summary %q", stored.Title, stored.Summary)
	}
	if stored.Summary != "Abstract Sensitive probing of temperature." {
		t.Errorf("Summary = %q", stored.Summary)
	}
	if stored.Title != "Thermometry in vivo" || stored.Author != "G. Kucsko" {
		t.Errorf("stored = %+v", stored)
	}
}
