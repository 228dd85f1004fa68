// Package ingest coordinates article creation and deletion across the record
// store, the blob store and the enrichment chain (extraction, summarization,
// DOI lookup).
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/matsen/artman/internal/article"
	"github.com/matsen/artman/internal/blob"
	"github.com/matsen/artman/internal/crossref"
	"github.com/matsen/artman/internal/extract"
	"github.com/matsen/artman/internal/markup"
	"github.com/matsen/artman/internal/storage"
	"github.com/matsen/artman/internal/summarize"
)

// TextExtractor turns an uploaded document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte, format extract.Format) string
}

// Summarizer turns plain text into a summary.
type Summarizer interface {
	Summarize(ctx context.Context, text string) summarize.Result
}

// DOIResolver looks up metadata for a DOI.
type DOIResolver interface {
	Resolve(ctx context.Context, doi string) (crossref.Metadata, error)
}

// Upload is an uploaded document.
type Upload struct {
	Name string // Original file name; its extension selects the format
	Data []byte
}

// ExtractResult is the outcome of the extract-summary flow.
type ExtractResult struct {
	Summary    string            `json:"summary"`
	Outcome    summarize.Outcome `json:"outcome"`
	Format     extract.Format    `json:"format"`
	TextLength int               `json:"text_length"`
	DOIHint    string            `json:"doi_hint,omitempty"`
}

// DeleteResult reports what a delete removed besides the record.
type DeleteResult struct {
	FileRemoved bool   `json:"file_removed"`
	FileError   string `json:"file_error,omitempty"`
}

// Coordinator runs the ingestion flows.
type Coordinator struct {
	store      storage.Store
	blobs      blob.Store
	extractor  TextExtractor
	summarizer Summarizer
	resolver   DOIResolver
	logger     *slog.Logger
	locks      keyedMutex
}

// Deps are the collaborators of a Coordinator.
type Deps struct {
	Store      storage.Store
	Blobs      blob.Store
	Extractor  TextExtractor
	Summarizer Summarizer
	Resolver   DOIResolver
	Logger     *slog.Logger
}

// New creates a Coordinator.
func New(d Deps) *Coordinator {
	logger := d.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Coordinator{
		store:      d.Store,
		blobs:      d.Blobs,
		extractor:  d.Extractor,
		summarizer: d.Summarizer,
		resolver:   d.Resolver,
		logger:     logger.With("component", "ingest"),
	}
}

// ExtractSummary extracts and summarizes an upload without storing anything.
func (c *Coordinator) ExtractSummary(ctx context.Context, up *Upload) (ExtractResult, error) {
	if up == nil {
		return ExtractResult{}, &article.ValidationError{Field: "file", Message: "no file uploaded"}
	}

	format := extract.FormatFromName(up.Name)
	text := c.extractor.Extract(ctx, up.Data, format)
	res := c.summarizer.Summarize(ctx, text)

	c.logger.InfoContext(ctx, "extracted summary",
		"file", up.Name,
		"format", string(format),
		"text_length", len(text),
		"outcome", string(res.Outcome))

	return ExtractResult{
		Summary:    res.Text,
		Outcome:    res.Outcome,
		Format:     format,
		TextLength: len(text),
		DOIHint:    extract.FindDOI(text),
	}, nil
}

// CreateArticle validates the fields, stores the upload (if any), derives a
// summary when none was submitted and persists the record.
//
// A submitted summary always wins over derivation. If the record cannot be
// stored, the blob written for it is removed again.
func (c *Coordinator) CreateArticle(ctx context.Context, f article.Fields, up *Upload) (article.Article, error) {
	if err := f.Validate(); err != nil {
		return article.Article{}, err
	}

	var ref string
	if up != nil {
		var err error
		ref, err = c.blobs.Put(ctx, up.Name, up.Data)
		if err != nil {
			return article.Article{}, fmt.Errorf("storing upload: %w", err)
		}
	}

	summary := c.resolveSummary(ctx, f.Summary, up)

	saved, err := c.store.Insert(ctx, article.New(f, summary, ref))
	if err != nil {
		if ref != "" {
			if delErr := c.blobs.Delete(ctx, ref); delErr != nil {
				c.logger.WarnContext(ctx, "removing blob of failed insert",
					"event", article.EventBlobDeletionFailed,
					"ref", ref,
					"error", delErr)
			}
		}
		return article.Article{}, fmt.Errorf("saving article: %w", err)
	}

	c.logger.InfoContext(ctx, "created article", "id", saved.ID, "has_file", saved.HasFile())
	return saved, nil
}

// resolveSummary picks the submitted summary or derives one from the upload.
func (c *Coordinator) resolveSummary(ctx context.Context, submitted string, up *Upload) string {
	if strings.TrimSpace(submitted) != "" {
		if markup.HasMarkup(submitted) {
			return markup.Strip(submitted)
		}
		return submitted
	}
	if up == nil {
		return ""
	}

	text := c.extractor.Extract(ctx, up.Data, extract.FormatFromName(up.Name))
	return c.summarizer.Summarize(ctx, text).Text
}

// DeleteArticle removes an article and, best-effort, its attached blob.
// Deletes of the same id are serialised; the later one reports NotFound.
func (c *Coordinator) DeleteArticle(ctx context.Context, id string) (DeleteResult, error) {
	unlock := c.locks.Lock(id)
	defer unlock()

	a, err := c.store.FindByID(ctx, id)
	if err != nil {
		return DeleteResult{}, err
	}

	var result DeleteResult
	if a.HasFile() {
		if err := c.blobs.Delete(ctx, a.FileRef()); err != nil {
			c.logger.WarnContext(ctx, "blob deletion failed",
				"event", article.EventBlobDeletionFailed,
				"id", id,
				"ref", a.FileRef(),
				"error", err)
			result.FileError = err.Error()
		} else {
			result.FileRemoved = true
		}
	}

	if err := c.store.DeleteByID(ctx, id); err != nil {
		return result, err
	}

	c.logger.InfoContext(ctx, "deleted article", "id", id, "file_removed", result.FileRemoved)
	return result, nil
}

// ListArticles returns all articles, or those whose title contains search.
func (c *Coordinator) ListArticles(ctx context.Context, search string) ([]article.Article, error) {
	return c.store.FindAll(ctx, strings.TrimSpace(search))
}

// GetArticle returns one article by id.
func (c *Coordinator) GetArticle(ctx context.Context, id string) (article.Article, error) {
	return c.store.FindByID(ctx, id)
}

// OpenFile opens the blob behind ref for download.
func (c *Coordinator) OpenFile(ctx context.Context, ref string) (io.ReadCloser, error) {
	return c.blobs.Open(ctx, ref)
}

// LookupDOI resolves a DOI to prefill an article form.
func (c *Coordinator) LookupDOI(ctx context.Context, doi string) (crossref.Metadata, error) {
	return c.resolver.Resolve(ctx, doi)
}
